package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressRenderer(&buf, false)

	p.Update(1, 3, "/docs/a.txt")
	p.Update(3, 3, "/docs/c.txt")
	p.Done(3, 0, 0, 42*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "indexing 1/3 /docs/a.txt")
	assert.Contains(t, out, "indexing 3/3 /docs/c.txt")
	assert.Contains(t, out, "indexed 3, removed 0, errors 0 in 42ms")
}

func TestProgressPlainThrottlesIntermediateSteps(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressRenderer(&buf, false)

	p.Update(1, 100, "/docs/a.txt")
	p.Update(2, 100, "/docs/b.txt")
	p.Update(3, 100, "/docs/c.txt")

	out := buf.String()
	assert.Contains(t, out, "1/100")
	assert.NotContains(t, out, "2/100")
	assert.NotContains(t, out, "3/100")
}

func TestProgressPlainAlwaysPrintsFinalStep(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressRenderer(&buf, false)

	p.Update(1, 2, "/docs/a.txt")
	p.Update(2, 2, "/docs/b.txt")

	assert.Contains(t, buf.String(), "indexing 2/2 /docs/b.txt")
}

func TestProgressError(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressRenderer(&buf, false)

	p.Error("/docs/broken.pdf", errors.New("unreadable"))

	out := buf.String()
	assert.Contains(t, out, "warn /docs/broken.pdf: unreadable")
}

func TestProgressTTYRewritesLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressRenderer(&buf, true)

	p.Update(1, 2, "/docs/a.txt")
	p.Update(2, 2, "/docs/b.txt")
	p.Done(2, 0, 0, time.Millisecond)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\r\033[K"))
	assert.Contains(t, out, "indexed 2, removed 0")
}
