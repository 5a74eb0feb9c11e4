package tokenizer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"sagasu/internal/errors"
)

// OneShot runs the analyzer command once for a single document, without
// the --stream flag. The process reads the whole document on stdin and
// prints one token per line.
func OneShot(ctx context.Context, command []string, timeout time.Duration, text string) ([]string, error) {
	if len(command) == 0 {
		return nil, errors.New(errors.ErrCodeTokenizerUnavailable, "tokenizer command not configured", nil)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeTokenizerTimeout,
				fmt.Sprintf("tokenizer did not finish within %s", timeout), err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.New(errors.ErrCodeTokenizerUnavailable, msg, err)
	}

	var tokens []string
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line == docDelimiter {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTokenizerProtocol, err)
	}
	return tokens, nil
}
