package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagasu/internal/store"
	"sagasu/internal/tokenizer"
)

// fakeAnalyzer segments via a fixed dictionary, falling back to
// whitespace splitting. It stands in for the external morphological
// analyzer.
type fakeAnalyzer struct {
	dict map[string][]string
}

func (f *fakeAnalyzer) Tokenize(_ context.Context, text string) ([]string, error) {
	if f.dict != nil {
		if terms, ok := f.dict[text]; ok {
			return terms, nil
		}
	}
	return tokenizer.FallbackTokens(text), nil
}

func (f *fakeAnalyzer) TokenizeBatch(ctx context.Context, texts []string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i, t := range texts {
		tokens, err := f.Tokenize(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = tokens
	}
	return out, nil
}

func (f *fakeAnalyzer) Close() error { return nil }

func newTestIndex(t *testing.T, docs ...*store.Document) *store.Index {
	t.Helper()
	idx, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	if len(docs) > 0 {
		require.NoError(t, idx.UpsertBatch(docs))
		require.NoError(t, idx.Commit(context.Background()))
	}
	return idx
}

func doc(path, content string, modTime time.Time, terms ...string) *store.Document {
	return &store.Document{
		Path:    path,
		Folder:  filepath.Dir(path),
		Name:    filepath.Base(path),
		Ext:     filepath.Ext(path),
		Size:    int64(len(content)),
		ModTime: modTime,
		Content: content,
		Terms:   terms,
	}
}

var testTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func TestEngineBasicSearch(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/report.txt", "quarterly revenue grew", testTime, "quarterly", "revenue", "grew"),
		doc("/docs/notes.txt", "meeting agenda", testTime, "meeting", "agenda"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "revenue"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "/docs/report.txt", r.Path)
	assert.Equal(t, "report.txt", r.Name)
	assert.Equal(t, "/docs", r.Folder)
	assert.Contains(t, r.MatchedTerms, "revenue")
	require.NotEmpty(t, r.Fragments)
	assert.Contains(t, r.Fragments[0].Text, "revenue")
	require.NotEmpty(t, r.Fragments[0].Spans)
}

func TestEngineAllTermsMustMatch(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/a.txt", "revenue and costs", testTime, "revenue", "costs"),
		doc("/docs/b.txt", "revenue only", testTime, "revenue"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "revenue costs"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/a.txt", results[0].Path)
}

func TestEngineEmptyQueryMatchesAll(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/a.txt", "alpha", testTime, "alpha"),
		doc("/docs/b.txt", "beta", testTime, "beta"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "   "})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEngineEmptyQueryWithFilter(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/a.txt", "alpha", testTime, "alpha"),
		doc("/docs/b.md", "beta", testTime, "beta"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "", FileTypes: []string{"md"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/b.md", results[0].Path)
}

func TestEngineRawFallbackWhenAnalyzerYieldsNothing(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/kanko.txt", "観光情報のまとめ", testTime, "観光情報", "まとめ"),
		doc("/docs/notes.txt", "meeting agenda", testTime, "meeting", "agenda"),
	)
	e := NewEngine(idx, &fakeAnalyzer{dict: map[string][]string{"観光": {}}}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "観光"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/kanko.txt", results[0].Path)
}

func TestEngineASCIISubstringMatch(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/report.txt", "quarterly revenue grew", testTime, "quarterly", "revenue", "grew"),
		doc("/docs/notes.txt", "meeting agenda", testTime, "meeting", "agenda"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	// A partial word still matches the containing term.
	results, err := e.Search(context.Background(), Query{Text: "revenu"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/report.txt", results[0].Path)
}

func TestEngineNoMatches(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/a.txt", "alpha", testTime, "alpha"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "zulu"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineMatchesFileNameOnly(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/report.txt", "alpha body", testTime, "alpha", "body"),
		doc("/docs/other.txt", "alpha body", testTime, "alpha", "body"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	// No body term contains "report"; the file name alone carries it.
	results, err := e.Search(context.Background(), Query{Text: "report"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/report.txt", results[0].Path)
}

func TestEngineFileNameRanksAboveBodyOnly(t *testing.T) {
	// The boosted doc is inserted second so ranking cannot ride on
	// insertion order.
	idx := newTestIndex(t,
		doc("/docs/misc.txt", "revenue mention", testTime, "revenue", "mention"),
		doc("/docs/revenue.txt", "totals", testTime, "revenue", "totals"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "revenue"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/docs/revenue.txt", results[0].Path)
}

func TestEngineWildcardMatchesFileName(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/report.txt", "body", testTime, "body"),
		doc("/docs/notes.md", "body", testTime, "body"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "rep*"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/report.txt", results[0].Path)
}

func TestEnginePhraseRequiresOrder(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/exact.txt", "tokyo travel guide", testTime, "tokyo", "travel", "guide"),
		doc("/docs/scattered.txt", "travel notes about tokyo", testTime, "travel", "notes", "about", "tokyo"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: `"tokyo travel"`})
	require.NoError(t, err)
	require.Len(t, results, 1, "out-of-order terms do not satisfy a phrase")
	assert.Equal(t, "/docs/exact.txt", results[0].Path)
}

func TestEngineSegmentsCompoundQuery(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/travel.txt", "東京観光の記録", testTime, "東京", "観光", "記録"),
		doc("/docs/osaka.txt", "大阪の記録", testTime, "大阪", "記録"),
	)
	analyzer := &fakeAnalyzer{dict: map[string][]string{
		"東京観光": {"東京", "観光"},
	}}
	e := NewEngine(idx, analyzer, Options{})

	results, err := e.Search(context.Background(), Query{Text: "東京観光"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/travel.txt", results[0].Path)
}

func TestEngineCompoundQueryNeedsAdjacentTerms(t *testing.T) {
	// The segments appear in the document, but far apart; a compound
	// word only matches where its segments sit next to each other.
	idx := newTestIndex(t,
		doc("/docs/apart.txt", "東京 は 大阪 から 観光", testTime,
			"東京", "は", "大阪", "から", "観光"),
	)
	analyzer := &fakeAnalyzer{dict: map[string][]string{
		"東京観光": {"東京", "観光"},
	}}
	e := NewEngine(idx, analyzer, Options{})

	results, err := e.Search(context.Background(), Query{Text: "東京観光"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineFileTypeFilter(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/a.txt", "shared term", testTime, "shared"),
		doc("/docs/b.md", "shared term", testTime, "shared"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "shared", FileTypes: []string{"md"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/b.md", results[0].Path)

	// Leading dot and case are normalized.
	results, err = e.Search(context.Background(), Query{Text: "shared", FileTypes: []string{".TXT"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/a.txt", results[0].Path)
}

func TestEngineFolderPrefixFilter(t *testing.T) {
	idx := newTestIndex(t,
		doc("/work/docs/a.txt", "shared", testTime, "shared"),
		doc("/home/notes/b.txt", "shared", testTime, "shared"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "shared", FolderPrefix: "/work/"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/work/docs/a.txt", results[0].Path)
}

func TestEngineModifiedRangeFilter(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	idx := newTestIndex(t,
		doc("/docs/old.txt", "shared", old, "shared"),
		doc("/docs/recent.txt", "shared", recent, "shared"),
	)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	results, err := e.Search(context.Background(), Query{Text: "shared", ModifiedAfter: &cutoff})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/recent.txt", results[0].Path)

	results, err = e.Search(context.Background(), Query{Text: "shared", ModifiedBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/old.txt", results[0].Path)
}

func TestEngineMaxResults(t *testing.T) {
	docs := make([]*store.Document, 10)
	for i := range docs {
		path := filepath.Join("/docs", string(rune('a'+i))+".txt")
		docs[i] = doc(path, "shared", testTime, "shared")
	}
	idx := newTestIndex(t, docs...)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{})

	results, err := e.Search(context.Background(), Query{Text: "shared", MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestEngineConfiguredMaxResults(t *testing.T) {
	docs := make([]*store.Document, 10)
	for i := range docs {
		path := filepath.Join("/docs", string(rune('a'+i))+".txt")
		docs[i] = doc(path, "shared", testTime, "shared")
	}
	idx := newTestIndex(t, docs...)
	e := NewEngine(idx, &fakeAnalyzer{}, Options{MaxResults: 4})

	// The configured maximum is both the default page size and the
	// ceiling on per-query limits.
	results, err := e.Search(context.Background(), Query{Text: "shared"})
	require.NoError(t, err)
	assert.Len(t, results, 4)

	results, err = e.Search(context.Background(), Query{Text: "shared", MaxResults: 50})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestEngineTermCachePurgedOnCommit(t *testing.T) {
	idx := newTestIndex(t,
		doc("/docs/alpha.txt", "alpha", testTime, "alpha"),
		doc("/docs/beta.txt", "beta", testTime, "beta"),
	)
	analyzer := &fakeAnalyzer{dict: map[string][]string{"単語": {"alpha"}}}
	e := NewEngine(idx, analyzer, Options{})

	results, err := e.Search(context.Background(), Query{Text: "単語"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/alpha.txt", results[0].Path)

	// Changing segmentation alone is not seen, the term cache serves.
	analyzer.dict["単語"] = []string{"beta"}
	results, err = e.Search(context.Background(), Query{Text: "単語"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/alpha.txt", results[0].Path)

	// A commit moves the generation and invalidates the cache.
	require.NoError(t, idx.UpsertBatch([]*store.Document{
		doc("/docs/gamma.txt", "gamma", testTime, "gamma"),
	}))
	require.NoError(t, idx.Commit(context.Background()))

	results, err = e.Search(context.Background(), Query{Text: "単語"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/beta.txt", results[0].Path)
}
