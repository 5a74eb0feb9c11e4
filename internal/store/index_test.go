package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(path, content string, terms ...string) *Document {
	return &Document{
		Path:    path,
		Folder:  filepath.Dir(path),
		Name:    filepath.Base(path),
		Ext:     filepath.Ext(path),
		Size:    int64(len(content)),
		ModTime: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Content: content,
		Terms:   terms,
	}
}

func termsMatch(text string) *bleve.SearchRequest {
	q := bleve.NewMatchQuery(text)
	q.SetField(FieldTerms)
	req := bleve.NewSearchRequest(q)
	req.Size = 10
	return req
}

func TestIndexCommitMakesDocumentsVisible(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	docs := []*Document{
		testDoc("/docs/report.txt", "quarterly revenue grew", "quarterly", "revenue", "grew"),
		testDoc("/docs/notes.md", "meeting notes", "meeting", "notes"),
	}
	require.NoError(t, idx.UpsertBatch(docs))
	assert.Equal(t, 2, idx.Pending())

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "uncommitted documents must not be visible")

	gen := idx.Generation()
	require.NoError(t, idx.Commit(context.Background()))
	assert.Equal(t, 0, idx.Pending())
	assert.Greater(t, idx.Generation(), gen)

	count, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestIndexEmptyCommitKeepsGeneration(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	gen := idx.Generation()
	require.NoError(t, idx.Commit(context.Background()))
	assert.Equal(t, gen, idx.Generation())
}

func TestIndexSearchPretokenizedTerms(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	doc := testDoc("/docs/travel.txt", "東京観光の記録", "東京", "観光", "記録")
	require.NoError(t, idx.UpsertBatch([]*Document{doc}))
	require.NoError(t, idx.Commit(context.Background()))

	result, err := idx.Search(context.Background(), termsMatch("東京"))
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "/docs/travel.txt", result.Hits[0].ID)

	// Terms that the analyzer never emitted do not match.
	result, err = idx.Search(context.Background(), termsMatch("京都"))
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestIndexSearchCaseInsensitiveTerms(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	doc := testDoc("/docs/spec.txt", "HTTP Server", "HTTP", "Server")
	require.NoError(t, idx.UpsertBatch([]*Document{doc}))
	require.NoError(t, idx.Commit(context.Background()))

	result, err := idx.Search(context.Background(), termsMatch("http"))
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
}

func TestIndexStoredFields(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	doc := testDoc("/docs/report.txt", "full stored body", "full", "stored", "body")
	require.NoError(t, idx.UpsertBatch([]*Document{doc}))
	require.NoError(t, idx.Commit(context.Background()))

	req := termsMatch("stored")
	req.Fields = []string{FieldContent, FieldName, FieldFolder}
	result, err := idx.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)

	hit := result.Hits[0]
	assert.Equal(t, "full stored body", hit.Fields[FieldContent])
	assert.Equal(t, "report.txt", hit.Fields[FieldName])
	assert.Equal(t, "/docs", hit.Fields[FieldFolder])
}

func TestIndexFileNameMatchIsCaseInsensitive(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	doc := testDoc("/docs/Report.TXT", "body", "body")
	require.NoError(t, idx.UpsertBatch([]*Document{doc}))
	require.NoError(t, idx.Commit(context.Background()))

	q := bleve.NewMatchQuery("report.txt")
	q.SetField(FieldName)
	result, err := idx.Search(context.Background(), bleve.NewSearchRequest(q))
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
}

func TestIndexDeleteBatch(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.UpsertBatch([]*Document{
		testDoc("/docs/a.txt", "alpha", "alpha"),
		testDoc("/docs/b.txt", "beta", "beta"),
	}))
	require.NoError(t, idx.Commit(context.Background()))

	require.NoError(t, idx.DeleteBatch([]string{"/docs/a.txt"}))
	require.NoError(t, idx.Commit(context.Background()))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndexUpsertReplacesDocument(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.UpsertBatch([]*Document{testDoc("/docs/a.txt", "old text", "old")}))
	require.NoError(t, idx.Commit(context.Background()))

	require.NoError(t, idx.UpsertBatch([]*Document{testDoc("/docs/a.txt", "new text", "new")}))
	require.NoError(t, idx.Commit(context.Background()))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	result, err := idx.Search(context.Background(), termsMatch("old"))
	require.NoError(t, err)
	assert.Empty(t, result.Hits)

	result, err = idx.Search(context.Background(), termsMatch("new"))
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
}

func TestIndexReset(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.UpsertBatch([]*Document{testDoc("/docs/a.txt", "alpha", "alpha")}))
	require.NoError(t, idx.Commit(context.Background()))

	gen := idx.Generation()
	require.NoError(t, idx.Reset())
	assert.Greater(t, idx.Generation(), gen)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.UpsertBatch([]*Document{testDoc("/docs/a.txt", "alpha", "alpha")}))
	require.NoError(t, idx.Commit(context.Background()))
	require.NoError(t, idx.Close())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndexCorruptMetaAutoClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), []byte("{not json"), 0o644))

	idx, err := Open(path)
	require.NoError(t, err, "corrupt index must be cleared and recreated")
	defer idx.Close()

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexClosedOperationsFail(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.UpsertBatch([]*Document{testDoc("/docs/a.txt", "x", "x")}))
	assert.Error(t, idx.Commit(context.Background()))
	_, err = idx.Count()
	assert.Error(t, err)
	_, err = idx.Search(context.Background(), termsMatch("x"))
	assert.Error(t, err)

	// Double close is harmless.
	assert.NoError(t, idx.Close())
}
