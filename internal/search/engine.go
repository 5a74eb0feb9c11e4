package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"

	"sagasu/internal/errors"
	"sagasu/internal/highlight"
	"sagasu/internal/store"
	"sagasu/internal/tokenizer"
)

// readRetry is the policy for transient index read failures: one retry
// after a short delay.
var readRetry = errors.RetryConfig{
	MaxRetries:   1,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     200 * time.Millisecond,
	Multiplier:   1,
}

// Engine executes queries against the document index.
type Engine struct {
	index    *store.Index
	analyzer tokenizer.Analyzer
	opts     Options

	// termCache memoizes analyzer output per query word. It is purged
	// whenever the index generation moves, so cached segmentation never
	// outlives the dictionary that produced the indexed terms.
	mu        sync.Mutex
	termCache *lru.Cache[string, []string]
	cacheGen  uint64
}

// NewEngine creates a search engine over the given index and analyzer.
// Zero-valued options fall back to their defaults.
func NewEngine(index *store.Index, analyzer tokenizer.Analyzer, opts Options) *Engine {
	opts = opts.withDefaults()
	cache, _ := lru.New[string, []string](opts.CacheSize)
	return &Engine{
		index:     index,
		analyzer:  analyzer,
		opts:      opts,
		termCache: cache,
		cacheGen:  index.Generation(),
	}
}

// Search runs a query and returns ranked hits with display fragments.
// A transient index failure is retried once; if the retry also fails the
// search degrades to zero results instead of erroring the caller.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := parseQuery(q.Text)

	bq, literals, err := e.buildQuery(ctx, q, parts)
	if err != nil {
		return nil, err
	}

	limit := q.MaxResults
	if limit <= 0 || limit > e.opts.MaxResults {
		limit = e.opts.MaxResults
	}

	req := bleve.NewSearchRequest(bq)
	req.Size = limit
	req.Fields = []string{
		store.FieldContent, store.FieldName, store.FieldFolder,
		store.FieldExt, store.FieldSize, store.FieldModified,
	}
	req.IncludeLocations = true

	result, err := errors.RetryWithResult(ctx, readRetry, func() (*bleve.SearchResult, error) {
		return e.index.Search(ctx, req)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Error("search_failed", slog.String("error", err.Error()))
		return []Result{}, nil
	}

	results, contents := e.buildResults(result)
	e.attachFragments(ctx, results, contents, literals)
	return results, nil
}

// analyzeText segments a query word the same way indexed documents were
// segmented, memoized per index generation.
func (e *Engine) analyzeText(ctx context.Context, text string) ([]string, error) {
	e.mu.Lock()
	if gen := e.index.Generation(); gen != e.cacheGen {
		e.termCache.Purge()
		e.cacheGen = gen
	}
	if terms, ok := e.termCache.Get(text); ok {
		e.mu.Unlock()
		return terms, nil
	}
	e.mu.Unlock()

	terms, err := e.analyzer.Tokenize(ctx, text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.termCache.Add(text, terms)
	e.mu.Unlock()
	return terms, nil
}

// buildQuery assembles the Bleve query tree: AND across parts and
// filters, OR between body and file-name matches per part. ASCII words
// match substring-style without the analyzer; other words go through it,
// multi-token segmentations becoming ordered phrases. Zero resolvable
// parts degrade to a match-all, so an empty query with filters still
// lists documents. The returned literals are the strings to highlight.
func (e *Engine) buildQuery(ctx context.Context, q Query, parts []queryPart) (query.Query, []string, error) {
	var termConjuncts []query.Query
	var literals []string
	termBudget := e.opts.MaxQueryTerms

	for _, part := range parts {
		if termBudget <= 0 {
			slog.Debug("query_terms_truncated", slog.Int("cap", e.opts.MaxQueryTerms))
			break
		}

		switch part.kind {
		case partWildcard:
			wq := bleve.NewWildcardQuery(strings.ToLower(part.text))
			wq.SetField(store.FieldName)
			wq.SetBoost(e.opts.FileNameBoost)
			termConjuncts = append(termConjuncts, wq)
			termBudget--

		case partPhrase:
			terms, err := e.analyzeText(ctx, part.text)
			if err != nil {
				return nil, nil, err
			}
			literals = append(literals, part.text)
			if len(terms) == 0 {
				termConjuncts = append(termConjuncts, e.substringQuery(part.text))
				termBudget--
				continue
			}
			if len(terms) > termBudget {
				terms = terms[:termBudget]
			}
			termBudget -= len(terms)
			literals = append(literals, terms...)
			termConjuncts = append(termConjuncts, bleve.NewDisjunctionQuery(
				exactPhraseQuery(terms), e.fileNameQuery(part.text)))

		default:
			if isASCIIWord(part.text) {
				literals = append(literals, part.text)
				termConjuncts = append(termConjuncts, e.substringQuery(part.text))
				termBudget--
				continue
			}

			terms, err := e.analyzeText(ctx, part.text)
			if err != nil {
				return nil, nil, err
			}
			if len(terms) == 0 {
				literals = append(literals, part.text)
				termConjuncts = append(termConjuncts, e.substringQuery(part.text))
				termBudget--
				continue
			}
			if len(terms) > termBudget {
				terms = terms[:termBudget]
			}
			termBudget -= len(terms)
			literals = append(literals, terms...)
			if len(terms) == 1 {
				termConjuncts = append(termConjuncts, bleve.NewDisjunctionQuery(
					termSubstringQuery(terms[0]), e.fileNameQuery(part.text)))
			} else {
				termConjuncts = append(termConjuncts, bleve.NewDisjunctionQuery(
					exactPhraseQuery(terms), e.fileNameQuery(part.text)))
			}
		}
	}

	var conjuncts []query.Query
	if len(termConjuncts) == 0 {
		conjuncts = append(conjuncts, bleve.NewMatchAllQuery())
	} else {
		conjuncts = append(conjuncts, termConjuncts...)
	}

	if fq := fileTypeFilter(q.FileTypes); fq != nil {
		conjuncts = append(conjuncts, fq)
	}
	if q.FolderPrefix != "" {
		pq := bleve.NewPrefixQuery(q.FolderPrefix)
		pq.SetField(store.FieldPath)
		conjuncts = append(conjuncts, pq)
	}
	if q.ModifiedAfter != nil || q.ModifiedBefore != nil {
		var start, end time.Time
		if q.ModifiedAfter != nil {
			start = *q.ModifiedAfter
		}
		if q.ModifiedBefore != nil {
			end = *q.ModifiedBefore
		}
		dq := bleve.NewDateRangeQuery(start, end)
		dq.SetField(store.FieldModified)
		conjuncts = append(conjuncts, dq)
	}

	if len(conjuncts) == 1 {
		return conjuncts[0], literals, nil
	}
	return bleve.NewConjunctionQuery(conjuncts...), literals, nil
}

// isASCIIWord reports whether the word is ASCII letters, digits and
// underscores only. Such words match substring-style without the
// analyzer.
func isASCIIWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// fileNameQuery matches word case-insensitively as a substring of the
// file name, boosted above body matches.
func (e *Engine) fileNameQuery(word string) query.Query {
	wq := bleve.NewWildcardQuery("*" + strings.ToLower(word) + "*")
	wq.SetField(store.FieldName)
	wq.SetBoost(e.opts.FileNameBoost)
	return wq
}

// termSubstringQuery matches word as a substring of an indexed term.
func termSubstringQuery(word string) query.Query {
	wq := bleve.NewWildcardQuery("*" + strings.ToLower(word) + "*")
	wq.SetField(store.FieldTerms)
	return wq
}

// substringQuery matches word as a substring of an indexed term or,
// boosted, of the file name.
func (e *Engine) substringQuery(word string) query.Query {
	return bleve.NewDisjunctionQuery(termSubstringQuery(word), e.fileNameQuery(word))
}

// exactPhraseQuery requires the analyzed terms in order at adjacent
// positions. Bleve's phrase search exposes no slop parameter, so ordered
// adjacency is the strictest phrase semantic available.
func exactPhraseQuery(terms []string) query.Query {
	if len(terms) == 1 {
		return termSubstringQuery(terms[0])
	}
	pq := bleve.NewMatchPhraseQuery(strings.Join(terms, " "))
	pq.SetField(store.FieldTerms)
	return pq
}

// fileTypeFilter builds an OR over normalized extensions, nil when the
// query does not restrict file types.
func fileTypeFilter(fileTypes []string) query.Query {
	if len(fileTypes) == 0 {
		return nil
	}
	disjuncts := make([]query.Query, 0, len(fileTypes))
	for _, ft := range fileTypes {
		ft = strings.ToLower(strings.TrimSpace(ft))
		if ft == "" {
			continue
		}
		if !strings.HasPrefix(ft, ".") {
			ft = "." + ft
		}
		tq := bleve.NewTermQuery(ft)
		tq.SetField(store.FieldExt)
		disjuncts = append(disjuncts, tq)
	}
	if len(disjuncts) == 0 {
		return nil
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

// buildResults shapes Bleve hits for display, returning the stored
// contents alongside for highlighting.
func (e *Engine) buildResults(res *bleve.SearchResult) ([]Result, []string) {
	results := make([]Result, 0, len(res.Hits))
	contents := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{
			Path:  hit.ID,
			Score: hit.Score,
		}
		if v, ok := hit.Fields[store.FieldName].(string); ok {
			r.Name = v
		}
		if v, ok := hit.Fields[store.FieldFolder].(string); ok {
			r.Folder = v
		}
		if v, ok := hit.Fields[store.FieldExt].(string); ok {
			r.Ext = v
		}
		if v, ok := hit.Fields[store.FieldSize].(float64); ok {
			r.Size = int64(v)
		}
		if v, ok := hit.Fields[store.FieldModified].(string); ok {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				r.ModTime = ts
			}
		}

		for field, locations := range hit.Locations {
			if field != store.FieldTerms {
				continue
			}
			for term := range locations {
				r.MatchedTerms = append(r.MatchedTerms, term)
			}
		}

		content, _ := hit.Fields[store.FieldContent].(string)
		results = append(results, r)
		contents = append(contents, content)
	}
	return results, contents
}

// attachFragments cuts display fragments for each hit. The page's
// contents go through the analyzer in one batch, so fragment spans come
// from the same segmentation that produced the indexed terms. Documents
// over the highlight cap, and the whole page if the analyzer fails,
// fall back to literal occurrence scanning.
func (e *Engine) attachFragments(ctx context.Context, results []Result, contents []string, literals []string) {
	var batchIdx []int
	var batchTexts []string
	for i, content := range contents {
		if content == "" || len(content) > e.opts.HighlightDocBytes {
			continue
		}
		batchIdx = append(batchIdx, i)
		batchTexts = append(batchTexts, content)
	}

	tokenLists := make(map[int][]string, len(batchIdx))
	if len(batchTexts) > 0 {
		lists, err := e.analyzer.TokenizeBatch(ctx, batchTexts)
		if err != nil {
			slog.Debug("highlight_tokenize_failed", slog.String("error", err.Error()))
		} else {
			for n, i := range batchIdx {
				tokenLists[i] = lists[n]
			}
		}
	}

	for i := range results {
		content := contents[i]
		if content == "" {
			continue
		}

		needles := append([]string{}, literals...)
		needles = append(needles, results[i].MatchedTerms...)

		var spans []highlight.Span
		if tokens, ok := tokenLists[i]; ok {
			spans = highlight.AlignTokens(content, matchingTokens(tokens, needles))
		}
		if len(spans) == 0 {
			spans = highlight.FindOccurrences(content, needles)
		}
		results[i].Fragments = highlight.Fragments(content, spans,
			e.opts.FragmentRunes, e.opts.MaxFragments)
	}
}

// matchingTokens keeps the tokens that contain a query needle or appear
// inside one, case-insensitively, preserving document order.
func matchingTokens(tokens, needles []string) []string {
	lowered := make([]string, 0, len(needles))
	for _, n := range needles {
		if n = strings.ToLower(n); n != "" {
			lowered = append(lowered, n)
		}
	}

	var out []string
	for _, tok := range tokens {
		lt := strings.ToLower(tok)
		if lt == "" {
			continue
		}
		for _, n := range lowered {
			if strings.Contains(lt, n) || strings.Contains(n, lt) {
				out = append(out, tok)
				break
			}
		}
	}
	return out
}
