// Package sagasu is the embeddable API for the sagasu search engine.
//
// It wires the index store, catalog, analyzer session, index manager
// and query engine behind one handle, so other Go programs can index
// folders and search them without going through the CLI.
//
// # Usage
//
//	cfg := config.NewConfig()
//	cfg.Folders = []string{"/home/me/docs"}
//
//	client, err := sagasu.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if _, err := client.Rebuild(ctx, nil); err != nil {
//	    return err
//	}
//	results, err := client.Search(ctx, search.Query{Text: "東京 観光"})
//
// A Client is safe for concurrent searches. Rebuild, Update and
// Optimize take a file lock, so only one indexing operation runs at a
// time across processes.
package sagasu

import (
	"context"

	"sagasu/internal/config"
	"sagasu/internal/index"
	"sagasu/internal/search"
	"sagasu/internal/store"
	"sagasu/internal/tokenizer"
)

// Client is one open sagasu instance.
type Client struct {
	cfg     *config.Config
	index   *store.Index
	catalog *store.Catalog
	session *tokenizer.Session
	manager *index.Manager
	engine  *search.Engine
}

// Open opens or creates the index described by cfg. The configuration
// must already be validated; config.Load returns validated configs.
func Open(cfg *config.Config) (*Client, error) {
	idx, err := store.Open(cfg.IndexPath())
	if err != nil {
		return nil, err
	}

	cat, err := store.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	session := tokenizer.NewSession(tokenizer.Config{
		Command:        cfg.Tokenizer.Command,
		MaxTermBytes:   cfg.Tokenizer.MaxTermBytes,
		MaxDocRunes:    cfg.Tokenizer.MaxDocChars,
		OneShotTimeout: cfg.TokenizerTimeout(),
	})

	return &Client{
		cfg:     cfg,
		index:   idx,
		catalog: cat,
		session: session,
		manager: index.NewManager(cfg, idx, cat, session),
		engine:  search.NewEngine(idx, session, search.OptionsFromConfig(cfg.Search)),
	}, nil
}

// Rebuild discards the index and re-indexes every configured folder.
func (c *Client) Rebuild(ctx context.Context, progress index.ProgressFunc) (*index.Stats, error) {
	return c.manager.RebuildAll(ctx, progress)
}

// Update folds file changes since the last run into the index.
func (c *Client) Update(ctx context.Context, progress index.ProgressFunc) (*index.Stats, error) {
	return c.manager.UpdateIncremental(ctx, progress)
}

// Search runs one query against the index.
func (c *Client) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return c.engine.Search(ctx, q)
}

// Status reports document counts and index location.
func (c *Client) Status(ctx context.Context) (*index.Status, error) {
	return c.manager.Status(ctx)
}

// Optimize compacts the index into fewer segments.
func (c *Client) Optimize(ctx context.Context) error {
	return c.manager.Optimize(ctx)
}

// Close releases the analyzer process, catalog and index.
func (c *Client) Close() error {
	errSession := c.session.Close()
	errCatalog := c.catalog.Close()
	errIndex := c.index.Close()

	if errSession != nil {
		return errSession
	}
	if errCatalog != nil {
		return errCatalog
	}
	return errIndex
}
