package cmd

import (
	"fmt"
	"os"

	"sagasu/internal/config"
	"sagasu/internal/index"
	"sagasu/internal/search"
	"sagasu/internal/store"
	"sagasu/internal/tokenizer"
	"sagasu/internal/ui"
)

// env bundles the long-lived pieces most commands need.
type env struct {
	cfg     *config.Config
	index   *store.Index
	catalog *store.Catalog
	session *tokenizer.Session
}

// openEnv loads configuration and opens the index, catalog and analyzer
// session. Callers must close the returned env.
func openEnv() (*env, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}

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

	return &env{cfg: cfg, index: idx, catalog: cat, session: session}, nil
}

func (e *env) close() {
	_ = e.session.Close()
	_ = e.catalog.Close()
	_ = e.index.Close()
}

func (e *env) manager() *index.Manager {
	return index.NewManager(e.cfg, e.index, e.catalog, e.session)
}

func (e *env) engine() *search.Engine {
	return search.NewEngine(e.index, e.session, search.OptionsFromConfig(e.cfg.Search))
}

// requireFolders fails early when no folders are configured.
func (e *env) requireFolders() error {
	if len(e.cfg.Folders) == 0 {
		return fmt.Errorf("no folders configured. Add folders to .sagasu.yaml or run 'sagasu init'")
	}
	return nil
}

// stdoutIsTerminal reports whether stdout is attached to a TTY.
func stdoutIsTerminal() bool {
	return ui.IsTerminal(os.Stdout)
}
