package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/citegraph/citegraph/internal/citetree"
	"github.com/citegraph/citegraph/internal/config"
	"github.com/citegraph/citegraph/internal/scholar"
	"github.com/citegraph/citegraph/internal/store"
)

// mustFindWorkspace returns the workspace root, or exits if not in one.
func mustFindWorkspace() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	if root := os.Getenv("CITEGRAPH_ROOT"); root != "" {
		cwd = root
	}

	root, err := config.FindWorkspace(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return root
}

// openWorkspace loads config and opens the paper database, exiting on
// failure. The caller owns closing the database.
func openWorkspace() (*config.Config, *store.DB) {
	root := mustFindWorkspace()

	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	db, err := store.Open(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening paper database: %v", err)
	}

	return cfg, db
}

// newClient builds the API client from configuration.
func newClient(cfg *config.Config) *scholar.Client {
	opts := []scholar.ClientOption{
		scholar.WithWindow(cfg.RateLimit, cfg.RateWindow),
	}
	if key := cfg.ResolveAPIKey(); key != "" {
		opts = append(opts, scholar.WithAPIKey(key))
	}
	if cfg.APIBaseURL != "" {
		opts = append(opts, scholar.WithBaseURL(cfg.APIBaseURL))
	}
	return scholar.NewClient(opts...)
}

// newBuilder builds the tree builder from configuration.
func newBuilder(db *store.DB, client *scholar.Client, cfg *config.Config, withProgress bool) *citetree.Builder {
	opts := []citetree.BuilderOption{
		citetree.WithFetchDelay(cfg.FetchDelay),
	}
	if withProgress {
		opts = append(opts, citetree.WithObserver(
			citetree.LogObserver(logrus.WithField("component", "tree"))))
	}
	return citetree.NewBuilder(db, client, opts...)
}
