package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amonks/taskowner/api"
	"github.com/amonks/taskowner/internal/config"
	"github.com/amonks/taskowner/internal/logging"
	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/ownership"
	"github.com/amonks/taskowner/store"
)

// Flags shared by the query commands.
var (
	queryAddr      string
	queryThreshold int
	queryJSON      bool
)

func addQueryFlags(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&queryAddr, "addr", "", "Query a running server at this address instead of the database")
		cmd.Flags().IntVar(&queryThreshold, "threshold", 0, "Minimum distinct permissions for ownership (default from config)")
		cmd.Flags().BoolVar(&queryJSON, "json", false, "Output as JSON")
	}
	addQueryFlagAliases(cmds...)
}

func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.Load(config.LoadOptions{
		Dir:        cwd,
		ConfigPath: configPath,
		EnvFile:    envFilePath,
	})
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, func() error, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

func openStore(cfg *config.Config, logger *zap.SugaredLogger) (*store.DB, error) {
	opts := cfg.StoreOptions()
	opts.Logger = logger
	return store.Open(opts)
}

// openQueries returns a client when --addr is set and a service over the
// configured database otherwise. The close function releases whatever
// was opened.
func openQueries(cmd *cobra.Command) (api.Queries, func(), error) {
	if !internalstrings.IsBlank(queryAddr) {
		if cmd.Flags().Changed("threshold") {
			return nil, nil, fmt.Errorf("--threshold cannot be combined with --addr; the server applies its own threshold")
		}
		return api.NewClient(queryAddr), func() {}, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	threshold := cfg.Ownership.Threshold
	if cmd.Flags().Changed("threshold") {
		if queryThreshold < 1 {
			return nil, nil, fmt.Errorf("--threshold must be at least 1")
		}
		threshold = queryThreshold
	}

	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := openStore(cfg, logger)
	if err != nil {
		_ = closeLogger()
		return nil, nil, err
	}
	service := api.NewService(db, ownership.Options{Threshold: threshold})
	return service, func() {
		_ = db.Close()
		_ = closeLogger()
	}, nil
}
