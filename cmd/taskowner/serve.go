package main

import (
	"github.com/spf13/cobra"

	"github.com/amonks/taskowner/api"
	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/ownership"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, e.g. 0.0.0.0:8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(cmd.Context()); err != nil {
		logger.Warnw("database not reachable yet", "error", err)
	}

	server, err := api.NewServer(api.ServerOptions{
		Service: api.NewService(db, ownership.Options{Threshold: cfg.Ownership.Threshold}),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.Addr()
	if !internalstrings.IsBlank(serveAddr) {
		addr = serveAddr
	}
	return server.Serve(addr)
}
