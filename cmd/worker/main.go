// Command worker loads reputation records into the configured store, either
// one record from flags or a batch from a CSV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rgdevment/urlinfo/internal/app"
	"github.com/rgdevment/urlinfo/internal/config"
	"github.com/rgdevment/urlinfo/internal/platform/logging"
)

func main() {
	domainFlag := flag.String("domain", "", "domain of the record, e.g. evil.com:8080")
	uriFlag := flag.String("uri", "", "uri of the record, starting with '/'")
	resultFlag := flag.String("result", "", "reputation verdict, e.g. BAD or OK")
	fileFlag := flag.String("file", "", "CSV file of domain,uri,result rows ('#' starts a comment)")
	flag.Parse()

	single := *domainFlag != "" || *uriFlag != "" || *resultFlag != ""
	if single == (*fileFlag != "") {
		fmt.Fprintln(os.Stderr, "usage: worker -domain evil.com -uri /x -result BAD | worker -file records.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	logger = logger.With().Str("component", "worker").Logger()

	rows := []row{{line: 0, domain: *domainFlag, uri: *uriFlag, result: *resultFlag}}
	if *fileFlag != "" {
		f, err := os.Open(*fileFlag)
		if err != nil {
			logger.Fatal().Err(err).Msg("open records file")
		}
		rows, err = readRows(f)
		f.Close()
		if err != nil {
			logger.Fatal().Err(err).Str("file", *fileFlag).Msg("parse records file")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := app.OpenStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}

	s := ingestRows(ctx, app.NewService(cfg, repo, logger), rows, logger)
	if err := repo.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing store")
	}

	logger.Info().
		Int("inserted", s.inserted).
		Int("duplicates", s.duplicates).
		Int("failed", s.failed).
		Msg("ingest finished")

	if s.failed > 0 {
		os.Exit(1)
	}
}
