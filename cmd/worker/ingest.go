package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/rgdevment/urlinfo/internal/service"
)

type row struct {
	line   int
	domain string
	uri    string
	result string
}

// readRows parses "domain,uri,result" lines. Lines starting with '#' are skipped.
func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row{
			line:   line,
			domain: strings.TrimSpace(rec[0]),
			uri:    strings.TrimSpace(rec[1]),
			result: strings.TrimSpace(rec[2]),
		})
	}
}

type summary struct {
	inserted   int
	duplicates int
	failed     int
}

// ingestRows feeds every row to the engine and keeps going on failure.
// A row that is already present is reported but not counted as a failure.
func ingestRows(ctx context.Context, svc service.Service, rows []row, logger zerolog.Logger) summary {
	var s summary
	for _, r := range rows {
		rec, err := svc.Ingest(ctx, r.domain, r.uri, r.result)
		switch {
		case err == nil:
			s.inserted++
			logger.Info().Int("line", r.line).Str("url", rec.URL()).Str("result", rec.Result).Msg("inserted")
		case errors.Is(err, domain.ErrDuplicateRecord):
			s.duplicates++
			logger.Warn().Int("line", r.line).Str("domain", r.domain).Str("uri", r.uri).Msg("already present, skipped")
		default:
			s.failed++
			logger.Error().Err(err).Int("line", r.line).Str("domain", r.domain).Str("uri", r.uri).Msg("ingest failed")
		}
	}
	return s
}
