// Package app wires the fetch → tokenize → layout → reconstruct pipeline
// into a sequential page walk and persists the accumulated batch.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/playlog/internal/fetch"
	"github.com/hyperifyio/playlog/internal/layout"
	"github.com/hyperifyio/playlog/internal/reconstruct"
	"github.com/hyperifyio/playlog/internal/store"
	"github.com/hyperifyio/playlog/internal/tokenize"
)

// ErrNoRecordsFirstPage is returned when the very first page of a run yields
// zero records: the source has almost certainly changed shape or become
// unreachable. On later pages the same condition just means end of data.
var ErrNoRecordsFirstPage = errors.New("no records parsed on first page")

// Fetcher abstracts page retrieval for tests.
type Fetcher interface {
	Get(ctx context.Context, page, daysAgo int) ([]byte, error)
}

type App struct {
	cfg     Config
	fetcher Fetcher

	// now is stubbed in tests.
	now func() time.Time
}

func New(cfg Config) *App {
	return &App{
		cfg: cfg,
		fetcher: &fetch.Client{
			BaseURL:            cfg.BaseURL,
			UserAgent:          cfg.UserAgent,
			AcceptLanguage:     cfg.AcceptLanguage,
			MaxAttempts:        cfg.MaxAttempts,
			PerRequestTimeout:  cfg.RequestTimeout,
			RetryDelay:         cfg.RetryDelay,
			InsecureSkipVerify: cfg.Insecure,
		},
		now: time.Now,
	}
}

// Run harvests all pages for the configured day and writes the output file,
// merging with its previous contents first when append-dedupe is on.
func (a *App) Run(ctx context.Context) error {
	records, err := a.Harvest(ctx)
	if err != nil {
		return err
	}

	if a.cfg.AppendDedupe {
		old, err := store.ReadCSV(a.cfg.OutputPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read existing output: %w", err)
		}
		before := len(records)
		records = store.MergeDedupe(old, records)
		log.Debug().Int("existing", len(old)).Int("new", before).Int("merged", len(records)).Msg("merged with existing output")
	}

	if err := store.WriteCSV(a.cfg.OutputPath, records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Int("rows", len(records)).Msg("wrote output")
	return nil
}

// Harvest walks pages 1..MaxPages sequentially, reconstructing each page's
// records, and stops at the first signal that the data has run out: a page
// with zero records, or one with fewer than MinPageRecords (shrinking pages
// precede the last one; there is no explicit last-page marker). A politeness
// delay separates page fetches.
func (a *App) Harvest(ctx context.Context) ([]reconstruct.Record, error) {
	ref := a.now().AddDate(0, 0, -a.cfg.DaysAgo)
	minRecords := a.cfg.MinPageRecords
	if minRecords <= 0 {
		minRecords = DefaultMinPageRecords
	}

	var all []reconstruct.Record
	for page := 1; page <= a.cfg.MaxPages; page++ {
		content, err := a.fetcher.Get(ctx, page, a.cfg.DaysAgo)
		if err != nil {
			return nil, err
		}
		a.dumpLastPage(content)

		tokens := tokenize.Tokens(content)
		variant, start, err := layout.Detect(tokens)
		if err != nil {
			a.dumpFailure(page, content, tokens)
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		batch := reconstruct.Scan(tokens[start:], variant, ref)
		log.Debug().Int("page", page).Stringer("layout", variant).Int("records", len(batch)).Msg("parsed page")

		if len(batch) == 0 {
			if page == 1 {
				a.dumpFailure(page, content, tokens)
				return nil, ErrNoRecordsFirstPage
			}
			break
		}

		retrievedAt := a.now().Format("2006-01-02T15:04:05")
		for i := range batch {
			batch[i].Page = page
			batch[i].DaysAgo = a.cfg.DaysAgo
			batch[i].RetrievedAt = retrievedAt
		}
		all = append(all, batch...)

		if len(batch) < minRecords {
			log.Debug().Int("page", page).Int("records", len(batch)).Msg("short page, assuming last")
			break
		}
		if page < a.cfg.MaxPages {
			select {
			case <-time.After(a.cfg.PageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return all, nil
}
