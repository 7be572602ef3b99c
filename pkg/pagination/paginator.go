package pagination

import (
	"context"
	"time"

	"github.com/Sternrassler/openbrewery-elt/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds paginator configuration.
type Config struct {
	// RequestsPerSecond limits page calls (0 = unlimited)
	RequestsPerSecond float64

	// MaxPages stops after this many non-empty pages (0 = unbounded)
	MaxPages int

	// Logger defaults to a "paginator" component logger
	Logger *zerolog.Logger
}

// DefaultConfig returns an unthrottled, unbounded configuration.
func DefaultConfig() Config {
	return Config{}
}

// Paginator fetches every page of a collection.
type Paginator struct {
	source   PageSource
	limiter  *rate.Limiter
	maxPages int
	logger   zerolog.Logger
}

// New creates a paginator over source.
func New(source PageSource, cfg Config) *Paginator {
	logger := logging.NewLogger("paginator")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	maxPages := cfg.MaxPages
	if maxPages < 0 {
		maxPages = 0
	}

	return &Paginator{
		source:   source,
		limiter:  limiter,
		maxPages: maxPages,
		logger:   logger,
	}
}

// FetchAll requests pages 1..k+1 of pageSize records each and returns the
// concatenation of pages 1..k, where page k+1 is the first empty page.
//
// FetchAll never fails. If page j errors, the records of pages 1..j-1 are
// returned and the error is logged. Cancelling ctx behaves the same way.
func (p *Paginator) FetchAll(ctx context.Context, pageSize int) []map[string]any {
	start := time.Now()
	var all []map[string]any

	for page := 1; ; page++ {
		if p.maxPages > 0 && page > p.maxPages {
			p.logger.Warn().
				Int("max_pages", p.maxPages).
				Int("records", len(all)).
				Msg("Page limit reached - stopping")
			break
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				p.logger.Warn().Err(err).Int("page", page).Msg("Pagination interrupted - returning partial results")
				break
			}
		}

		records, err := p.source.FetchPage(ctx, page, pageSize)
		if err != nil {
			pageErrorsTotal.Inc()
			p.logger.Warn().
				Err(err).
				Int("page", page).
				Int("records", len(all)).
				Msg("Page fetch failed - returning partial results")
			break
		}

		if len(records) == 0 {
			p.logger.Debug().Int("page", page).Msg("Empty page - end of data")
			break
		}

		pagesFetchedTotal.Inc()
		recordsFetchedTotal.Add(float64(len(records)))
		all = append(all, records...)

		p.logger.Debug().
			Int("page", page).
			Int("page_records", len(records)).
			Int("records", len(all)).
			Msg("Page fetched")
	}

	p.logger.Info().
		Int("records", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all
}
