package exchange

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cardash/pkg/models"
)

// ErrRateLimited is returned when refreshes arrive faster than allowed.
var ErrRateLimited = errors.New("rate refresh limited")

// Fetcher is satisfied by Aggregator.
type Fetcher interface {
	Fetch(ctx context.Context, base, quote string) (float64, string, error)
}

// TrackerOpts configures a Tracker.
type TrackerOpts struct {
	Base  string
	Quote string
	// Default is reported until the first successful fetch or restore.
	Default float64
	// MinRefreshGap bounds how often upstream providers are called.
	MinRefreshGap time.Duration
}

// Tracker holds the last good rate for one currency pair.
type Tracker struct {
	opts    TrackerOpts
	fetcher Fetcher
	repo    *Repo
	limiter *rate.Limiter
	logger  *log.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current models.Rate

	// OnUpdate, when set, is called after every successful refresh.
	OnUpdate func(models.Rate)
}

// NewTracker creates a Tracker; repo may be nil to skip persistence.
func NewTracker(opts TrackerOpts, fetcher Fetcher, repo *Repo, logger *log.Logger) *Tracker {
	if opts.Base == "" {
		opts.Base = "USD"
	}
	if opts.Quote == "" {
		opts.Quote = "NGN"
	}
	if !(opts.Default > 0) {
		opts.Default = 1
	}
	if opts.MinRefreshGap <= 0 {
		opts.MinRefreshGap = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{
		opts:    opts,
		fetcher: fetcher,
		repo:    repo,
		limiter: rate.NewLimiter(rate.Every(opts.MinRefreshGap), 1),
		logger:  logger,
		now:     time.Now,
		current: models.Rate{
			Base:   opts.Base,
			Quote:  opts.Quote,
			Value:  opts.Default,
			Source: "default",
		},
	}
}

// Current returns the last good rate.
func (t *Tracker) Current() models.Rate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Restore seeds the current rate from the newest persisted value, if any.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}
	latest, err := t.repo.Latest(ctx, t.opts.Base, t.opts.Quote)
	if err != nil {
		return err
	}
	if latest == nil || !(latest.Value > 0) {
		return nil
	}
	t.mu.Lock()
	t.current = *latest
	t.mu.Unlock()
	t.logger.Printf("[exchange] restored %s/%s = %.4f from %s", latest.Base, latest.Quote, latest.Value, latest.FetchedAt.Format(time.RFC3339))
	return nil
}

// Refresh fetches a new rate. On failure the previous rate is kept.
func (t *Tracker) Refresh(ctx context.Context) (models.Rate, error) {
	if !t.limiter.Allow() {
		return t.Current(), ErrRateLimited
	}

	v, source, err := t.fetcher.Fetch(ctx, t.opts.Base, t.opts.Quote)
	if err != nil {
		return t.Current(), fmt.Errorf("refresh %s/%s: %w", t.opts.Base, t.opts.Quote, err)
	}

	next := models.Rate{
		Base:      t.opts.Base,
		Quote:     t.opts.Quote,
		Value:     v,
		Source:    source,
		FetchedAt: t.now().UTC(),
	}
	t.mu.Lock()
	t.current = next
	t.mu.Unlock()

	if t.repo != nil {
		if err := t.repo.Insert(ctx, next); err != nil {
			t.logger.Printf("[exchange] persist rate failed: %v", err)
		}
	}
	if t.OnUpdate != nil {
		t.OnUpdate(next)
	}
	return next, nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t.refreshLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refreshLogged(ctx)
		}
	}
}

func (t *Tracker) refreshLogged(ctx context.Context) {
	r, err := t.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.logger.Printf("[exchange] %v", err)
		}
		return
	}
	t.logger.Printf("[exchange] 1 %s = %.2f %s (%s)", r.Base, r.Value, r.Quote, r.Source)
}
