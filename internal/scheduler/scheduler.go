package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"CryptoBreadth/internal/breadth"
	"CryptoBreadth/internal/collector"
	"CryptoBreadth/internal/config"
	"CryptoBreadth/internal/notifier"
	"CryptoBreadth/internal/recorder"

	"github.com/robfig/cron/v3"
)

// historyMargin is fetched on top of the largest window so EMA seeds
// have some warm-up beyond the bare minimum.
const historyMargin = 10

// Scheduler runs the breadth pipeline, once or on a daily cron.
type Scheduler struct {
	Cron      *cron.Cron
	Cfg       *config.Config
	Collector *collector.Collector
	Engine    *breadth.Engine
	Primary   recorder.Recorder // CSV output, failures are fatal
	Mirror    recorder.Recorder // history mirror, failures are logged
	Notifier  *notifier.TelegramNotifier
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, cfg *config.Config, col *collector.Collector, eng *breadth.Engine, primary, mirror recorder.Recorder, tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Cfg:       cfg,
		Collector: col,
		Engine:    eng,
		Primary:   primary,
		Mirror:    mirror,
		Notifier:  tn,
		Ctx:       ctx,
	}
}

// Register registers the daily breadth task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily breadth task")
	if err := s.RunOnce(s.Ctx); err != nil {
		log.Printf("[ERROR] daily breadth run: %v", err)
		s.trySend(notifier.FormatRunFailure(err))
	}
}

// RunOnce executes one full pipeline pass: resolve the universe,
// fetch history, compute breadth per window, persist, notify.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	symbols := s.Cfg.Universe.Symbols
	if s.Cfg.Universe.Discover {
		discovered, err := s.Collector.DiscoverUniverse(ctx, s.Cfg.Universe.Quote, s.Cfg.Universe.Stablecoins)
		if err != nil {
			return fmt.Errorf("%w: %v", breadth.ErrFetch, err)
		}
		symbols = discovered
		log.Printf("[INFO] discovered universe: %d symbols", len(symbols))
	}
	if len(symbols) == 0 {
		return fmt.Errorf("%w: empty asset universe", breadth.ErrConfig)
	}

	limit := s.Cfg.MaxWindow() + historyMargin
	series, err := s.Collector.Collect(ctx, symbols, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", breadth.ErrFetch, err)
	}
	log.Printf("[INFO] fetched %d/%d series", len(series), len(symbols))

	results, err := s.Engine.Compute(series, time.Now())
	if err != nil {
		return err
	}

	for _, r := range results {
		if err := s.Primary.Upsert(r.Window, r.Point); err != nil {
			return fmt.Errorf("%w: window %d: %v", breadth.ErrWrite, r.Window, err)
		}
		if err := s.Mirror.Upsert(r.Window, r.Point); err != nil {
			log.Printf("[WARN] mirror record window %d: %v", r.Window, err)
		}
		log.Printf("[INFO] window %d: %s breadth %.1f%% (%d/%d above)",
			r.Window, r.Point.Date, r.Point.Pct, r.Above, r.Eligible)
	}

	s.trySend(notifier.FormatRunReport(len(symbols), results))
	return nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
