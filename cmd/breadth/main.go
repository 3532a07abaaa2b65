package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"CryptoBreadth/internal/breadth"
	"CryptoBreadth/internal/collector"
	"CryptoBreadth/internal/config"
	"CryptoBreadth/internal/notifier"
	"CryptoBreadth/internal/recorder"
	"CryptoBreadth/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CryptoBreadth starting...")

	daemon := flag.Bool("daemon", false, "keep running and compute breadth on the daily cron schedule")
	flag.Parse()

	// .env is optional; real deployments inject env directly.
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher and collector
	fetcher := collector.NewBinanceFetcher(cfg.DataSource.BaseURLs, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.DataSource.Concurrency)

	// Init breadth engine
	eng, err := breadth.NewEngine(cfg.Windows, cfg.MAType)
	if err != nil {
		log.Fatalf("[FATAL] init engine: %v", err)
	}

	// Init recorders: CSV is the contract output, SQLite is an
	// optional mirror that degrades to noop.
	csvRec, err := recorder.NewCSVRecorder(cfg.Output.Dir)
	if err != nil {
		log.Fatalf("[FATAL] init csv recorder: %v", err)
	}
	var mirror recorder.Recorder
	if cfg.Output.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Output.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			mirror = recorder.NewNoopRecorder()
		} else {
			mirror = sr
			defer sr.Close()
		}
	} else {
		mirror = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier (nil when unconfigured)
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, cfg, col, eng, csvRec, mirror, tn)

	if !*daemon {
		if err := sched.RunOnce(ctx); err != nil {
			log.Fatalf("[FATAL] breadth run: %v", err)
		}
		log.Println("[INFO] breadth run complete")
		return
	}

	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing breadth run now")
		go func() {
			if err := sched.RunOnce(ctx); err != nil {
				log.Printf("[ERROR] startup breadth run: %v", err)
			}
		}()
	}

	log.Println("[INFO] CryptoBreadth is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] CryptoBreadth stopped")
}
