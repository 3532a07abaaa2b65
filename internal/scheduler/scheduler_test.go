package scheduler

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"CryptoBreadth/internal/breadth"
	"CryptoBreadth/internal/collector"
	"CryptoBreadth/internal/config"
	"CryptoBreadth/internal/model"
	"CryptoBreadth/internal/recorder"
)

func steadySeries(n int, v, last float64) []model.Kline {
	klines := make([]model.Kline, n)
	base := time.Now().UTC().AddDate(0, 0, -n)
	for i := 0; i < n; i++ {
		klines[i] = model.Kline{OpenTime: base.AddDate(0, 0, i), Close: v}
	}
	klines[n-1].Close = last
	return klines
}

func testScheduler(t *testing.T, fetcher collector.Fetcher, symbols []string) (*Scheduler, *recorder.CSVRecorder) {
	t.Helper()
	cfg, err := config.Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Universe.Symbols = symbols
	cfg.Windows = []int{75, 200}
	cfg.MAType = "sma"

	eng, err := breadth.NewEngine(cfg.Windows, cfg.MAType)
	if err != nil {
		t.Fatal(err)
	}
	csvRec, err := recorder.NewCSVRecorder(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	col := collector.NewCollector(fetcher, 2)
	return NewScheduler(context.Background(), cfg, col, eng, csvRec, recorder.NewNoopRecorder(), nil), csvRec
}

func TestRunOnce_WritesBothWindowFiles(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Series: map[string][]model.Kline{
			"A": steadySeries(210, 100, 150),
			"B": steadySeries(210, 100, 50),
			"C": steadySeries(210, 100, 150),
			"D": steadySeries(210, 100, 50),
		},
	}
	s, csvRec := testScheduler(t, fetcher, []string{"A", "B", "C", "D"})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	for _, w := range []int{75, 200} {
		data, err := os.ReadFile(csvRec.Path(w))
		if err != nil {
			t.Fatalf("window %d output missing: %v", w, err)
		}
		if !strings.Contains(string(data), today+",50.0") {
			t.Errorf("window %d: expected %s,50.0 in:\n%s", w, today, data)
		}
	}
}

func TestRunOnce_RerunSameDayIsIdempotent(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Series: map[string][]model.Kline{
			"A": steadySeries(210, 100, 150),
			"B": steadySeries(210, 100, 50),
		},
	}
	s, csvRec := testScheduler(t, fetcher, []string{"A", "B"})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(csvRec.Path(75))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected header + 1 row after re-run, got %d lines:\n%s", len(lines), data)
	}
}

func TestRunOnce_FailedSymbolExcluded(t *testing.T) {
	// B fails to fetch; breadth is computed over {A, C, D}.
	fetcher := &collector.MockFetcher{
		Series: map[string][]model.Kline{
			"A": steadySeries(210, 100, 150),
			"C": steadySeries(210, 100, 150),
			"D": steadySeries(210, 100, 150),
		},
		Errs: map[string]error{"B": errors.New("connection reset")},
	}
	s, csvRec := testScheduler(t, fetcher, []string{"A", "B", "C", "D"})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run should tolerate a single failed symbol: %v", err)
	}
	data, err := os.ReadFile(csvRec.Path(75))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), ",100.0") {
		t.Errorf("expected breadth 100.0 over the three surviving symbols:\n%s", data)
	}
}

func TestRunOnce_AllSymbolsFailedIsFetchError(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Errs: map[string]error{
			"A": errors.New("down"),
			"B": errors.New("down"),
		},
	}
	s, csvRec := testScheduler(t, fetcher, []string{"A", "B"})

	err := s.RunOnce(context.Background())
	if !errors.Is(err, breadth.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	// No partial output on an aborted run.
	if _, statErr := os.Stat(csvRec.Path(75)); !os.IsNotExist(statErr) {
		t.Error("expected no output file after failed run")
	}
}

func TestRunOnce_DiscoveredUniverse(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Series: map[string][]model.Kline{
			"BTCUSDT": steadySeries(210, 100, 150),
			"ETHUSDT": steadySeries(210, 100, 50),
		},
		Info: []model.SymbolInfo{
			{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Status: "TRADING", SpotTradingAllowed: true},
			{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", Status: "TRADING", SpotTradingAllowed: true},
			{Symbol: "USDCUSDT", BaseAsset: "USDC", QuoteAsset: "USDT", Status: "TRADING", SpotTradingAllowed: true},
		},
	}
	s, csvRec := testScheduler(t, fetcher, nil)
	s.Cfg.Universe.Discover = true

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	data, err := os.ReadFile(csvRec.Path(75))
	if err != nil {
		t.Fatal(err)
	}
	// USDCUSDT is a stablecoin base and must not enter the universe.
	if !strings.Contains(string(data), ",50.0") {
		t.Errorf("expected breadth 50.0 over the two discovered symbols:\n%s", data)
	}
}

func TestRegister_BadCronExpr(t *testing.T) {
	s, _ := testScheduler(t, &collector.MockFetcher{}, []string{"A"})
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.Register("0 0 6 * * *"); err != nil {
		t.Errorf("valid cron expression rejected: %v", err)
	}
}
