package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"CryptoBreadth/internal/model"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCSVUpsert_FirstRunWritesHeaderAndRow(t *testing.T) {
	r, err := NewCSVRecorder(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(75, model.BreadthPoint{Date: "2026-08-29", Pct: 50}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := readFile(t, r.Path(75))
	want := "date,breadth_pct\n2026-08-29,50.0\n"
	if got != want {
		t.Errorf("file contents %q, want %q", got, want)
	}
}

func TestCSVUpsert_SameDateReplacesRow(t *testing.T) {
	r, err := NewCSVRecorder(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(200, model.BreadthPoint{Date: "2026-08-29", Pct: 40}); err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(200, model.BreadthPoint{Date: "2026-08-29", Pct: 60}); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, r.Path(200))
	if strings.Count(got, "2026-08-29") != 1 {
		t.Errorf("expected a single row for the date, got:\n%s", got)
	}
	if !strings.Contains(got, "2026-08-29,60.0") {
		t.Errorf("expected replaced value 60.0, got:\n%s", got)
	}
}

func TestCSVUpsert_KeepsAscendingDateOrder(t *testing.T) {
	r, err := NewCSVRecorder(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// Insert out of order; the file must come out sorted.
	for _, p := range []model.BreadthPoint{
		{Date: "2026-08-28", Pct: 42.5},
		{Date: "2026-08-26", Pct: 33.3},
		{Date: "2026-08-27", Pct: 61.2},
	} {
		if err := r.Upsert(75, p); err != nil {
			t.Fatal(err)
		}
	}

	lines := strings.Split(strings.TrimSpace(readFile(t, r.Path(75))), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	dates := make([]string, 0, 3)
	for _, l := range lines[1:] {
		dates = append(dates, strings.SplitN(l, ",", 2)[0])
	}
	for i := 1; i < len(dates); i++ {
		if dates[i-1] >= dates[i] {
			t.Errorf("dates not strictly ascending: %v", dates)
		}
	}
}

func TestCSVUpsert_PreservesExistingHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BR75.csv")
	existing := "date,breadth_pct\n2026-08-27,10.0\n2026-08-28,20.0\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewCSVRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(75, model.BreadthPoint{Date: "2026-08-29", Pct: 30}); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, path)
	want := "date,breadth_pct\n2026-08-27,10.0\n2026-08-28,20.0\n2026-08-29,30.0\n"
	if got != want {
		t.Errorf("file contents %q, want %q", got, want)
	}
}

func TestCSVUpsert_MalformedExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BR75.csv")
	if err := os.WriteFile(path, []byte("date,breadth_pct\n2026-08-28,not-a-number\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewCSVRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(75, model.BreadthPoint{Date: "2026-08-29", Pct: 30}); err == nil {
		t.Error("expected error for malformed existing file")
	}
	// The malformed original must survive untouched.
	if got := readFile(t, path); !strings.Contains(got, "not-a-number") {
		t.Errorf("existing file was modified on failed upsert:\n%s", got)
	}
}

func TestSQLiteUpsert_ReplacesSameDateWindow(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "breadth.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := r.Upsert(75, model.BreadthPoint{Date: "2026-08-29", Pct: 40}); err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(75, model.BreadthPoint{Date: "2026-08-29", Pct: 55}); err != nil {
		t.Fatal(err)
	}
	if err := r.Upsert(200, model.BreadthPoint{Date: "2026-08-29", Pct: 20}); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM breadth_history`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows (one per window), got %d", count)
	}
	var pct float64
	if err := r.db.QueryRow(`SELECT pct FROM breadth_history WHERE date=? AND window=?`, "2026-08-29", 75).Scan(&pct); err != nil {
		t.Fatal(err)
	}
	if pct != 55 {
		t.Errorf("expected upserted pct 55, got %v", pct)
	}
}
