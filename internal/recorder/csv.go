package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"CryptoBreadth/internal/model"
)

// CSVRecorder persists one CSV file per window length under Dir,
// named BR<window>.csv with columns date,breadth_pct ascending by
// date. Files are rewritten via a temp file and rename so a crash
// mid-write cannot corrupt existing history.
type CSVRecorder struct {
	Dir string
}

// NewCSVRecorder creates the output directory if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVRecorder{Dir: dir}, nil
}

// Path returns the output file for a window length.
func (r *CSVRecorder) Path(window int) string {
	return filepath.Join(r.Dir, fmt.Sprintf("BR%d.csv", window))
}

func (r *CSVRecorder) Upsert(window int, point model.BreadthPoint) error {
	path := r.Path(window)
	points, err := readPoints(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	replaced := false
	for i := range points {
		if points[i].Date == point.Date {
			points[i] = point
			replaced = true
			break
		}
	}
	if !replaced {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	if err := writePoints(r.Dir, path, points); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *CSVRecorder) Close() error { return nil }

// readPoints loads an existing series; a missing file is an empty one.
func readPoints(path string) ([]model.BreadthPoint, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	var points []model.BreadthPoint
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "date" {
			continue // header
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("row %d: expected 2 columns, got %d", i+1, len(rec))
		}
		pct, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse breadth value: %w", i+1, err)
		}
		points = append(points, model.BreadthPoint{Date: rec[0], Pct: pct})
	}
	return points, nil
}

// writePoints writes the full series to a temp file in the same
// directory, syncs it, then renames it over the target.
func writePoints(dir, path string, points []model.BreadthPoint) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"date", "breadth_pct"}); err != nil {
		tmp.Close()
		return err
	}
	for _, p := range points {
		if err := w.Write([]string{p.Date, strconv.FormatFloat(p.Pct, 'f', 1, 64)}); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
