package notifier

import (
	"fmt"
	"strings"

	"CryptoBreadth/internal/model"
)

// FormatRunReport renders a successful run summary.
func FormatRunReport(universeSize int, results []model.WindowResult) string {
	var b strings.Builder
	b.WriteString("📊 <b>Market Breadth</b>\n\n")
	if len(results) > 0 {
		fmt.Fprintf(&b, "Date: %s\n", results[0].Point.Date)
	}
	fmt.Fprintf(&b, "Universe: %d symbols\n\n", universeSize)
	for _, r := range results {
		fmt.Fprintf(&b, "MA%d: %.1f%% above (%d/%d", r.Window, r.Point.Pct, r.Above, r.Eligible)
		if len(r.Skipped) > 0 {
			fmt.Fprintf(&b, ", %d skipped", len(r.Skipped))
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// FormatRunFailure renders a failed run alert.
func FormatRunFailure(err error) string {
	return fmt.Sprintf("❌ <b>Breadth run failed</b>\n\n%v", err)
}
