package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Terminal progress bar for checkpoint downloads.
// Shows: [=======>............]  42% | 120.5 MiB / 287.3 MiB | ETA 35s

const barWidth = 30

type progressBar struct {
	started time.Time
}

func newProgressBar() *progressBar {
	return &progressBar{started: time.Now()}
}

// callback matches the fetcher's progress signature.
func (p *progressBar) callback(status string, pct float64) {
	if !strings.HasPrefix(status, "downloading") {
		p.renderSimple(status, pct)
		return
	}
	p.renderBar(status, pct, time.Now())
}

func (p *progressBar) renderSimple(status string, pct float64) {
	clearLine()
	switch {
	case pct >= 100:
		fmt.Fprintf(os.Stderr, "[done] %s\n", status)
		p.started = time.Now() // next file starts a fresh ETA
	case strings.HasPrefix(status, "fetching"):
		fmt.Fprintf(os.Stderr, "[...] %s", status)
		p.started = time.Now()
	default:
		fmt.Fprintf(os.Stderr, "  %s", status)
	}
}

func (p *progressBar) renderBar(status string, pct float64, now time.Time) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	if filled == barWidth {
		bar = strings.Repeat("=", filled)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	} else {
		bar = strings.Repeat(".", barWidth)
	}

	clearLine()
	fmt.Fprintf(os.Stderr, "  %s %3.0f%% | %s | %s",
		bar, pct, extractSizeInfo(status), p.eta(pct, now))
}

func (p *progressBar) eta(pct float64, now time.Time) string {
	if pct <= 0 || pct >= 100 {
		return "ETA --"
	}

	elapsed := now.Sub(p.started).Seconds()
	if elapsed < 1 {
		return "ETA --"
	}

	totalEstimated := elapsed / (pct / 100)
	remaining := totalEstimated - elapsed
	if remaining < 0 {
		remaining = 0
	}

	if remaining < 60 {
		return fmt.Sprintf("ETA %ds", int(remaining))
	}
	if remaining < 3600 {
		return fmt.Sprintf("ETA %dm%ds", int(remaining)/60, int(remaining)%60)
	}
	return fmt.Sprintf("ETA %dh%dm", int(remaining)/3600, (int(remaining)%3600)/60)
}

func extractSizeInfo(status string) string {
	// "downloading 123.4 MiB / 456.7 MiB" → "123.4 MiB / 456.7 MiB"
	return strings.TrimPrefix(status, "downloading ")
}

func clearLine() {
	fmt.Fprintf(os.Stderr, "\r\033[K")
}
