package outwriter

import (
	"fmt"

	"github.com/huangsam/acfperiod/internal/contract"
)

// LogFindHeader prints a concise, 2-line header for a period search.
func LogFindHeader(cfg *contract.Config) {
	files := "no files"
	switch n := len(cfg.Files); n {
	case 0:
	case 1:
		files = cfg.Files[0]
	default:
		files = fmt.Sprintf("%d files", n)
	}

	smoothing := string(cfg.SmoothingStrategy)
	if cfg.SmoothingEnabled() {
		smoothing = fmt.Sprintf("%s/%d", cfg.SmoothingStrategy, cfg.SmoothingWindowSize)
	}
	maxLags := "all"
	if cfg.MaxLags > 0 {
		maxLags = fmt.Sprint(cfg.MaxLags)
	}

	// Line 1: what is analyzed
	// Line 2: how it is analyzed
	line1 := fmt.Sprintf("Input: %s (format: %s)", files, cfg.InputFormat)
	line2 := fmt.Sprintf("ACF: %s, lags %s, peaks %d, smoothing %s",
		cfg.Estimator, maxLags, cfg.PeakCount, smoothing)

	if cfg.UseEmojis {
		fmt.Printf("🔭 %s\n📈 %s\n", line1, line2)
		return
	}
	fmt.Println(line1)
	fmt.Println(line2)
}
