package outwriter

import (
	"os"

	"github.com/huangsam/acfperiod/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for series names in table output
// based on terminal width and table configuration.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Period + Naive + Fit + StdErr + Peak + Label with borders/padding
	baseWidth := 20 + 6*(cfg.Precision+6)

	if cfg.Detail {
		baseWidth += 50 // Cadence + Points + Resampled + Maxima + Source
	}

	baseWidth += 10

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
