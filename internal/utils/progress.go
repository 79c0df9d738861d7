package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// DescChecking labels the per-year progress bar of a run
const DescChecking = "Checking years"

// NewProgressBar creates a consistently styled progress bar on w.
//
// Parameters:
//   - total: Total number of items. Use -1 for unknown totals (indeterminate/spinner mode).
//   - description: Text description to show before the progress bar (e.g., DescChecking).
//
// Example:
//
//	bar := utils.NewProgressBar(os.Stderr, end-start+1, utils.DescChecking)
//	defer bar.Finish()
//
//	for year := start; year <= end; year++ {
//	    // Process year
//	    bar.Add(1)
//	}
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	if total < 0 {
		// Unknown total: use spinner mode
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts, progressbar.OptionShowIts())
	}

	return progressbar.NewOptions(total, opts...)
}
