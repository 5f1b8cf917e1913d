package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressReporter renders batch progress with a progress bar.
type progressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// newProgressReporter creates a reporter; quiet silences everything.
func newProgressReporter(quiet bool) *progressReporter {
	return &progressReporter{quiet: quiet}
}

func (p *progressReporter) OnDiscoveryComplete(totalFiles int) {
	if p.quiet {
		return
	}
	p.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Checking files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressReporter) OnFileProcessed(processed, totalFiles int, path string) {
	if p.quiet || p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *progressReporter) OnComplete(duration time.Duration) {
	if p.quiet {
		return
	}
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	fmt.Printf("Done in %s\n", duration.Round(time.Millisecond))
}
