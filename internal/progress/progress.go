package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing. A Tracker without a bar
// discards all updates, which is how --no-progress is honoured.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// Factory creates a tracker for a pipeline stage.
type Factory func(label string, total int) *Tracker

// NewTrackerTo creates a progress bar writing to w.
func NewTrackerTo(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, out: w}
}

// Discard returns a tracker that renders nothing. It satisfies Factory.
func Discard(label string, _ int) *Tracker {
	return &Tracker{label: label, out: io.Discard}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t.bar != nil {
		t.bar.Add(1)
	}
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	if t.bar != nil {
		t.bar.Finish()
		t.bar.Clear()
	}
}

// FinishError clears the bar and prints why the stage stopped.
func (t *Tracker) FinishError(err error) {
	if t.bar != nil {
		t.bar.Finish()
		t.bar.Clear()
	}
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}
