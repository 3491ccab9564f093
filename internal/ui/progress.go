package ui

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// ProgressWriter counts bytes written through it on a download bar.
type ProgressWriter struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

// NewProgressWriter wraps writer with a byte progress bar. A max of -1 or 0
// (unknown Content-Length) renders a spinner instead.
func NewProgressWriter(writer io.Writer, max int64, description string) *ProgressWriter {
	if max <= 0 {
		max = -1
	}
	bar := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(Stderr()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
	return &ProgressWriter{writer: writer, bar: bar}
}

// Write implements io.Writer with progress tracking
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	if n > 0 {
		_ = pw.bar.Add(n)
	}
	return n, err
}

// Close finishes the bar. The wrapped writer is left open.
func (pw *ProgressWriter) Close() error {
	return pw.bar.Finish()
}

// Spinner is shown while an operation of unknown length runs.
type Spinner struct {
	bar *progressbar.ProgressBar
}

// NewSpinner starts a spinner on stderr.
func NewSpinner(description string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(Stderr()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{bar: bar}
}

// Tick advances the spinner animation.
func (s *Spinner) Tick() {
	_ = s.bar.Add(1)
}

// Stop clears the spinner line.
func (s *Spinner) Stop() {
	_ = s.bar.Finish()
}
