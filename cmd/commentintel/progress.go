package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// batchProgress returns a per-batch progress callback backed by a terminal
// progress bar, or nil when stdout is not a TTY (logs carry the same
// information there).
func batchProgress() func(done, total int) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("classifying"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		_ = bar.Set(done)
	}
}
