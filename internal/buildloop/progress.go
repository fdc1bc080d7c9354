package buildloop

//
// Progress indicator
//

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// waitWithProgress runs fn in the background and ticks a spinner
// until fn returns. This is a blocking wait.
func (b *Builder) waitWithProgress(description string, fn func() error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(b.progressWriter()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	ticker := time.NewTicker(b.tickInterval())
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			_ = bar.Finish()
			return err
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

func (b *Builder) progressWriter() io.Writer {
	if b.ProgressWriter != nil {
		return b.ProgressWriter
	}
	return os.Stderr
}

func (b *Builder) tickInterval() time.Duration {
	if b.TickInterval > 0 {
		return b.TickInterval
	}
	return DefaultTickInterval
}
