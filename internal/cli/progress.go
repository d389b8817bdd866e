package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

type stopFunc func()

// startSegmentProgress shows a spinner whose description tracks the
// number of transcript segments received so far. The tick callback is
// safe to call from the consuming goroutine only; stop is idempotent.
func startSegmentProgress(enabled bool) (func(count int), stopFunc) {
	if !enabled {
		return func(int) {}, func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription("Transcribing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	tick := func(count int) {
		bar.Describe(fmt.Sprintf("Transcribing (%d segments)", count))
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
	return tick, stop
}
