package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/prime3679/bishop-bench/internal/provider"
)

type outcome struct {
	completion provider.Completion
	err        error
}

// completeWithin races one provider call against a timer. Whichever settles
// first decides the outcome; a response arriving after the timer fired is
// dropped into the buffered channel and discarded.
func completeWithin(ctx context.Context, p provider.Provider, modelID, prompt string, timeout time.Duration) (provider.Completion, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		c, err := p.Complete(ctx, modelID, prompt)
		done <- outcome{completion: c, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.completion, o.err
	case <-timer.C:
		return provider.Completion{}, &TimeoutError{After: timeout}
	case <-ctx.Done():
		return provider.Completion{}, ctx.Err()
	}
}
