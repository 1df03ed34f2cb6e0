//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"

	goNotes "github.com/MrEthical07/goNotes"
)

func TestRefreshRaceSingleWinner(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			engine := newEngine(t, mode.setup(t))

			if _, err := engine.Register(ctx, "race@example.com", "password1234"); err != nil {
				t.Fatalf("Register failed: %v", err)
			}
			pair, err := engine.Login(ctx, "race@example.com", "password1234")
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}

			const workers = 16
			start := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(workers)

			results := make(chan error, workers)
			for i := 0; i < workers; i++ {
				go func() {
					defer wg.Done()
					<-start
					_, err := engine.Refresh(ctx, pair.RefreshToken)
					results <- err
				}()
			}

			close(start)
			wg.Wait()
			close(results)

			success := 0
			for err := range results {
				switch {
				case err == nil:
					success++
				case errors.Is(err, goNotes.ErrInvalidRefreshToken):
				default:
					t.Fatalf("unexpected refresh error: %v", err)
				}
			}

			if success != 1 {
				t.Fatalf("expected exactly one winner, got %d", success)
			}
			snap := engine.MetricsSnapshot()
			if got := snap.Counters[goNotes.MetricRefreshReplayRejected]; got != workers-1 {
				t.Fatalf("expected %d replay rejections, got %d", workers-1, got)
			}
		})
	}
}
