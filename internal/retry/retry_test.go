package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noWait(int) time.Duration { return 0 }

func TestDo(t *testing.T) {
	errFlaky := errors.New("flaky")

	tests := []struct {
		name      string
		failures  int
		permanent bool
		wantCalls int
		wantErr   bool
	}{
		{name: "first call succeeds", failures: 0, wantCalls: 1},
		{name: "succeeds on third", failures: 2, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, wantCalls: 3, wantErr: true},
		{name: "permanent stops early", failures: 5, permanent: true, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Do(context.Background(), Policy{MaxAttempts: 3, Backoff: noWait}, func(context.Context) (int, error) {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return 0, Permanent(errFlaky)
					}
					return 0, errFlaky
				}
				return 42, nil
			})

			if calls != tt.wantCalls {
				t.Errorf("Do() made %d calls, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr {
				if !errors.Is(err, errFlaky) {
					t.Errorf("Do() error = %v, want %v", err, errFlaky)
				}
				return
			}
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if got != 42 {
				t.Errorf("Do() = %d, want 42", got)
			}
		})
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 3, Backoff: func(int) time.Duration { return time.Hour }}, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("down")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("Do() made %d calls, want 1", calls)
	}
}

func TestLinear(t *testing.T) {
	backoff := Linear(2 * time.Second)
	for attempt, want := range map[int]time.Duration{1: 2 * time.Second, 2: 4 * time.Second, 3: 6 * time.Second} {
		if got := backoff(attempt); got != want {
			t.Errorf("Linear(2s)(%d) = %v, want %v", attempt, got, want)
		}
	}
}
