package source

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"example.com/average-calculator/src/category"
)

// Time budget for one upstream fetch.
const FetchTimeout = 500 * time.Millisecond

var (
	ErrTimeout   = errors.New("fetch timed out")
	ErrStatus    = errors.New("unexpected upstream status")
	ErrMalformed = errors.New("malformed upstream payload")
)

// NumberSource fetches a batch of numbers for a category. A nil error with an
// empty slice means the source had nothing new; any error means no data.
type NumberSource interface {
	Fetch(ctx context.Context, c category.Category) ([]int, error)
}

type timeoutSource struct {
	inner   NumberSource
	timeout time.Duration
}

// WithTimeout bounds every Fetch of src by timeout. A fetch still running when
// the budget expires is abandoned and reported as ErrTimeout.
func WithTimeout(src NumberSource, timeout time.Duration) NumberSource {
	return &timeoutSource{inner: src, timeout: timeout}
}

type fetchResult struct {
	numbers []int
	err     error
}

func (s *timeoutSource) Fetch(ctx context.Context, c category.Category) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// buffered so an abandoned fetch does not leak a blocked goroutine
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: errors.Errorf("fetch panic: %v", r)}
			}
		}()
		numbers, err := s.inner.Fetch(ctx, c)
		done <- fetchResult{numbers: numbers, err: err}
	}()

	select {
	case res := <-done:
		return res.numbers, res.err
	case <-ctx.Done():
		return nil, errors.Wrapf(ErrTimeout, "%s after %s", c.Name(), s.timeout)
	}
}
