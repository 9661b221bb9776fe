// Package rotator cycles through a fixed list of items on a timer, the way the
// marketing site rotates its screenshots.
package rotator

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNoItems         = errors.New("rotator: at least one item is required")
	ErrInvalidInterval = errors.New("rotator: interval must be positive")
)

// Rotator holds one index into a fixed, ordered list. The index is always in
// [0, len(items)).
type Rotator struct {
	mu       sync.Mutex
	items    []string
	index    int
	interval time.Duration
}

func New(items []string, interval time.Duration) (*Rotator, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &Rotator{
		items:    append([]string(nil), items...),
		interval: interval,
	}, nil
}

func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[r.index]
}

func (r *Rotator) Len() int {
	return len(r.items)
}

// Advance moves to the next item, wrapping to the first after the last, and
// returns the new position.
func (r *Rotator) Advance() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = (r.index + 1) % len(r.items)
	return r.index, r.items[r.index]
}

// Run calls bind with the current item, then advances and calls bind again on
// every tick until ctx is done. It returns ctx.Err().
func (r *Rotator) Run(ctx context.Context, bind func(index int, item string)) error {
	r.mu.Lock()
	idx, item := r.index, r.items[r.index]
	r.mu.Unlock()
	bind(idx, item)

	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			bind(r.Advance())
			timer.Reset(r.interval)
		}
	}
}
