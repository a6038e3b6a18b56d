package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"Musarty/model"

	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// blockingDirectory holds each search until its release channel is closed.
type blockingDirectory struct {
	release map[string]chan struct{}
	result  map[string][]model.Station

	mu      sync.Mutex
	started map[string]bool
	done    map[string]bool
}

func (d *blockingDirectory) FetchPopular(ctx context.Context, limit int) ([]model.Station, error) {
	return d.SearchByName(ctx, "", limit)
}

func (d *blockingDirectory) SearchByName(ctx context.Context, query string, limit int) ([]model.Station, error) {
	d.mu.Lock()
	if d.started == nil {
		d.started = make(map[string]bool)
		d.done = make(map[string]bool)
	}
	d.started[query] = true
	ch := d.release[query]
	d.mu.Unlock()

	if ch != nil {
		<-ch
	}

	d.mu.Lock()
	d.done[query] = true
	d.mu.Unlock()
	return d.result[query], nil
}

func (d *blockingDirectory) waitStarted(t *testing.T, query string) {
	t.Helper()
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.started[query]
	}, timeout, tick)
}

// finished reports whether the query returned and its result was handled.
func (d *blockingDirectory) finished(query string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done[query]
}
