package gong

import (
	"context"
	"time"
)

type records struct {
	TotalRecords      int    `json:"totalRecords,omitempty"`
	CurrentPageSize   int    `json:"currentPageSize,omitempty"`
	CurrentPageNumber int    `json:"currentPageNumber,omitempty"`
	Cursor            string `json:"cursor,omitempty"`
}

// pageFetcher issues one request for cursor ("" on the first page) and
// returns that page's items and the next cursor.
type pageFetcher[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// pacer enforces the rate-limit delay between the requests of one logical
// operation. The first request goes out immediately.
type pacer struct {
	delay time.Duration
	sent  bool
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.sent {
		p.sent = true
		return nil
	}
	return sleep(ctx, p.delay)
}

// paginate follows cursors until a page comes back without one, keeping
// items in response order.
func paginate[T any](ctx context.Context, p *pacer, fetch pageFetcher[T]) ([]T, error) {
	var all []T
	cursor := ""
	for {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// batches splits ids into consecutive chunks of at most size.
func batches(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
