package strava

import (
	"context"

	"github.com/jbaldivieso/coach/internal/client"
)

// Pages iterates the activity listing one page at a time with a fixed "after"
// watermark. It is finite and not restartable: once exhausted (or failed) it
// only returns nil batches, and re-iterating requires a fresh NewPages call.
type Pages struct {
	c       *client.Client
	after   int64
	perPage int
	page    int
	done    bool
}

// NewPages returns an iterator over all activities created strictly after the
// given unix timestamp, fetched perPage at a time in increasing page order.
func NewPages(c *client.Client, after int64, perPage int) *Pages {
	return &Pages{c: c, after: after, perPage: perPage, page: 1}
}

// Next fetches the next page. It returns a nil batch once the listing is
// exhausted, which happens on an empty page or a page shorter than perPage.
// A fetch error terminates the iterator; pages already returned stay with the
// caller, so a partial fetch can still be persisted.
func (p *Pages) Next(ctx context.Context) ([]SummaryActivity, error) {
	if p.done {
		return nil, nil
	}

	batch, err := ListActivities(ctx, p.c, p.page, p.perPage, p.after)
	if err != nil {
		p.done = true
		return nil, err
	}
	p.page++

	if len(batch) == 0 {
		p.done = true
		return nil, nil
	}
	if len(batch) < p.perPage {
		p.done = true
	}
	return batch, nil
}
