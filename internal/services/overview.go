package services

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/resources"
)

// overviewConcurrency bounds the list requests issued for one dashboard.
const overviewConcurrency = 8

// Count is the number of records one event holds in a scoped collection.
// Count is -1 when the collection could not be loaded.
type Count struct {
	Key   string
	Title string
	Count int
}

// EventSummary is one dashboard card.
type EventSummary struct {
	ID        string
	Name      string
	Dates     string
	Location  string
	Budget    decimal.Decimal
	Committed decimal.Decimal // equipment plus accommodation costs
	Counts    []Count
}

// Overview is the dashboard's content. Stale is set when at least one list
// came from a snapshot or could not be loaded.
type Overview struct {
	Events []EventSummary
	Stale  bool
}

type OverviewService struct {
	events resources.Resource
	scoped []resources.Resource
}

func NewOverviewService(reg *resources.Registry) *OverviewService {
	events, _ := reg.Get(resources.Events.Key)
	return &OverviewService{events: events, scoped: reg.Scoped()}
}

// Build fetches the events then every scoped collection of every event,
// concurrently. Only a failure to list the events with no snapshot to fall
// back on is returned as an error.
func (s *OverviewService) Build(ctx context.Context, sessionID string) (*Overview, error) {
	listing, err := s.events.Fetch(ctx, resources.Scope{SessionID: sessionID})
	if err != nil && !listing.Stale {
		return nil, err
	}
	out := &Overview{Stale: listing.Stale, Events: make([]EventSummary, len(listing.Rows))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, row := range listing.Rows {
		ev, _ := row.Record.(models.Event)
		sum := EventSummary{
			ID:       row.ID,
			Name:     ev.Name,
			Dates:    ev.StartDate.String() + " → " + ev.EndDate.String(),
			Location: ev.Location,
			Budget:   ev.Budget,
			Counts:   make([]Count, len(s.scoped)),
		}
		out.Events[i] = sum
		for j, res := range s.scoped {
			out.Events[i].Counts[j] = Count{Key: res.Key(), Title: res.Title(), Count: -1}
			g.Go(func() error {
				l, err := res.Fetch(gctx, resources.Scope{SessionID: sessionID, EventID: row.ID})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					out.Stale = true
					if !l.Stale {
						return nil
					}
				}
				out.Events[i].Counts[j].Count = len(l.Rows)
				out.Events[i].Committed = out.Events[i].Committed.Add(Committed(l.Rows))
				return nil
			})
		}
	}
	// Goroutines never return an error; a failed collection only leaves
	// its count at -1.
	_ = g.Wait()

	sort.SliceStable(out.Events, func(a, b int) bool {
		return out.Events[a].Dates < out.Events[b].Dates
	})
	return out, nil
}

// Committed sums what the rows already commit of an event budget:
// equipment totals and accommodation costs. Other records count as zero.
func Committed(rows []resources.Row) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		switch rec := r.Record.(type) {
		case models.Equipment:
			total = total.Add(rec.Total())
		case models.Accommodation:
			total = total.Add(rec.Cost())
		}
	}
	return total
}
