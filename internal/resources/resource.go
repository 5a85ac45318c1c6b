// Package resources declares every collection the dashboard manages and
// binds each declaration to the upstream API. Handlers only ever see the
// type-erased Resource interface, so one set of list and form handlers
// serves all of them.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/eventdesk/forms"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/upstream"
	"github.com/diewo77/eventdesk/listview"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrBadEventID = errors.New("invalid event id")
	ErrNoneChosen = errors.New("no record selected")
)

// bulkConcurrency bounds the requests in flight for BulkEach deletes.
const bulkConcurrency = 4

// Record is implemented by every model served through a Definition.
type Record interface {
	RecordID() string
}

// Ref names a record by id alone, for authorization checks that do not
// need the full record.
type Ref string

func (r Ref) RecordID() string { return string(r) }

// Endpoints are path patterns relative to the upstream base URL. {event}
// and {id} are substituted before the call.
type Endpoints struct {
	List   string
	Create string
	Update string
	Delete string
	// Bulk receives DELETE {"ids": [...]} when the definition uses BulkSingle.
	Bulk string
}

// BulkMode selects how a multi-row delete reaches the upstream.
type BulkMode int

const (
	// BulkSingle sends every id in one request.
	BulkSingle BulkMode = iota
	// BulkEach sends one request per id, concurrently. Some may fail.
	BulkEach
)

func (m BulkMode) String() string {
	if m == BulkEach {
		return "each"
	}
	return "single"
}

// Column is one table column; Header is an i18n key.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Definition declares one collection.
type Definition[T Record] struct {
	Key       string
	Scoped    bool
	PageSize  int
	Endpoints Endpoints
	// IDInBody sends the record id in the JSON body of updates and deletes
	// instead of the path.
	IDInBody bool
	Bulk     BulkMode
	Columns  []Column[T]
	Search   listview.Fields[T]
	Fields   []forms.Field
}

// Scope identifies whose list is being read and, for event-scoped
// collections, which event it belongs to.
type Scope struct {
	SessionID string
	EventID   string
}

// Row is a record prepared for display.
type Row struct {
	ID     string
	Cells  []string
	Search []string `json:"-"`
	Record any
}

func rowSearch(r Row) []string { return r.Search }

// Listing is the result of a list fetch. When Stale is set the upstream
// failed and Rows hold the last successful fetch for the same scope.
type Listing struct {
	Rows  []Row
	Stale bool
}

// Page filters and paginates the listing.
func (l *Listing) Page(q listview.Query, size int) listview.Page[Row] {
	return listview.Apply(l.Rows, q, rowSearch, size)
}

// Filter returns every row matching term, for exports.
func (l *Listing) Filter(term string) []Row {
	return listview.Filter(l.Rows, term, rowSearch)
}

// RowID is the selection key of a row.
func RowID(r Row) string { return r.ID }

// Find returns the row with id.
func (l *Listing) Find(id string) (Row, bool) {
	for _, r := range l.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

// BulkResult reports the outcome of a multi-row delete.
type BulkResult struct {
	Deleted []string
	Failed  map[string]error
}

// Err summarises the failures, or returns nil when every delete succeeded.
func (b BulkResult) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d deletions failed: %w", len(b.Failed), len(b.Failed)+len(b.Deleted), b.Failed[b.FailedIDs()[0]])
}

// FailedIDs lists the ids that could not be deleted, sorted.
func (b BulkResult) FailedIDs() []string {
	out := make([]string, 0, len(b.Failed))
	for id := range b.Failed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resource is a bound Definition with its element type erased.
type Resource interface {
	Key() string
	Title() string
	Scoped() bool
	PageSize() int
	BulkMode() BulkMode
	Fields() []forms.Field
	Headers() []string

	Fetch(ctx context.Context, scope Scope) (*Listing, error)
	Create(ctx context.Context, scope Scope, body map[string]any) error
	Update(ctx context.Context, scope Scope, id string, body map[string]any) error
	Delete(ctx context.Context, scope Scope, id string) error
	DeleteMany(ctx context.Context, scope Scope, ids []string) (BulkResult, error)
}

// SnapshotStore keeps the last successful payload per session and list.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID, key string, payload []byte) error
	Load(ctx context.Context, sessionID, key string) ([]byte, bool, error)
}

type resource[T Record] struct {
	def       Definition[T]
	client    *upstream.Client
	snapshots SnapshotStore
}

// Bind attaches def to the upstream client. snapshots may be nil, in which
// case failed fetches have nothing to fall back on.
func Bind[T Record](def Definition[T], client *upstream.Client, snapshots SnapshotStore) Resource {
	if def.PageSize <= 0 {
		def.PageSize = listview.DefaultPageSize
	}
	return &resource[T]{def: def, client: client, snapshots: snapshots}
}

func (r *resource[T]) Key() string           { return r.def.Key }
func (r *resource[T]) Title() string         { return "resource." + r.def.Key }
func (r *resource[T]) Scoped() bool          { return r.def.Scoped }
func (r *resource[T]) PageSize() int         { return r.def.PageSize }
func (r *resource[T]) BulkMode() BulkMode    { return r.def.Bulk }
func (r *resource[T]) Fields() []forms.Field { return r.def.Fields }

func (r *resource[T]) Headers() []string {
	out := make([]string, len(r.def.Columns))
	for i, c := range r.def.Columns {
		out[i] = c.Header
	}
	return out
}

func (r *resource[T]) path(pattern string, scope Scope, id string) string {
	return upstream.Expand(pattern, map[string]string{"event": scope.EventID, "id": id})
}

func (r *resource[T]) snapshotKey(scope Scope) string {
	if r.def.Scoped {
		return r.def.Key + "@" + scope.EventID
	}
	return r.def.Key
}

func (r *resource[T]) checkScope(scope Scope) error {
	if !r.def.Scoped {
		return nil
	}
	if _, err := strconv.ParseInt(scope.EventID, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrBadEventID, scope.EventID)
	}
	return nil
}

// Fetch loads the collection. On failure the last snapshot, if any, is
// returned with Stale set alongside the error.
func (r *resource[T]) Fetch(ctx context.Context, scope Scope) (*Listing, error) {
	if err := r.checkScope(scope); err != nil {
		return &Listing{}, err
	}
	raw, err := upstream.Get[json.RawMessage](ctx, r.client, r.path(r.def.Endpoints.List, scope, ""), nil)
	if err == nil {
		var items []T
		if err = json.Unmarshal(nullAsEmpty(raw), &items); err != nil {
			err = fmt.Errorf("%w: %s: %v", upstream.ErrInvalidResponse, r.def.Key, err)
		} else {
			r.remember(ctx, scope, raw)
			return &Listing{Rows: r.rows(items)}, nil
		}
	}

	listing := &Listing{}
	if cached, ok := r.recall(ctx, scope); ok {
		listing.Rows = r.rows(cached)
		listing.Stale = true
	}
	return listing, fmt.Errorf("fetch %s: %w", r.def.Key, err)
}

func nullAsEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("[]")
	}
	return raw
}

func (r *resource[T]) remember(ctx context.Context, scope Scope, raw json.RawMessage) {
	if r.snapshots == nil || scope.SessionID == "" {
		return
	}
	if err := r.snapshots.Save(ctx, scope.SessionID, r.snapshotKey(scope), raw); err != nil {
		logger.FromContext(ctx).Warn("snapshot not saved", zap.String("resource", r.def.Key), zap.Error(err))
	}
}

func (r *resource[T]) recall(ctx context.Context, scope Scope) ([]T, bool) {
	if r.snapshots == nil || scope.SessionID == "" {
		return nil, false
	}
	payload, ok, err := r.snapshots.Load(ctx, scope.SessionID, r.snapshotKey(scope))
	if err != nil || !ok {
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (r *resource[T]) rows(items []T) []Row {
	out := make([]Row, len(items))
	for i, item := range items {
		cells := make([]string, len(r.def.Columns))
		for j, c := range r.def.Columns {
			cells[j] = c.Value(item)
		}
		var search []string
		if r.def.Search != nil {
			search = r.def.Search(item)
		}
		out[i] = Row{ID: item.RecordID(), Cells: cells, Search: search, Record: item}
	}
	return out
}

func (r *resource[T]) Create(ctx context.Context, scope Scope, body map[string]any) error {
	if err := r.checkScope(scope); err != nil {
		return err
	}
	if r.def.Scoped {
		body["evenement_id"] = json.Number(scope.EventID)
	}
	_, err := r.client.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		Path:   r.path(r.def.Endpoints.Create, scope, ""),
		Body:   body,
	}, nil)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.def.Key, err)
	}
	return nil
}

func (r *resource[T]) Update(ctx context.Context, scope Scope, id string, body map[string]any) error {
	if err := r.checkScope(scope); err != nil {
		return err
	}
	if r.def.Scoped {
		body["evenement_id"] = json.Number(scope.EventID)
	}
	if r.def.IDInBody {
		body["id"] = idValue(id)
	}
	_, err := r.client.Do(ctx, upstream.Request{
		Method: http.MethodPut,
		Path:   r.path(r.def.Endpoints.Update, scope, id),
		Body:   body,
	}, nil)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", r.def.Key, id, err)
	}
	return nil
}

func (r *resource[T]) Delete(ctx context.Context, scope Scope, id string) error {
	if err := r.checkScope(scope); err != nil {
		return err
	}
	req := upstream.Request{Method: http.MethodDelete, Path: r.path(r.def.Endpoints.Delete, scope, id)}
	if r.def.IDInBody {
		req.Body = map[string]any{"id": idValue(id)}
	}
	if _, err := r.client.Do(ctx, req, nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.def.Key, id, err)
	}
	return nil
}

// DeleteMany removes ids according to the definition's BulkMode. Whenever
// an id could not be deleted the returned error is non-nil, and the ids are
// split between BulkResult.Deleted and BulkResult.Failed.
func (r *resource[T]) DeleteMany(ctx context.Context, scope Scope, ids []string) (BulkResult, error) {
	res := BulkResult{Failed: map[string]error{}}
	if len(ids) == 0 {
		return res, ErrNoneChosen
	}
	if err := r.checkScope(scope); err != nil {
		return res, err
	}

	if r.def.Bulk == BulkSingle {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = idValue(id)
		}
		_, err := r.client.Do(ctx, upstream.Request{
			Method: http.MethodDelete,
			Path:   r.path(r.def.Endpoints.Bulk, scope, ""),
			Body:   map[string]any{"ids": values},
		}, nil)
		if err != nil {
			for _, id := range ids {
				res.Failed[id] = err
			}
			return res, fmt.Errorf("bulk delete %s: %w", r.def.Key, err)
		}
		res.Deleted = append(res.Deleted, ids...)
		return res, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(bulkConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			err := r.Delete(ctx, scope, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[id] = err
			} else {
				res.Deleted = append(res.Deleted, id)
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(res.Deleted)
	if err := res.Err(); err != nil {
		return res, fmt.Errorf("bulk delete %s: %w", r.def.Key, err)
	}
	return res, nil
}

// idValue sends numeric ids as JSON numbers and anything else verbatim.
func idValue(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}
