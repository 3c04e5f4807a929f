// Package cartview holds the per-session cart state the storefront renders:
// display lines, their selection and quantity, and the derived totals.
//
// Updates are pessimistic. Local state changes only after the remote store
// confirms a mutation, so a failed call leaves the view exactly as it was.
package cartview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/pricing"
)

// DefaultConcurrency bounds the number of remote calls SelectAll keeps in
// flight at once.
const DefaultConcurrency = 4

// Remote is the remote store that owns the cart.
type Remote interface {
	SelectLine(ctx context.Context, lineID string, selected bool) error
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	DeleteLine(ctx context.Context, lineID string) error
}

// Snapshot is a consistent copy of the view.
type Snapshot struct {
	Lines   []pricing.DisplayLine
	Groups  []pricing.SupplierGroup
	Summary pricing.Summary
}

// Option configures a View.
type Option func(*View)

// WithConcurrency sets the SelectAll fan-out limit. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// View is the selection and quantity state of one cart. It is safe for
// concurrent use. Mutations on the same line are serialized in arrival
// order; mutations on different lines proceed concurrently.
type View struct {
	remote      Remote
	concurrency int

	// reloadMu serializes Reload. Slots are never removed, so every caller
	// for a line queues on the same slot.
	reloadMu sync.Mutex

	mu    sync.RWMutex
	lines []pricing.DisplayLine
	slots map[string]*slot
}

// New creates a view over lines, which it takes ownership of.
func New(remote Remote, lines []pricing.DisplayLine, opts ...Option) *View {
	v := &View{
		remote:      remote,
		concurrency: DefaultConcurrency,
		lines:       lines,
		slots:       make(map[string]*slot, len(lines)),
	}
	for _, l := range lines {
		v.slots[l.ID] = &slot{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Snapshot returns the current lines with their supplier groups and summary.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	lines := make([]pricing.DisplayLine, len(v.lines))
	copy(lines, v.lines)
	v.mu.RUnlock()

	return Snapshot{
		Lines:   lines,
		Groups:  pricing.GroupBySupplier(lines),
		Summary: pricing.Summarize(lines),
	}
}

// Reload replaces the lines with the result of fetch. Every line slot is
// held while fetch runs: mutations already in flight finish first, and those
// arriving meanwhile wait and then apply to the reloaded lines. On error the
// view is unchanged.
func (v *View) Reload(ctx context.Context, fetch func(context.Context) ([]pricing.DisplayLine, error)) error {
	v.reloadMu.Lock()
	defer v.reloadMu.Unlock()

	release, err := v.lockAll(ctx)
	if err != nil {
		return err
	}
	defer release()

	lines, err := fetch(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.lines = lines
	for _, l := range lines {
		if _, ok := v.slots[l.ID]; !ok {
			v.slots[l.ID] = &slot{}
		}
	}
	v.mu.Unlock()
	return nil
}

// Line returns the display line with the given ID.
func (v *View) Line(lineID string) (pricing.DisplayLine, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	i := v.index(lineID)
	if i < 0 {
		return pricing.DisplayLine{}, false
	}
	return v.lines[i], true
}

// SetSelection sets the selection flag of one line. Nothing is sent when the
// flag already has the requested value.
func (v *View) SetSelection(ctx context.Context, lineID string, selected bool) error {
	release, err := v.lock(ctx, lineID)
	if err != nil {
		return err
	}
	defer release()

	line, ok := v.Line(lineID)
	if !ok {
		return apperrors.NotFound("cart line", lineID)
	}
	if line.Selected == selected {
		return nil
	}

	if err := v.remote.SelectLine(ctx, lineID, selected); err != nil {
		return fmt.Errorf("select cart line %s: %w", lineID, err)
	}

	v.apply(lineID, func(l *pricing.DisplayLine) { l.Selected = selected })
	return nil
}

// SetQuantity changes the quantity of one line and returns the quantity the
// line holds afterwards. A quantity below 1 is ignored and a quantity above
// the known stock is clamped to it; neither is an error.
func (v *View) SetQuantity(ctx context.Context, lineID string, quantity int) (int, error) {
	release, err := v.lock(ctx, lineID)
	if err != nil {
		return 0, err
	}
	defer release()

	line, ok := v.Line(lineID)
	if !ok {
		return 0, apperrors.NotFound("cart line", lineID)
	}

	quantity = clampQuantity(quantity, line.AvailableQuantity)
	if quantity < 1 || quantity == line.Quantity {
		return line.Quantity, nil
	}

	if err := v.remote.UpdateQuantity(ctx, lineID, quantity); err != nil {
		return line.Quantity, fmt.Errorf("update cart line %s quantity: %w", lineID, err)
	}

	v.apply(lineID, func(l *pricing.DisplayLine) { l.Quantity = quantity })
	return quantity, nil
}

// DeleteLine removes one line from the remote store and then from the view.
func (v *View) DeleteLine(ctx context.Context, lineID string) error {
	release, err := v.lock(ctx, lineID)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := v.Line(lineID); !ok {
		return apperrors.NotFound("cart line", lineID)
	}

	if err := v.remote.DeleteLine(ctx, lineID); err != nil {
		return fmt.Errorf("delete cart line %s: %w", lineID, err)
	}

	v.mu.Lock()
	if i := v.index(lineID); i >= 0 {
		v.lines = append(v.lines[:i], v.lines[i+1:]...)
	}
	v.mu.Unlock()
	return nil
}

// PartialError reports a SelectAll in which some lines were applied and
// others were refused. Err joins the per-line failures.
type PartialError struct {
	Failed int
	Total  int
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d of %d lines not updated: %v", e.Failed, e.Total, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// SelectAll sets the selection flag of every line. Lines whose flag differs
// are updated remotely with bounded concurrency. Lines the remote store
// confirms are applied even when others fail; the failures come back as a
// *PartialError.
func (v *View) SelectAll(ctx context.Context, selected bool) error {
	v.mu.RLock()
	var pending []string
	for _, l := range v.lines {
		if l.Selected != selected {
			pending = append(pending, l.ID)
		}
	}
	v.mu.RUnlock()

	var (
		g     errgroup.Group
		errMu sync.Mutex
		errs  []error
	)
	g.SetLimit(v.concurrency)

	for _, id := range pending {
		g.Go(func() error {
			if err := v.SetSelection(ctx, id, selected); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == 0 {
		return nil
	}
	return &PartialError{Failed: len(errs), Total: len(pending), Err: errors.Join(errs...)}
}

// lock waits for the slot of a line the view knows. Unknown lines get no
// slot, which keeps the slot map bounded by the lines ever loaded.
func (v *View) lock(ctx context.Context, lineID string) (func(), error) {
	v.mu.Lock()
	s, ok := v.slots[lineID]
	v.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFound("cart line", lineID)
	}
	return s.acquire(ctx)
}

// lockAll takes every line slot in ID order, so two callers can never hold
// each other's slots.
func (v *View) lockAll(ctx context.Context) (func(), error) {
	v.mu.RLock()
	ids := make([]string, 0, len(v.slots))
	for id := range v.slots {
		ids = append(ids, id)
	}
	v.mu.RUnlock()
	slices.Sort(ids)

	releases := make([]func(), 0, len(ids))
	releaseAll := func() {
		for _, r := range releases {
			r()
		}
	}
	for _, id := range ids {
		v.mu.RLock()
		s := v.slots[id]
		v.mu.RUnlock()

		r, err := s.acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, r)
	}
	return releaseAll, nil
}

func (v *View) apply(lineID string, fn func(*pricing.DisplayLine)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.index(lineID); i >= 0 {
		fn(&v.lines[i])
	}
}

// index must be called with mu held.
func (v *View) index(lineID string) int {
	for i := range v.lines {
		if v.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// clampQuantity caps q at available when stock is known.
func clampQuantity(q, available int) int {
	if available >= 0 && q > available {
		return available
	}
	return q
}
