package cartview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/pricing"
	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
)

// fakeRemote records calls and fails any line listed in failFor.
type fakeRemote struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
	delay   time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeRemote) do(op, lineID string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+lineID)
	if err, ok := f.failFor[lineID]; ok {
		return err
	}
	return nil
}

func (f *fakeRemote) SelectLine(_ context.Context, lineID string, _ bool) error {
	return f.do("select", lineID)
}

func (f *fakeRemote) UpdateQuantity(_ context.Context, lineID string, _ int) error {
	return f.do("quantity", lineID)
}

func (f *fakeRemote) DeleteLine(_ context.Context, lineID string) error {
	return f.do("delete", lineID)
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// twoLines builds the reference cart: A is 2 × 100000 with 10% off and
// selected, B is 1 × 50000 and not selected.
func twoLines() []pricing.DisplayLine {
	catalog := pricing.NewCatalog(
		[]domain.Product{
			{ID: "1", Name: "Áo", SupplierID: "s1", Variants: []domain.Variant{{ID: "10", Price: 100000, AvailableQuantity: 5}}},
			{ID: "2", Name: "Nón", SupplierID: "s2"},
		},
		[]domain.Supplier{{ID: "s1", Name: "Shop A"}, {ID: "s2", Name: "Shop B"}},
	)
	offers := []domain.Offer{{ProductID: "1", VariantID: "10", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)}}
	return pricing.BuildLines([]domain.CartLine{
		{ID: "A", ProductID: "1", VariantID: "10", Price: 100000, Quantity: 2, Selected: true},
		{ID: "B", ProductID: "2", Price: 50000, Quantity: 1},
	}, catalog, offers)
}

func TestSnapshot_InitialTotal(t *testing.T) {
	v := New(&fakeRemote{}, twoLines())

	s := v.Snapshot()
	assert.Equal(t, domain.Money(180000), s.Summary.Total)
	assert.False(t, s.Summary.AllSelected)
	require.Len(t, s.Groups, 2)
	assert.Equal(t, "Shop A", s.Groups[0].SupplierName)
}

// ============================================================================
// SetSelection
// ============================================================================

func TestSetSelection_Success(t *testing.T) {
	remote := &fakeRemote{}
	v := New(remote, twoLines())

	require.NoError(t, v.SetSelection(context.Background(), "B", true))

	s := v.Snapshot()
	assert.Equal(t, domain.Money(230000), s.Summary.Total)
	assert.True(t, s.Summary.AllSelected)
	assert.Equal(t, []string{"select:B"}, remote.calls)
}

func TestSetSelection_UnchangedSkipsRemote(t *testing.T) {
	remote := &fakeRemote{}
	v := New(remote, twoLines())

	require.NoError(t, v.SetSelection(context.Background(), "A", true))
	assert.Zero(t, remote.callCount())
}

func TestSetSelection_FailureLeavesStateUnchanged(t *testing.T) {
	upstream := apperrors.Upstream("shop-api", "cart item locked")
	remote := &fakeRemote{failFor: map[string]error{"A": upstream}}
	v := New(remote, twoLines())
	before := v.Snapshot()

	err := v.SetSelection(context.Background(), "A", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)

	assert.Equal(t, before, v.Snapshot())
}

func TestSetSelection_UnknownLine(t *testing.T) {
	v := New(&fakeRemote{}, twoLines())

	err := v.SetSelection(context.Background(), "Z", true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// SetQuantity
// ============================================================================

func TestSetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		lineID    string
		quantity  int
		want      int
		wantCalls int
	}{
		{"increase", "A", 3, 3, 1},
		{"clamped to stock", "A", 9, 5, 1},
		{"below one ignored", "A", 0, 2, 0},
		{"negative ignored", "A", -3, 2, 0},
		{"unchanged", "A", 2, 2, 0},
		{"unknown stock not clamped", "B", 40, 40, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			v := New(remote, twoLines())

			got, err := v.SetQuantity(context.Background(), tt.lineID, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, remote.callCount())

			line, ok := v.Line(tt.lineID)
			require.True(t, ok)
			assert.Equal(t, tt.want, line.Quantity)
		})
	}
}

func TestSetQuantity_RecomputesTotal(t *testing.T) {
	v := New(&fakeRemote{}, twoLines())

	_, err := v.SetQuantity(context.Background(), "A", 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(270000), v.Snapshot().Summary.Total)
}

func TestSetQuantity_FailureLeavesStateUnchanged(t *testing.T) {
	remote := &fakeRemote{failFor: map[string]error{"A": errors.New("connection reset")}}
	v := New(remote, twoLines())
	before := v.Snapshot()

	got, err := v.SetQuantity(context.Background(), "A", 4)
	require.Error(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, before, v.Snapshot())
}

func TestSetQuantity_SameLineSerialized(t *testing.T) {
	remote := &fakeRemote{delay: 10 * time.Millisecond}
	v := New(remote, twoLines())

	var wg sync.WaitGroup
	for q := 3; q <= 5; q++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.SetQuantity(context.Background(), "A", q)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), remote.maxInFlight.Load())
}

func TestSetQuantity_DifferentLinesConcurrent(t *testing.T) {
	remote := &fakeRemote{delay: 50 * time.Millisecond}
	v := New(remote, twoLines())

	var wg sync.WaitGroup
	for _, id := range []string{"A", "B"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.SetQuantity(context.Background(), id, 4)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), remote.maxInFlight.Load())
}

// ============================================================================
// DeleteLine
// ============================================================================

func TestDeleteLine(t *testing.T) {
	v := New(&fakeRemote{}, twoLines())

	require.NoError(t, v.DeleteLine(context.Background(), "A"))

	s := v.Snapshot()
	require.Len(t, s.Lines, 1)
	assert.Equal(t, "B", s.Lines[0].ID)
	assert.Equal(t, domain.Money(0), s.Summary.Total)

	err := v.DeleteLine(context.Background(), "A")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteLine_FailureKeepsLine(t *testing.T) {
	remote := &fakeRemote{failFor: map[string]error{"B": errors.New("timeout")}}
	v := New(remote, twoLines())

	require.Error(t, v.DeleteLine(context.Background(), "B"))
	assert.Len(t, v.Snapshot().Lines, 2)
}

// ============================================================================
// SelectAll
// ============================================================================

func TestSelectAll(t *testing.T) {
	remote := &fakeRemote{}
	v := New(remote, twoLines())

	require.NoError(t, v.SelectAll(context.Background(), true))
	assert.Equal(t, domain.Money(230000), v.Snapshot().Summary.Total)
	assert.Equal(t, []string{"select:B"}, remote.calls, "only lines whose flag differs are sent")

	require.NoError(t, v.SelectAll(context.Background(), false))
	s := v.Snapshot()
	assert.Equal(t, domain.Money(0), s.Summary.Total)
	assert.Equal(t, 0, s.Summary.SelectedLines)
}

func TestSelectAll_PartialFailure(t *testing.T) {
	lines := twoLines()
	lines = append(lines, pricing.DisplayLine{CartLine: domain.CartLine{ID: "C", Quantity: 1}, UnitPrice: 1000})
	remote := &fakeRemote{failFor: map[string]error{"B": errors.New("boom")}}
	v := New(remote, lines)

	err := v.SelectAll(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select cart line B")
	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Failed)

	b, _ := v.Line("B")
	c, _ := v.Line("C")
	assert.False(t, b.Selected)
	assert.True(t, c.Selected)
	assert.Equal(t, domain.Money(181000), v.Snapshot().Summary.Total)
}

func TestSelectAll_BoundedConcurrency(t *testing.T) {
	var lines []pricing.DisplayLine
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		lines = append(lines, pricing.DisplayLine{CartLine: domain.CartLine{ID: id, Quantity: 1}})
	}
	remote := &fakeRemote{delay: 20 * time.Millisecond}
	v := New(remote, lines, WithConcurrency(2))

	require.NoError(t, v.SelectAll(context.Background(), true))
	assert.LessOrEqual(t, remote.maxInFlight.Load(), int32(2))
	assert.Equal(t, 6, remote.callCount())
}

// ============================================================================
// slot
// ============================================================================

func TestSlot_CancelledWaiterKeepsOrder(t *testing.T) {
	var s slot

	release1, err := s.acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	acquired := make(chan struct{})
	go func() {
		release3, err := s.acquire(context.Background())
		if err == nil {
			release3()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("third caller admitted before the first released")
	case <-time.After(20 * time.Millisecond):
	}

	release1()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("third caller never admitted")
	}
}

// ============================================================================
// Reload
// ============================================================================

func TestReload_WaitsForInFlightMutation(t *testing.T) {
	remote := &fakeRemote{delay: 100 * time.Millisecond}
	v := New(remote, twoLines())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := v.SetQuantity(context.Background(), "A", 3)
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return remote.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	var callsAtFetch int
	err := v.Reload(context.Background(), func(context.Context) ([]pricing.DisplayLine, error) {
		callsAtFetch = remote.callCount()
		lines := twoLines()
		lines[0].Quantity = 3
		return lines, nil
	})
	require.NoError(t, err)
	<-done

	assert.Equal(t, 1, callsAtFetch, "fetch ran before the in-flight update finished")
	_, err = v.SetQuantity(context.Background(), "A", 4)
	require.NoError(t, err)

	a, _ := v.Line("A")
	assert.Equal(t, 4, a.Quantity)
	assert.Equal(t, int32(1), remote.maxInFlight.Load())
}

func TestReload_MutationArrivingDuringFetchWaits(t *testing.T) {
	remote := &fakeRemote{}
	v := New(remote, twoLines())

	fetching := make(chan struct{})
	unblock := make(chan struct{})
	reloaded := make(chan error, 1)
	go func() {
		reloaded <- v.Reload(context.Background(), func(context.Context) ([]pricing.DisplayLine, error) {
			close(fetching)
			<-unblock
			return twoLines(), nil
		})
	}()
	<-fetching

	updated := make(chan struct{})
	go func() {
		defer close(updated)
		_, err := v.SetQuantity(context.Background(), "A", 4)
		assert.NoError(t, err)
	}()

	select {
	case <-updated:
		t.Fatal("update ran while the reload was fetching")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Zero(t, remote.callCount())

	close(unblock)
	require.NoError(t, <-reloaded)
	<-updated

	a, _ := v.Line("A")
	assert.Equal(t, 4, a.Quantity)
}

func TestReload_FetchErrorKeepsLines(t *testing.T) {
	v := New(&fakeRemote{}, twoLines())
	before := v.Snapshot()

	err := v.Reload(context.Background(), func(context.Context) ([]pricing.DisplayLine, error) {
		return nil, errors.New("shop api down")
	})
	require.Error(t, err)
	assert.Equal(t, before, v.Snapshot())
}

func TestReload_NewLineIsMutable(t *testing.T) {
	remote := &fakeRemote{}
	v := New(remote, twoLines())

	_, err := v.SetQuantity(context.Background(), "C", 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, v.Reload(context.Background(), func(context.Context) ([]pricing.DisplayLine, error) {
		return append(twoLines(), pricing.DisplayLine{CartLine: domain.CartLine{ID: "C", Quantity: 1}, UnitPrice: 1000, AvailableQuantity: domain.UnknownQuantity}), nil
	}))

	got, err := v.SetQuantity(context.Background(), "C", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
