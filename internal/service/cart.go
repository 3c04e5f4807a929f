package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/cartview"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/event"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/pricing"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository"
	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/tracing"
)

const tracerName = "service"

// viewSweepInterval bounds how often register scans for expired views.
const viewSweepInterval = time.Minute

type viewEntry struct {
	view *cartview.View
	// expiresAt is the session expiry; zero never expires.
	expiresAt time.Time
}

func (e viewEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// CartService builds and mutates the per-session cart views.
type CartService struct {
	api         ShopAPI
	cache       repository.ReferenceCache
	events      EventPublisher
	logger      *slog.Logger
	concurrency int
	now         func() time.Time

	// flight collapses concurrent first loads of one session.
	flight singleflight.Group

	mu        sync.Mutex
	views     map[string]viewEntry
	lastSweep time.Time
}

// NewCartService creates a new cart service. concurrency bounds the
// select-all fan-out per view.
func NewCartService(api ShopAPI, cache repository.ReferenceCache, events EventPublisher, logger *slog.Logger, concurrency int) *CartService {
	return &CartService{
		api:         api,
		cache:       cache,
		events:      events,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
		views:       make(map[string]viewEntry),
	}
}

// View returns the registered view for the session, loading it on first use.
func (s *CartService) View(ctx context.Context, sess *domain.Session) (*cartview.View, error) {
	if v, ok := s.lookup(sess.ID); ok {
		return v, nil
	}
	return s.create(ctx, sess)
}

// LoadView refreshes the session's view from the shop API, or loads it if
// none is registered. A refresh reloads the existing view in place, so
// mutations queued on its lines stay serialized across the reload.
func (s *CartService) LoadView(ctx context.Context, sess *domain.Session) (*cartview.View, error) {
	v, ok := s.lookup(sess.ID)
	if !ok {
		return s.create(ctx, sess)
	}

	err := v.Reload(ctx, func(ctx context.Context) ([]pricing.DisplayLine, error) {
		return s.fetchLines(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	s.register(sess, v)
	return v, nil
}

// Forget drops the registered view of a session.
func (s *CartService) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.views, sessionID)
	s.mu.Unlock()
}

func (s *CartService) lookup(sessionID string) (*cartview.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.views[sessionID]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.views, sessionID)
		return nil, false
	}
	return e.view, true
}

// create loads and registers a new view. Callers racing on one session share
// the first one's load.
func (s *CartService) create(ctx context.Context, sess *domain.Session) (*cartview.View, error) {
	res, err, _ := s.flight.Do(sess.ID, func() (any, error) {
		if v, ok := s.lookup(sess.ID); ok {
			return v, nil
		}
		lines, err := s.fetchLines(ctx, sess)
		if err != nil {
			return nil, err
		}
		v := cartview.New(tokenRemote{api: s.api, token: sess.Token}, lines, cartview.WithConcurrency(s.concurrency))
		s.register(sess, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*cartview.View), nil
}

// register stores v for the session and, at most once per
// viewSweepInterval, drops the views of expired sessions.
func (s *CartService) register(sess *domain.Session, v *cartview.View) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.views[sess.ID] = viewEntry{view: v, expiresAt: sess.ExpiresAt}
	if now.Sub(s.lastSweep) < viewSweepInterval {
		return
	}
	s.lastSweep = now
	for id, e := range s.views {
		if e.expired(now) {
			delete(s.views, id)
		}
	}
}

// fetchLines fetches the cart and its reference data in one parallel batch
// and builds the priced display lines.
func (s *CartService) fetchLines(ctx context.Context, sess *domain.Session) (lines []pricing.DisplayLine, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "CartService.LoadView",
		attribute.String("profile.id", sess.ProfileID),
	)
	defer tracing.End(span, &err)

	start := time.Now()
	defer func() {
		cartViewLoadDuration.Observe(time.Since(start).Seconds())
		cartViewLoadsTotal.WithLabelValues(outcome(err)).Inc()
	}()

	var (
		cart      domain.Cart
		products  []domain.Product
		suppliers []domain.Supplier
		sales     []domain.FlashSale
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cart, err = s.api.Cart(gctx, sess.Token, sess.ProfileID)
		return err
	})
	g.Go(func() (err error) {
		products, err = cacheAside(gctx, s, repository.RefProducts, s.cache.Products, s.cache.SetProducts,
			func(ctx context.Context) ([]domain.Product, error) { return s.api.Products(ctx, sess.Token) })
		return err
	})
	g.Go(func() (err error) {
		suppliers, err = cacheAside(gctx, s, repository.RefSuppliers, s.cache.Suppliers, s.cache.SetSuppliers,
			func(ctx context.Context) ([]domain.Supplier, error) { return s.api.Suppliers(ctx, sess.Token) })
		return err
	})
	g.Go(func() (err error) {
		sales, err = cacheAside(gctx, s, repository.RefFlashSales, s.cache.FlashSales, s.cache.SetFlashSales,
			func(ctx context.Context) ([]domain.FlashSale, error) { return s.api.ActiveFlashSales(ctx, sess.Token) })
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load cart view: %w", err)
	}

	lines = pricing.BuildLines(cart.Lines, pricing.NewCatalog(products, suppliers), domain.ActiveOffers(sales))

	s.logger.InfoContext(ctx, "cart view loaded",
		slog.String("cart_id", cart.ID),
		slog.Int("line_count", len(lines)),
		slog.Int("flash_sale_count", len(sales)),
	)

	return lines, nil
}

// SetSelection selects or deselects one line.
func (s *CartService) SetSelection(ctx context.Context, sess *domain.Session, lineID string, selected bool) (cartview.Snapshot, error) {
	v, err := s.View(ctx, sess)
	if err != nil {
		return cartview.Snapshot{}, err
	}

	err = v.SetSelection(ctx, lineID, selected)
	cartMutationsTotal.WithLabelValues("select", outcome(err)).Inc()
	if err != nil {
		return cartview.Snapshot{}, err
	}

	snap := v.Snapshot()
	line, _ := v.Line(lineID)
	if err := s.events.PublishLineSelected(ctx, lineData(sess, line, snap)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.line_selected event",
			slog.String("line_id", lineID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart line selection changed",
		slog.String("line_id", lineID),
		slog.Bool("selected", selected),
	)

	return snap, nil
}

// SetQuantity changes the quantity of one line. Quantities below 1 are
// ignored and quantities above stock are clamped.
func (s *CartService) SetQuantity(ctx context.Context, sess *domain.Session, lineID string, quantity int) (cartview.Snapshot, error) {
	v, err := s.View(ctx, sess)
	if err != nil {
		return cartview.Snapshot{}, err
	}

	before, _ := v.Line(lineID)
	applied, err := v.SetQuantity(ctx, lineID, quantity)
	cartMutationsTotal.WithLabelValues("quantity", outcome(err)).Inc()
	if err != nil {
		return cartview.Snapshot{}, err
	}

	snap := v.Snapshot()
	if applied != before.Quantity {
		line, _ := v.Line(lineID)
		if err := s.events.PublishQuantityChanged(ctx, lineData(sess, line, snap)); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.quantity_changed event",
				slog.String("line_id", lineID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "cart line quantity updated",
		slog.String("line_id", lineID),
		slog.Int("requested", quantity),
		slog.Int("quantity", applied),
	)

	return snap, nil
}

// DeleteLine removes one line from the cart.
func (s *CartService) DeleteLine(ctx context.Context, sess *domain.Session, lineID string) (cartview.Snapshot, error) {
	v, err := s.View(ctx, sess)
	if err != nil {
		return cartview.Snapshot{}, err
	}

	line, ok := v.Line(lineID)
	if !ok {
		return cartview.Snapshot{}, apperrors.NotFound("cart line", lineID)
	}

	err = v.DeleteLine(ctx, lineID)
	cartMutationsTotal.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		return cartview.Snapshot{}, err
	}

	snap := v.Snapshot()
	if err := s.events.PublishLineRemoved(ctx, lineData(sess, line, snap)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.line_removed event",
			slog.String("line_id", lineID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart line removed",
		slog.String("line_id", lineID),
		slog.String("product_id", line.ProductID),
	)

	return snap, nil
}

// SelectAll selects or deselects every line. On partial failure the
// snapshot reflects the lines that were applied and the error lists the rest.
func (s *CartService) SelectAll(ctx context.Context, sess *domain.Session, selected bool) (cartview.Snapshot, error) {
	v, err := s.View(ctx, sess)
	if err != nil {
		return cartview.Snapshot{}, err
	}

	err = v.SelectAll(ctx, selected)
	cartMutationsTotal.WithLabelValues("select_all", outcome(err)).Inc()
	snap := v.Snapshot()
	if err != nil {
		s.logger.WarnContext(ctx, "select all partially failed",
			slog.Bool("selected", selected),
			slog.String("error", err.Error()),
		)
		return snap, fmt.Errorf("select all: %w", err)
	}

	data := event.CartAllSelectedData{
		ProfileID: sess.ProfileID,
		Selected:  selected,
		LineCount: snap.Summary.LineCount,
		CartTotal: int64(snap.Summary.Total),
	}
	if err := s.events.PublishAllSelected(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.all_selected event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart selection set for all lines",
		slog.Bool("selected", selected),
		slog.Int("line_count", snap.Summary.LineCount),
	)

	return snap, nil
}

func lineData(sess *domain.Session, line pricing.DisplayLine, snap cartview.Snapshot) event.CartLineData {
	return event.CartLineData{
		ProfileID: sess.ProfileID,
		LineID:    line.ID,
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Selected:  line.Selected,
		Quantity:  line.Quantity,
		CartTotal: int64(snap.Summary.Total),
	}
}

// cacheAside reads kind from the reference cache and falls back to fetch on
// a miss or a cache failure. Cache failures are logged, never returned.
func cacheAside[T any](
	ctx context.Context,
	s *CartService,
	kind repository.RefKind,
	get func(context.Context) (T, error),
	set func(context.Context, T) error,
	fetch func(context.Context) (T, error),
) (T, error) {
	v, err := get(ctx)
	if err == nil {
		referenceCacheRequestsTotal.WithLabelValues(string(kind), "hit").Inc()
		return v, nil
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		referenceCacheRequestsTotal.WithLabelValues(string(kind), "miss").Inc()
	} else {
		referenceCacheRequestsTotal.WithLabelValues(string(kind), "error").Inc()
		s.logger.WarnContext(ctx, "reference cache read failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}

	v, err = fetch(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("fetch %s: %w", kind, err)
	}

	if err := set(ctx, v); err != nil {
		s.logger.WarnContext(ctx, "reference cache write failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}
