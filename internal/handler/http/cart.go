package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/cartview"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/format"
	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httputil"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	carts     CartService
	formatter *format.Formatter
	logger    *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts CartService, formatter *format.Formatter, logger *slog.Logger) *CartHandler {
	if formatter == nil {
		formatter = format.Vietnamese()
	}
	return &CartHandler{
		carts:     carts,
		formatter: formatter,
		logger:    logger,
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	v, err := h.carts.View(r.Context(), sess)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, v.Snapshot())
}

// RefreshCart handles POST /api/v1/cart/refresh
func (h *CartHandler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	v, err := h.carts.LoadView(r.Context(), sess)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, v.Snapshot())
}

// SetSelection handles PUT /api/v1/cart/lines/{lineId}/selection
func (h *CartHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	var req SelectionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.carts.SetSelection(r.Context(), sess, chi.URLParam(r, "lineId"), *req.Selected)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, snap)
}

// SetQuantity handles PUT /api/v1/cart/lines/{lineId}/quantity
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	var req QuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.carts.SetQuantity(r.Context(), sess, chi.URLParam(r, "lineId"), *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, snap)
}

// DeleteLine handles DELETE /api/v1/cart/lines/{lineId}
func (h *CartHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	snap, err := h.carts.DeleteLine(r.Context(), sess, chi.URLParam(r, "lineId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, snap)
}

// SelectAll handles PUT /api/v1/cart/selection
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	var req SelectionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.carts.SelectAll(r.Context(), sess, *req.Selected)
	var partial *cartview.PartialError
	switch {
	case errors.As(err, &partial):
		httputil.WriteErrorWithData(w, r, err, toCartResponse(snap, h.formatter), h.logger)
		return
	case err != nil:
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, snap)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, snap cartview.Snapshot) {
	httputil.WriteData(w, toCartResponse(snap, h.formatter))
}

// writeNoSession covers handlers mounted without SessionAuth.
func writeNoSession(w http.ResponseWriter, r *http.Request, l *slog.Logger) {
	httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), l)
}
