// Package shopapi is the client for the remote ShopSphere REST API, the
// store that owns carts, catalog, suppliers and flash sales.
package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httpclient"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/tracing"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
)

const (
	// ServiceName labels errors, spans and breaker metrics for this API.
	ServiceName = "shop-api"

	// DefaultSuccessCode is the envelope code the API uses for success.
	DefaultSuccessCode = 1000

	tracerName = "shopapi"
)

// Client calls the ShopSphere API. Every call must carry a bearer token
// except Login.
type Client struct {
	doer        httpclient.Doer
	baseURL     string
	successCode int
	logger      *slog.Logger
}

// New creates a client for baseURL. A successCode of 0 selects
// DefaultSuccessCode.
func New(doer httpclient.Doer, baseURL string, successCode int, logger *slog.Logger) *Client {
	if successCode == 0 {
		successCode = DefaultSuccessCode
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		doer:        doer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		successCode: successCode,
		logger:      logger,
	}
}

// Login exchanges credentials for an API token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := c.call(ctx, http.MethodPost, "/auth/login", "", loginRequest{Username: username, Password: password}, &res)
	if err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, apperrors.Upstream(ServiceName, "login returned no token")
	}
	return res, nil
}

// Logout invalidates token on the API.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", token, tokenRequest{Token: token}, nil)
}

// Cart fetches the cart of profileID.
func (c *Client) Cart(ctx context.Context, token, profileID string) (domain.Cart, error) {
	var dto cartDTO
	if err := c.call(ctx, http.MethodGet, "/carts/profile/"+url.PathEscape(profileID), token, nil, &dto); err != nil {
		return domain.Cart{}, err
	}
	return dto.toDomain(), nil
}

// SelectLine sets the selected flag of one cart item.
func (c *Client) SelectLine(ctx context.Context, token, lineID string, selected bool) error {
	return c.call(ctx, http.MethodPut, "/cart-items/"+url.PathEscape(lineID)+"/selected", token, selectedRequest{Selected: selected}, nil)
}

// UpdateQuantity sets the quantity of one cart item.
func (c *Client) UpdateQuantity(ctx context.Context, token, lineID string, quantity int) error {
	return c.call(ctx, http.MethodPut, "/cart-items/"+url.PathEscape(lineID)+"/quantity", token, quantityRequest{Quantity: quantity}, nil)
}

// DeleteLine removes one cart item.
func (c *Client) DeleteLine(ctx context.Context, token, lineID string) error {
	return c.call(ctx, http.MethodDelete, "/cart-items/"+url.PathEscape(lineID), token, nil, nil)
}

// Products fetches the product catalog.
func (c *Client) Products(ctx context.Context, token string) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.call(ctx, http.MethodGet, "/products", token, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(dtos))
	for i, p := range dtos {
		out[i] = p.toDomain()
	}
	return out, nil
}

// Suppliers fetches every supplier.
func (c *Client) Suppliers(ctx context.Context, token string) ([]domain.Supplier, error) {
	var dtos []supplierDTO
	if err := c.call(ctx, http.MethodGet, "/suppliers", token, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Supplier, len(dtos))
	for i, s := range dtos {
		out[i] = domain.Supplier{ID: s.ID.String(), Name: s.Name, ImageURL: s.ImageURL}
	}
	return out, nil
}

// ActiveFlashSales fetches the flash sales running now, in API order.
func (c *Client) ActiveFlashSales(ctx context.Context, token string) ([]domain.FlashSale, error) {
	var dtos []flashSaleDTO
	if err := c.call(ctx, http.MethodGet, "/flash-sales/active", token, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.FlashSale, len(dtos))
	for i, f := range dtos {
		out[i] = f.toDomain()
	}
	return out, nil
}

// call performs one request and decodes the envelope result into out, which
// may be nil. A call succeeds only on HTTP 2xx with the success code.
func (c *Client) call(ctx context.Context, method, path, token string, in, out any) (err error) {
	ctx, span := tracing.Start(ctx, tracerName, method+" "+path,
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	defer tracing.End(span, &err)

	var (
		body        []byte
		contentType string
	)
	if in != nil {
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		contentType = "application/json"
	}

	req, err := httpclient.NewRequest(ctx, method, c.baseURL+path, contentType, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", ServiceName, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, ServiceName)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.Upstream(ServiceName, fmt.Sprintf("decode %s response: %v", path, err))
	}
	if env.Code != c.successCode {
		c.logger.WarnContext(ctx, "shop api rejected request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("code", env.Code),
			slog.String("message", env.Message),
		)
		return apperrors.Upstream(ServiceName, fmt.Sprintf("code %d: %s", env.Code, env.Message))
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return apperrors.Upstream(ServiceName, fmt.Sprintf("decode %s result: %v", path, err))
	}
	return nil
}
