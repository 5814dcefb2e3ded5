package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-cart/internal/core/domain"
)

// HTTPGateway talks to the storefront REST backend. The backend wraps every
// response in the envelope {status, message, data}; decode normalizes the
// two success conventions the backend drifted between (numeric 0 and the
// string "success") in one place.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ServerError is a non-2xx backend response. The body text is surfaced to
// the user verbatim.
type ServerError struct {
	Code int
	Body string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return http.StatusText(e.Code)
	}
	return e.Body
}

type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) ok() bool {
	status := strings.TrimSpace(string(e.Status))
	return status == "0" || status == `"success"`
}

func (g *HTTPGateway) FetchCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := g.do(ctx, http.MethodGet, "/cart", userID, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (g *HTTPGateway) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	var item domain.CartItem
	if err := g.do(ctx, http.MethodPost, "/cart", userID, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *HTTPGateway) UpdateCartItem(ctx context.Context, userID, itemID, productID string, quantity int) (*domain.CartItem, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	var item domain.CartItem
	if err := g.do(ctx, http.MethodPut, "/cart/"+itemID, userID, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *HTTPGateway) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	return g.do(ctx, http.MethodDelete, "/cart/"+itemID, userID, nil, nil)
}

func (g *HTTPGateway) SubmitOrders(ctx context.Context, userID string, orders []domain.OrderRequest) error {
	return g.do(ctx, http.MethodPost, "/orders/list", userID, orders, nil)
}

func (g *HTTPGateway) FetchProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := g.do(ctx, http.MethodGet, "/user", userID, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (g *HTTPGateway) SaveProfile(ctx context.Context, userID string, profile domain.UserProfile) error {
	return g.do(ctx, http.MethodPut, "/user", userID, profile, nil)
}

// do sends one request and decodes the enveloped response into out. A
// non-2xx status becomes a *ServerError carrying the raw body; an envelope
// whose status is neither 0 nor "success" fails with its message.
func (g *HTTPGateway) do(ctx context.Context, method, path, userID string, body, out any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if !env.ok() {
		message := env.Message
		if message == "" {
			message = "backend reported failure"
		}
		return &ServerError{Code: resp.StatusCode, Body: message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
