package handler

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"storefront-cart/internal/adapter/backend"
	"storefront-cart/internal/adapter/notify"
	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/core/service"
	"storefront-cart/internal/port"
)

// HTTPHandler exposes the cart store, the sync operations and the order
// flow to UI callers. Identity comes from the JWT's user_id claim; every
// request runs against that user's session.
type HTTPHandler struct {
	sessions *service.SessionManager
	journal  port.DatabaseRepository
	hub      *notify.WSHub
}

func NewHTTPHandler(sessions *service.SessionManager, journal port.DatabaseRepository, hub *notify.WSHub) *HTTPHandler {
	return &HTTPHandler{sessions: sessions, journal: journal, hub: hub}
}

// Register mounts the routes. Everything under /api requires a valid token.
func (h *HTTPHandler) Register(e *echo.Echo, jwtSecret []byte) {
	e.GET("/health", h.HealthCheck)
	e.GET("/ws/orders", h.OrdersSocket)

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{SigningKey: jwtSecret}))
	api.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(50))))

	api.GET("/cart", h.GetCart)
	api.POST("/cart", h.AddItem)
	api.PUT("/cart/:item_id", h.UpdateItem)
	api.DELETE("/cart/:item_id", h.RemoveItem)
	api.POST("/cart/toggle", h.ToggleCart)

	api.POST("/orders/confirm", h.ConfirmOrder)
	api.POST("/orders/submit", h.SubmitOrder)
	api.POST("/orders/cancel", h.CancelOrder)
	api.GET("/orders/flow", h.FlowStatus)
	api.GET("/orders", h.ListOrders)

	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.SaveProfile)

	api.POST("/logout", h.Logout)
}

type AddItemRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

type UpdateItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ToggleCartRequest struct {
	Open *bool `json:"open"`
}

type ConfirmOrderRequest struct {
	// ItemIDs selects cart lines to order. Empty means the whole cart.
	ItemIDs []string `json:"item_ids"`
}

func (h *HTTPHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) OrdersSocket(c echo.Context) error {
	return h.hub.Serve(c.Response(), c.Request())
}

func (h *HTTPHandler) GetCart(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session.Cart.Store().Snapshot())
}

func (h *HTTPHandler) AddItem(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product := domain.Product{
		ID:       req.ProductID,
		Name:     req.Name,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		Stock:    req.Stock,
	}
	if err := session.Cart.AddItem(c.Request().Context(), product, req.Quantity); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, session.Cart.Store().Snapshot())
}

func (h *HTTPHandler) UpdateItem(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	itemID := c.Param("item_id")
	if err := session.Cart.UpdateQuantity(c.Request().Context(), itemID, req.ProductID, req.Quantity); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, session.Cart.Store().Snapshot())
}

func (h *HTTPHandler) RemoveItem(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	if err := session.Cart.RemoveItem(c.Request().Context(), c.Param("item_id")); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, session.Cart.Store().Snapshot())
}

func (h *HTTPHandler) ToggleCart(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req ToggleCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	if req.Open != nil {
		session.Cart.Store().SetOpen(*req.Open)
	} else {
		session.Cart.Store().Toggle()
	}
	return c.JSON(http.StatusOK, session.Cart.Store().Snapshot())
}

func (h *HTTPHandler) ConfirmOrder(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req ConfirmOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	snapshot := session.Cart.Store().Snapshot()
	items := snapshot.Items
	if len(req.ItemIDs) > 0 {
		wanted := make(map[string]bool, len(req.ItemIDs))
		for _, id := range req.ItemIDs {
			wanted[id] = true
		}
		selected := items[:0]
		for _, item := range items {
			if wanted[item.ItemID] {
				selected = append(selected, item)
			}
		}
		items = selected
	}

	if err := session.Orders.Confirm(items); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, session.Orders.Status())
}

func (h *HTTPHandler) SubmitOrder(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	if err := session.Orders.Submit(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, service.ErrProfileIncomplete):
			return c.JSON(http.StatusUnprocessableEntity, session.Orders.Status())
		case errors.Is(err, service.ErrNotConfirming), errors.Is(err, service.ErrSubmitInFlight):
			return c.JSON(http.StatusConflict, errorBody(err.Error()))
		default:
			return h.serviceError(c, err)
		}
	}
	return c.JSON(http.StatusOK, session.Orders.Status())
}

func (h *HTTPHandler) CancelOrder(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	session.Orders.Cancel()
	return c.JSON(http.StatusOK, session.Orders.Status())
}

func (h *HTTPHandler) FlowStatus(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session.Orders.Status())
}

func (h *HTTPHandler) ListOrders(c echo.Context) error {
	records, err := h.journal.ListOrders(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody("failed to list orders"))
	}
	return c.JSON(http.StatusOK, records)
}

func (h *HTTPHandler) GetProfile(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	profile, err := session.Profile.Profile(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *HTTPHandler) SaveProfile(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var profile domain.UserProfile
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
	}

	userID := userIDFrom(c)
	profile.ID = userID
	session.Profile.Save(userID, profile)
	return c.JSON(http.StatusAccepted, profile)
}

func (h *HTTPHandler) Logout(c echo.Context) error {
	h.sessions.Drop(userIDFrom(c))
	return c.NoContent(http.StatusNoContent)
}

func (h *HTTPHandler) session(c echo.Context) (*service.Session, error) {
	userID := userIDFrom(c)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}

	// A failed initial cart fetch still yields a usable session; the
	// store reports loading until a refresh succeeds.
	session, _ := h.sessions.Session(c.Request().Context(), userID)
	return session, nil
}

func (h *HTTPHandler) serviceError(c echo.Context, err error) error {
	var server *backend.ServerError
	switch {
	case errors.Is(err, service.ErrQuantityTooLow), errors.Is(err, service.ErrEmptyOrder):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &server):
		return c.JSON(http.StatusBadGateway, errorBody(server.Body))
	default:
		return c.JSON(http.StatusInternalServerError, errorBody("operation failed"))
	}
}

func userIDFrom(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	userID, _ := claims["user_id"].(string)
	return userID
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
