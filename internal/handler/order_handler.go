package handler

import (
	"net/http"
	"strconv"
	"time"

	"shop/internal/config"
	"shop/internal/middleware"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//公開
	e.GET("/orders/:id/track", h.track)

	//顧客操作（注文ID＋メール一致で認可）
	e.POST("/orders/:id/pay-customer", h.payCustomer)
	e.POST("/orders/:id/complete", h.complete)
	e.POST("/orders/:id/cancel-customer", h.cancelCustomer)
	e.POST("/orders/:id/return-request", h.returnRequest)

	//特権遷移
	admin := middleware.AdminJWT(cfg)
	e.POST("/orders/:id/pay", h.pay, admin)
	e.POST("/orders/:id/fulfill", h.fulfill, admin)
	e.POST("/orders/:id/ship", h.ship, admin)
	e.POST("/orders/:id/cancel", h.cancel, admin)
	e.GET("/orders/:id/events", h.events, admin)
	e.GET("/admin/orders", h.listAdmin, admin)
}

func orderIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func adminActor(c echo.Context) string {
	sub, _ := c.Get(middleware.CtxAdminSubKey).(string)
	return usecase.ActorAdmin(sub)
}

func (h *OrderHandler) track(c echo.Context) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Track(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type CustomerActionRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (h *OrderHandler) customerAction(c echo.Context, fn func(orderID int64, req CustomerActionRequest) error) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req CustomerActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "email required"})
	}

	if err := fn(id, req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OrderHandler) payCustomer(c echo.Context) error {
	return h.customerAction(c, func(orderID int64, req CustomerActionRequest) error {
		return h.uc.PayByCustomer(c.Request().Context(), orderID, req.Email)
	})
}

func (h *OrderHandler) complete(c echo.Context) error {
	return h.customerAction(c, func(orderID int64, req CustomerActionRequest) error {
		return h.uc.CompleteByCustomer(c.Request().Context(), orderID, req.Email)
	})
}

func (h *OrderHandler) cancelCustomer(c echo.Context) error {
	return h.customerAction(c, func(orderID int64, req CustomerActionRequest) error {
		return h.uc.CancelByCustomer(c.Request().Context(), orderID, req.Email)
	})
}

func (h *OrderHandler) returnRequest(c echo.Context) error {
	return h.customerAction(c, func(orderID int64, req CustomerActionRequest) error {
		return h.uc.RequestReturn(c.Request().Context(), orderID, req.Email, req.Reason)
	})
}

func (h *OrderHandler) adminTransition(c echo.Context, fn func(actor string, orderID int64) error) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := fn(adminActor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OrderHandler) pay(c echo.Context) error {
	return h.adminTransition(c, func(actor string, orderID int64) error {
		return h.uc.Pay(c.Request().Context(), actor, orderID)
	})
}

func (h *OrderHandler) fulfill(c echo.Context) error {
	return h.adminTransition(c, func(actor string, orderID int64) error {
		return h.uc.Fulfill(c.Request().Context(), actor, orderID)
	})
}

func (h *OrderHandler) ship(c echo.Context) error {
	return h.adminTransition(c, func(actor string, orderID int64) error {
		return h.uc.Ship(c.Request().Context(), actor, orderID)
	})
}

func (h *OrderHandler) cancel(c echo.Context) error {
	return h.adminTransition(c, func(actor string, orderID int64) error {
		return h.uc.Cancel(c.Request().Context(), actor, orderID)
	})
}

func (h *OrderHandler) events(c echo.Context) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	events, err := h.uc.ListEvents(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *OrderHandler) listAdmin(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	f := repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		Email:  c.QueryParam("email"),
	}
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}

	orders, total, err := h.uc.ListAdmin(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
	})
}
