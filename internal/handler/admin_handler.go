package handler

import (
	"net/http"
	"strconv"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/middleware"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	auth      *usecase.AdminAuthUsecase
	discounts *usecase.AdminDiscountUsecase
	audits    *usecase.AdminAuditUsecase
}

func NewAdminHandler(auth *usecase.AdminAuthUsecase, discounts *usecase.AdminDiscountUsecase, audits *usecase.AdminAuditUsecase) *AdminHandler {
	return &AdminHandler{auth: auth, discounts: discounts, audits: audits}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/admin/login", h.login)

	admin := e.Group("/admin")
	admin.Use(middleware.AdminJWT(cfg))

	admin.POST("/discounts", h.createDiscount)
	admin.GET("/discounts", h.listDiscounts)
	admin.PUT("/discounts/:id/disable", h.disableDiscount)
	admin.PUT("/discounts/:id/enable", h.enableDiscount)
	admin.GET("/audit-logs", h.listAuditLogs)
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AdminHandler) login(c echo.Context) error {
	var req AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) createDiscount(c echo.Context) error {
	var req usecase.CreateDiscountInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	d, err := h.discounts.Create(c.Request().Context(), adminActor(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) listDiscounts(c echo.Context) error {
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

	items, total, err := h.discounts.List(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"discounts": items,
		"total":     total,
	})
}

func (h *AdminHandler) setDiscountDisabled(c echo.Context, disabled bool) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.discounts.SetDisabled(c.Request().Context(), adminActor(c), id, disabled); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) disableDiscount(c echo.Context) error {
	return h.setDiscountDisabled(c, true)
}

func (h *AdminHandler) enableDiscount(c echo.Context) error {
	return h.setDiscountDisabled(c, false)
}

func (h *AdminHandler) listAuditLogs(c echo.Context) error {
	f := repository.AuditLogFilter{
		Actor: c.QueryParam("actor"),
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("resource_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ResourceID = &id
		}
	}
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.CreatedFrom = &t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.CreatedTo = &t
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			f.Limit = l
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			f.Offset = o
		}
	}

	logs, err := h.audits.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
