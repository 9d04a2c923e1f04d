package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/service"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	ProductID   uint64 `json:"productId" validate:"required"`
	PackageType string `json:"packageType" validate:"required"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updateOrderProgressRequest struct {
	Progress *int `json:"progress" validate:"required"`
}

type adminUpdateOrderRequest struct {
	DeliveryDate *time.Time `json:"deliveryDate"`
	Progress     *int       `json:"progress"`
	Status       *string    `json:"status"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	o, err := h.svc.Create(c.Request().Context(), actorFrom(c), req.ProductID, model.PackageType(req.PackageType))
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"order": toOrderResponse(o)})
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.svc.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"order": toOrderResponse(o)})
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"orders": toOrderResponses(list)})
}

func (h *OrderHandler) ListAll(c echo.Context) error {
	list, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"orders": toOrderResponses(list)})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	o, err := h.svc.UpdateStatus(c.Request().Context(), id, model.OrderStatus(req.Status), actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"order": toOrderResponse(o)})
}

func (h *OrderHandler) UpdateProgress(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateOrderProgressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	o, err := h.svc.UpdateProgress(c.Request().Context(), id, *req.Progress, actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"order": toOrderResponse(o)})
}

func (h *OrderHandler) AdminUpdate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req adminUpdateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := service.AdminOrderUpdate{DeliveryDate: req.DeliveryDate, Progress: req.Progress}
	if req.Status != nil {
		s := model.OrderStatus(*req.Status)
		in.Status = &s
	}
	o, err := h.svc.AdminUpdate(c.Request().Context(), id, in, actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"order": toOrderResponse(o)})
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "Order deleted successfully"})
}
