package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/service"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Amount fields sent by clients are ignored; only these are read.
type createPaymentRequest struct {
	OrderID        uint64          `json:"orderId" validate:"required"`
	PaymentMethod  string          `json:"paymentMethod" validate:"required"`
	PaymentDetails json.RawMessage `json:"paymentDetails"`
}

type updatePaymentStatusRequest struct {
	Status string `json:"paymentStatus" validate:"required"`
}

func (h *PaymentHandler) Create(c echo.Context) error {
	var req createPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), actorFrom(c), service.CreatePaymentInput{
		OrderID: req.OrderID,
		Method:  model.PaymentMethod(req.PaymentMethod),
		Details: req.PaymentDetails,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"payment": toPaymentResponse(p)})
}

func (h *PaymentHandler) GetByOrder(c echo.Context) error {
	orderID, err := paramID(c, "orderId")
	if err != nil {
		return err
	}
	p, err := h.svc.GetByOrder(c.Request().Context(), actorFrom(c), orderID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"payment": toPaymentResponse(p)})
}

func (h *PaymentHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"payments": toPaymentResponses(list)})
}

func (h *PaymentHandler) ListAll(c echo.Context) error {
	list, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"payments": toPaymentResponses(list)})
}

func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updatePaymentStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.UpdateStatus(c.Request().Context(), id, model.PaymentStatus(req.Status))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"payment": toPaymentResponse(p)})
}

func (h *PaymentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "Payment deleted successfully"})
}
