package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/service"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type createReviewRequest struct {
	ProductID uint64 `json:"productId" validate:"required"`
	OrderID   uint64 `json:"orderId"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required"`
}

func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	r, err := h.svc.Create(c.Request().Context(), actorFrom(c), service.CreateReviewInput{
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"review": toReviewResponse(r)})
}

func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	list, err := h.svc.ListByProduct(c.Request().Context(), productID)
	if err != nil {
		return err
	}
	resp := make([]ReviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toReviewResponse(&list[i]))
	}
	return success(c, http.StatusOK, echo.Map{"reviews": resp})
}
