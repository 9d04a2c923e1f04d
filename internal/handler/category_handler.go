package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/service"
)

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.svc.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"category": toCategoryResponse(cat)})
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"category": toCategoryResponse(cat)})
}

func (h *CategoryHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]CategoryResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toCategoryResponse(&list[i]))
	}
	return success(c, http.StatusOK, echo.Map{"categories": resp})
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.svc.Update(c.Request().Context(), id, req.Name)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"category": toCategoryResponse(cat)})
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "Category deleted successfully"})
}
