package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/service"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type createProductRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description" validate:"required"`
	CategoryID  uint64            `json:"categoryId"`
	Price       *model.PriceTiers `json:"price" validate:"required"`
	Tags        []string          `json:"tags"`
	Image       string            `json:"image"`
	Thumbnail   string            `json:"thumbnail"`
}

type updateProductRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	CategoryID  *uint64           `json:"categoryId"`
	Price       *model.PriceTiers `json:"price"`
	Tags        []string          `json:"tags"`
	Image       string            `json:"image"`
	Thumbnail   string            `json:"thumbnail"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), actorFrom(c), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		Tags:        req.Tags,
		Image:       req.Image,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"product": toProductResponse(p)})
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), actorFrom(c), id, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		Tags:        req.Tags,
		Image:       req.Image,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"product": toProductResponse(p)})
}

func (h *ProductHandler) ToggleAvailability(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.ToggleAvailability(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"product": toProductResponse(p)})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"product": toProductResponse(p)})
}

func (h *ProductHandler) List(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		return err
	}
	return sendProductPage(c, page)
}

func (h *ProductHandler) ListByCategory(c echo.Context) error {
	categoryID, err := paramID(c, "categoryId")
	if err != nil {
		return err
	}
	page, err := h.svc.ListByCategory(c.Request().Context(), categoryID, queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		return err
	}
	return sendProductPage(c, page)
}

func (h *ProductHandler) ListMine(c echo.Context) error {
	page, err := h.svc.ListBySeller(c.Request().Context(), actorFrom(c).ID, queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		return err
	}
	return sendProductPage(c, page)
}

func (h *ProductHandler) Search(c echo.Context) error {
	in := service.SearchProductsInput{
		Query: c.QueryParam("q"),
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
	}
	if v := c.QueryParam("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return apperr.BadRequest("invalid category")
		}
		in.CategoryID = id
	}
	if v := c.QueryParam("tags"); v != "" {
		in.Tags = strings.Split(v, ",")
	}
	var err error
	if in.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return err
	}
	if in.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return err
	}
	page, err := h.svc.Search(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return sendProductPage(c, page)
}

func sendProductPage(c echo.Context, page *service.ProductPage) error {
	return success(c, http.StatusOK, echo.Map{
		"products":      toProductResponses(page.Products),
		"currentPage":   page.CurrentPage,
		"totalPages":    page.TotalPages,
		"totalProducts": page.TotalProducts,
	})
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperr.BadRequest("invalid %s", name)
	}
	return &d, nil
}
