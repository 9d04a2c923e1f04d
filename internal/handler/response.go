package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/apperr"
	appmw "github.com/shinyyama/market-backend/internal/middleware"
	"github.com/shinyyama/market-backend/internal/service"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}

// success writes {"success": true} merged with fields.
func success(c echo.Context, status int, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(status, body)
}

// HTTPErrorHandler answers every error returned by a handler or middleware.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := apperr.Status(err)
	msg := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %s %s status=%d err=%v", c.Request().Method, c.Path(), status, err)
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			msg = "Internal server error"
		}
	}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, NewErrorResponse(msg))
	}
	if werr != nil {
		log.Printf("[http] write error response failed err=%v", werr)
	}
}

// Validator adapts request DTO validation to echo's Validator.
type Validator struct{}

func (Validator) Validate(i interface{}) error {
	return service.ValidateStruct(i)
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return c.Validate(req)
}

func actorFrom(c echo.Context) service.Actor {
	s, ok := appmw.SessionFrom(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{ID: s.ID, Role: s.Role}
}

func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("invalid %s", name)
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
