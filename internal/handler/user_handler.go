package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type updateUserInfoRequest struct {
	Name string `json:"name" validate:"required"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

type updateRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user seller admin"`
}

func (h *UserHandler) Me(c echo.Context) error {
	u, err := h.svc.Me(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"user": toUserResponse(u)})
}

func (h *UserHandler) UpdateInfo(c echo.Context) error {
	var req updateUserInfoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := h.svc.UpdateInfo(c.Request().Context(), actorFrom(c), req.Name)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"user": toUserResponse(u)})
}

func (h *UserHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.UpdatePassword(c.Request().Context(), actorFrom(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"message": "Password updated successfully"})
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	var req updateAvatarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := h.svc.UpdateAvatar(c.Request().Context(), actorFrom(c), req.Avatar)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"user": toUserResponse(u)})
}

func (h *UserHandler) BecomeSeller(c echo.Context) error {
	u, err := h.svc.BecomeSeller(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{
		"message": "You are now a seller!",
		"user":    toUserResponse(u),
	})
}

func (h *UserHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	users := make([]UserResponse, 0, len(list))
	for i := range list {
		users = append(users, toUserResponse(&list[i]))
	}
	return success(c, http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := h.svc.UpdateRole(c.Request().Context(), req.Email, model.Role(req.Role))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"user": toUserResponse(u)})
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
