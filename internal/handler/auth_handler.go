package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/market-backend/internal/middleware"
	"github.com/shinyyama/market-backend/internal/service"
)

type AuthHandler struct {
	svc     service.AuthService
	cookies *appmw.AuthMiddleware
}

func NewAuthHandler(svc service.AuthService, cookies *appmw.AuthMiddleware) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

type registerRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type activateRequest struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type socialAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	ForgotToken string `json:"forgot_token" validate:"required"`
	ForgotCode  string `json:"forgot_code" validate:"required"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	token, err := h.svc.Register(c.Request().Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{
		"message":         "Please check your email: " + req.Email + " to activate your account!",
		"activationToken": token,
	})
}

func (h *AuthHandler) Activate(c echo.Context) error {
	var req activateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := h.svc.Activate(c.Request().Context(), req.ActivationToken, req.ActivationCode); err != nil {
		return err
	}
	return success(c, http.StatusCreated, nil)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendTokens(c, res)
}

func (h *AuthHandler) SocialAuth(c echo.Context) error {
	var req socialAuthRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.svc.SocialAuth(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	return h.sendTokens(c, res)
}

func (h *AuthHandler) sendTokens(c echo.Context, res *service.LoginResult) error {
	h.cookies.SetAuthCookies(c, res.AccessToken, res.RefreshToken)
	return success(c, http.StatusOK, echo.Map{
		"user":         toUserResponse(res.User),
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), actorFrom(c)); err != nil {
		return err
	}
	h.cookies.ClearAuthCookies(c)
	return success(c, http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	token, err := h.svc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{
		"message":            "OTP sent to: " + req.Email,
		"passwordResetToken": token,
	})
}

func (h *AuthHandler) VerifyResetOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, grant, err := h.svc.VerifyResetOTP(c.Request().Context(), req.ForgotToken, req.ForgotCode)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"userId": userID, "resetToken": grant})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.svc.ResetPassword(c.Request().Context(), req.ResetToken, req.NewPassword); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "Password updated successfully"})
}
