package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/mailer"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult is returned by every operation that starts a session.
type LoginResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (activationToken string, err error)
	Activate(ctx context.Context, activationToken, code string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	SocialAuth(ctx context.Context, idToken string) (*LoginResult, error)
	Logout(ctx context.Context, actor Actor) error
	ForgotPassword(ctx context.Context, email string) (resetToken string, err error)
	VerifyResetOTP(ctx context.Context, resetToken, code string) (userID uint64, grant string, err error)
	ResetPassword(ctx context.Context, grant, newPassword string) error
}

type AuthDeps struct {
	Users    repository.UserRepository
	Tokens   *auth.TokenManager
	Sessions auth.SessionStore
	Grants   auth.GrantStore
	Mailer   mailer.Mailer
	Social   auth.SocialVerifier
}

type authService struct {
	users    repository.UserRepository
	tokens   *auth.TokenManager
	sessions auth.SessionStore
	grants   auth.GrantStore
	mailer   mailer.Mailer
	social   auth.SocialVerifier
	codeGen  func() (string, error)
}

func NewAuthService(d AuthDeps) AuthService {
	social := d.Social
	if social == nil {
		social = auth.DisabledVerifier{}
	}
	return &authService{
		users:    d.Users,
		tokens:   d.Tokens,
		sessions: d.Sessions,
		grants:   d.Grants,
		mailer:   d.Mailer,
		social:   social,
		codeGen:  auth.GenerateCode,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" {
		return "", apperr.BadRequest("name and email are required")
	}
	if in.Password != in.ConfirmPassword {
		return "", apperr.BadRequest("Passwords do not match")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return "", apperr.BadRequest("password must be at least %d characters", auth.MinPasswordLength)
	}
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", apperr.BadRequest("Email already exist")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	code, err := s.codeGen()
	if err != nil {
		return "", err
	}
	token, err := s.tokens.IssueActivation(auth.PendingUser{Name: strings.TrimSpace(in.Name), Email: email, PasswordHash: hash}, code)
	if err != nil {
		return "", err
	}
	err = s.mailer.Send(ctx, mailer.Message{
		To:       email,
		Subject:  "Activate your account",
		Template: mailer.TemplateActivation,
		Data:     mailer.CodeData{Name: in.Name, Code: code},
	})
	if err != nil {
		return "", apperr.Wrap(http.StatusBadRequest, err, fmt.Sprintf("failed to send activation email: %v", err))
	}
	return token, nil
}

func (s *authService) Activate(ctx context.Context, activationToken, code string) (*model.User, error) {
	claims, err := s.tokens.ParseActivation(activationToken)
	if err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, err, "Invalid or expired activation token")
	}
	if claims.ActivationCode != code {
		return nil, apperr.BadRequest("Invalid activation code")
	}
	taken, err := s.users.ExistsByEmail(ctx, claims.User.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.BadRequest("Email already exist")
	}
	u := &model.User{
		Name:         claims.User.Name,
		Email:        claims.User.Email,
		PasswordHash: claims.User.PasswordHash,
		Role:         model.RoleUser,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, duplicate(err, "Email already exist")
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.BadRequest("Please enter email and password")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.BadRequest("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.BadRequest("Invalid email or password")
	}
	return s.startSession(ctx, u)
}

func (s *authService) SocialAuth(ctx context.Context, idToken string) (*LoginResult, error) {
	id, err := s.social.Verify(ctx, idToken)
	switch {
	case errors.Is(err, auth.ErrSocialNotConfigured):
		return nil, apperr.Wrap(http.StatusInternalServerError, err, err.Error())
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return nil, apperr.Unauthorized(err)
	case err != nil:
		return nil, err
	}
	email := normalizeEmail(id.Email)
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = &model.User{
			Name:       id.Name,
			Email:      email,
			Role:       model.RoleUser,
			Avatar:     model.Asset{URL: id.Picture},
			IsVerified: true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

func (s *authService) startSession(ctx context.Context, u *model.User) (*LoginResult, error) {
	access, err := s.tokens.IssueAccess(u.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, auth.NewSession(u)); err != nil {
		return nil, err
	}
	return &LoginResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Logout(ctx context.Context, actor Actor) error {
	return s.sessions.Delete(ctx, actor.ID)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", notFound(err, "User")
	}
	code, err := s.codeGen()
	if err != nil {
		return "", err
	}
	token, err := s.tokens.IssueResetOTP(u.ID, code)
	if err != nil {
		return "", err
	}
	err = s.mailer.Send(ctx, mailer.Message{
		To:       u.Email,
		Subject:  "Reset Password OTP",
		Template: mailer.TemplateResetPassword,
		Data:     mailer.CodeData{Name: u.Name, Code: code},
	})
	if err != nil {
		return "", apperr.Wrap(http.StatusBadRequest, err, fmt.Sprintf("failed to send reset email: %v", err))
	}
	return token, nil
}

func (s *authService) VerifyResetOTP(ctx context.Context, resetToken, code string) (uint64, string, error) {
	claims, err := s.tokens.ParseResetOTP(resetToken)
	if err != nil {
		return 0, "", apperr.Wrap(http.StatusBadRequest, err, "Invalid or expired reset token")
	}
	if claims.Code != code {
		return 0, "", apperr.BadRequest("Invalid OTP code")
	}
	if _, err := s.users.FindByID(ctx, claims.UserID); err != nil {
		return 0, "", notFound(err, "User")
	}
	grant, grantID, err := s.tokens.IssueResetGrant(claims.UserID)
	if err != nil {
		return 0, "", err
	}
	if err := s.grants.Remember(ctx, grantID, claims.UserID, auth.ResetTTL); err != nil {
		return 0, "", err
	}
	return claims.UserID, grant, nil
}

func (s *authService) ResetPassword(ctx context.Context, grant, newPassword string) error {
	claims, err := s.tokens.ParseResetGrant(grant)
	if err != nil {
		return apperr.Wrap(http.StatusBadRequest, err, "Invalid or expired reset token")
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperr.BadRequest("password must be at least %d characters", auth.MinPasswordLength)
	}
	ok, err := s.grants.Consume(ctx, claims.ID, claims.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest("Invalid or expired reset token")
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return notFound(err, "User")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, u.ID); err != nil {
		return err
	}
	return nil
}
