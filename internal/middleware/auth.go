package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/model"
)

const (
	HeaderAccessToken  = "access-token"
	HeaderRefreshToken = "refresh-token"
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"

	sessionKey = "session"
)

type AuthMiddleware struct {
	tokens       *auth.TokenManager
	sessions     auth.SessionStore
	cookieSecure bool
}

func NewAuthMiddleware(tokens *auth.TokenManager, sessions auth.SessionStore, cookieSecure bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, cookieSecure: cookieSecure}
}

// RequireAuth resolves the caller's session from the access token. An expired
// access token is renewed from the refresh token when the session still exists.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := accessToken(c)
		if token == "" {
			return apperr.Unauthorized(auth.ErrMissingToken)
		}
		claims, err := m.tokens.ParseAccess(token)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			return m.refresh(c, next)
		case err != nil:
			return apperr.Unauthorized(auth.ErrInvalidToken)
		}
		s, err := m.sessions.Load(c.Request().Context(), claims.ID)
		if err != nil {
			return sessionError(err)
		}
		c.Set(sessionKey, s)
		return next(c)
	}
}

func (m *AuthMiddleware) refresh(c echo.Context, next echo.HandlerFunc) error {
	token := c.Request().Header.Get(HeaderRefreshToken)
	if token == "" {
		if ck, err := c.Cookie(CookieRefreshToken); err == nil {
			token = ck.Value
		}
	}
	if token == "" {
		return apperr.Unauthorized(auth.ErrInvalidToken)
	}
	claims, err := m.tokens.ParseRefresh(token)
	if err != nil {
		return apperr.Unauthorized(auth.ErrInvalidToken)
	}
	ctx := c.Request().Context()
	s, err := m.sessions.Load(ctx, claims.ID)
	if err != nil {
		return sessionError(err)
	}
	if err := m.sessions.Save(ctx, *s); err != nil {
		return err
	}
	access, err := m.tokens.IssueAccess(s.ID)
	if err != nil {
		return err
	}
	c.Response().Header().Set(HeaderAccessToken, access)
	c.SetCookie(tokenCookie(CookieAccessToken, access, m.tokens.AccessTTL, m.cookieSecure))
	log.Printf("[auth] access token refreshed user_id=%d", s.ID)
	c.Set(sessionKey, s)
	return next(c)
}

// RequireRoles must run after RequireAuth.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok {
				return apperr.Unauthorized(auth.ErrMissingToken)
			}
			if !auth.Authorize(s.Role, roles...) {
				return apperr.Forbidden("Role: %s is not allowed to access this resource", s.Role)
			}
			return next(c)
		}
	}
}

func SessionFrom(c echo.Context) (*auth.Session, bool) {
	s, ok := c.Get(sessionKey).(*auth.Session)
	return s, ok && s != nil
}

// SetAuthCookies writes both tokens as http-only cookies.
func (m *AuthMiddleware) SetAuthCookies(c echo.Context, access, refresh string) {
	c.SetCookie(tokenCookie(CookieAccessToken, access, m.tokens.AccessTTL, m.cookieSecure))
	c.SetCookie(tokenCookie(CookieRefreshToken, refresh, m.tokens.RefreshTTL, m.cookieSecure))
}

func (m *AuthMiddleware) ClearAuthCookies(c echo.Context) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		ck := tokenCookie(name, "", 0, m.cookieSecure)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func accessToken(c echo.Context) string {
	if t := c.Request().Header.Get(HeaderAccessToken); t != "" {
		return t
	}
	if authz := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if ck, err := c.Cookie(CookieAccessToken); err == nil {
		return ck.Value
	}
	return ""
}

func tokenCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	}
}

func sessionError(err error) error {
	if errors.Is(err, auth.ErrSessionNotFound) {
		return apperr.Unauthorized(err)
	}
	return err
}
