package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shinyyama/market-backend/internal/config"
)

const (
	ActivationTTL = 5 * time.Minute
	ResetTTL      = 5 * time.Minute

	purposeResetOTP   = "reset_otp"
	purposeResetGrant = "reset_grant"
)

// Claims is carried by access and refresh tokens.
type Claims struct {
	ID uint64 `json:"id"`
	jwt.RegisteredClaims
}

// PendingUser is a registration waiting for its activation code.
type PendingUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type ActivationClaims struct {
	User           PendingUser `json:"user"`
	ActivationCode string      `json:"activationCode"`
	jwt.RegisteredClaims
}

type ResetClaims struct {
	UserID  uint64 `json:"userId"`
	Code    string `json:"code,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	accessSecret     []byte
	refreshSecret    []byte
	activationSecret []byte
	forgotSecret     []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	now              func() time.Time
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		accessSecret:     []byte(cfg.AccessTokenSecret),
		refreshSecret:    []byte(cfg.RefreshTokenSecret),
		activationSecret: []byte(cfg.ActivationSecret),
		forgotSecret:     []byte(cfg.ForgotSecret),
		AccessTTL:        cfg.AccessTokenTTL,
		RefreshTTL:       cfg.RefreshTokenTTL,
		now:              time.Now,
	}
}

func (m *TokenManager) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parse(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err == nil {
		return nil
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}

func (m *TokenManager) IssueAccess(userID uint64) (string, error) {
	return sign(&Claims{ID: userID, RegisteredClaims: m.registered(m.AccessTTL)}, m.accessSecret)
}

func (m *TokenManager) IssueRefresh(userID uint64) (string, error) {
	return sign(&Claims{ID: userID, RegisteredClaims: m.registered(m.RefreshTTL)}, m.refreshSecret)
}

// ParseAccess returns ErrTokenExpired for a well-signed but expired token and
// ErrInvalidToken for anything else that fails.
func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	var c Claims
	if err := parse(token, &c, m.accessSecret); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	var c Claims
	if err := parse(token, &c, m.refreshSecret); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *TokenManager) IssueActivation(u PendingUser, code string) (string, error) {
	return sign(&ActivationClaims{User: u, ActivationCode: code, RegisteredClaims: m.registered(ActivationTTL)}, m.activationSecret)
}

func (m *TokenManager) ParseActivation(token string) (*ActivationClaims, error) {
	var c ActivationClaims
	if err := parse(token, &c, m.activationSecret); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *TokenManager) IssueResetOTP(userID uint64, code string) (string, error) {
	return sign(&ResetClaims{UserID: userID, Code: code, Purpose: purposeResetOTP, RegisteredClaims: m.registered(ResetTTL)}, m.forgotSecret)
}

func (m *TokenManager) ParseResetOTP(token string) (*ResetClaims, error) {
	return m.parseReset(token, purposeResetOTP)
}

// IssueResetGrant signs a reset grant for userID and returns it with its token id.
// The grant is single use only when the id is tracked in a GrantStore.
func (m *TokenManager) IssueResetGrant(userID uint64) (token, id string, err error) {
	rc := m.registered(ResetTTL)
	rc.ID = uuid.NewString()
	token, err = sign(&ResetClaims{UserID: userID, Purpose: purposeResetGrant, RegisteredClaims: rc}, m.forgotSecret)
	return token, rc.ID, err
}

func (m *TokenManager) ParseResetGrant(token string) (*ResetClaims, error) {
	return m.parseReset(token, purposeResetGrant)
}

func (m *TokenManager) parseReset(token, purpose string) (*ResetClaims, error) {
	var c ResetClaims
	if err := parse(token, &c, m.forgotSecret); err != nil {
		return nil, err
	}
	if c.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// GenerateCode returns a random four digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
