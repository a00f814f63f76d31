package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"inventory-api/internal/config"
	"inventory-api/internal/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type AuthService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
}

type Claims struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	UserType  string `json:"user_type"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func NewAuthService(cfg config.Config, logger zerolog.Logger) *AuthService {
	return &AuthService{
		secretKey:  []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		logger:     logger,
	}
}

// GeneratePair mints the access/refresh token pair for an authenticated
// user. Nothing is persisted; validity is carried by the signature and
// expiry claims alone.
func (s *AuthService) GeneratePair(user *models.User) (*models.TokenPair, error) {
	access, err := s.generateToken(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.generateToken(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{Access: access, Refresh: refresh}, nil
}

// GenerateAccess mints a new access token, used by the refresh flow.
func (s *AuthService) GenerateAccess(user *models.User) (string, error) {
	return s.generateToken(user, TokenTypeAccess, s.accessTTL)
}

func (s *AuthService) generateToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		UserType:  user.UserType,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.Error().Err(err).Str("token_type", tokenType).Msg("Error generating token")
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ValidateRefresh verifies a refresh token. Access tokens are rejected
// so a short-lived token cannot be replayed to mint new ones.
func (s *AuthService) ValidateRefresh(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return nil, errors.New("not a refresh token")
	}

	return claims, nil
}
