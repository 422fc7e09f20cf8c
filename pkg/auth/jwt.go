package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 symmetric key.
	Secret string

	Issuer     string
	Expiration time.Duration
}

// JWTService handles JWT token operations.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWTService with the given configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt configuration requires a secret")
	}
	return &JWTService{config: cfg}, nil
}

// GenerateToken creates a new JWT token for the given user.
func (s *JWTService) GenerateToken(userID uuid.UUID, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID: userID,
		Roles:  roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ValidateToken parses and validates a JWT token string.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if s.config.Issuer != "" && claims.Issuer != s.config.Issuer {
		return nil, fmt.Errorf("invalid issuer: got %q, want %q", claims.Issuer, s.config.Issuer)
	}

	return claims, nil
}
