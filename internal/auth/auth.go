// Package auth issues and validates the JWT tokens guarding the ops API.
// Clients are registered with a fixed permission set: "ops" covers ingest
// and trade status, "internal" additionally covers the reprocessing
// endpoints.
package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fxops/confirmhub/pkg/response"
)

// Permissions a token can carry.
const (
	PermissionOps      = "ops"
	PermissionInternal = "internal"
)

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// Demo credentials, registered by the server and used by the simulation.
var (
	TestAPIKey    = "test-api-key"
	TestAPISecret = "test-api-secret"
)

// Credentials is the body of a token request.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// TokenResponse is the issued JWT with its expiry.
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Claims is the hub's JWT claim set.
type Claims struct {
	jwt.RegisteredClaims
	ClientID    string   `json:"client_id"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the token carries the permission.
func (c *Claims) HasPermission(permission string) bool {
	for _, have := range c.Permissions {
		if have == permission {
			return true
		}
	}
	return false
}

type apiClient struct {
	secret      string
	permissions []string
}

// Service issues tokens for registered API clients.
type Service struct {
	jwtSecret []byte
	clients   map[string]apiClient
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		clients:   make(map[string]apiClient),
	}
}

// RegisterAPICredentials adds one API client and the permissions its tokens
// will carry; with none given the client gets plain ops access. Registration
// is in-memory: client provisioning is a deployment concern, not an API
// surface.
func (s *Service) RegisterAPICredentials(apiKey, apiSecret string, permissions ...string) {
	if len(permissions) == 0 {
		permissions = []string{PermissionOps}
	}
	s.clients[apiKey] = apiClient{secret: apiSecret, permissions: permissions}
}

// GenerateToken checks the credentials and issues a token carrying the
// client's registered permissions.
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	client, ok := s.clients[creds.APIKey]
	if !ok || client.secret != creds.APISecret {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	expiration := now.Add(tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		ClientID:    creds.APIKey,
		Permissions: client.permissions,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}
	return &TokenResponse{Token: tokenString, Expiration: expiration}, nil
}

// ValidateToken verifies signature and expiry and returns the typed claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GinHandlers contains HTTP handlers for authentication endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GenerateTokenHandler exchanges API credentials for a JWT.
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}
