package middlewares

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"siasa-backend/models"
	"siasa-backend/repository"
	"siasa-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// Claims is the session token payload.
type Claims struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	RoleID   uint   `json:"role_id"`
	jwt.RegisteredClaims
}

var (
	secretOnce sync.Once
	jwtSecret  []byte
	secretErr  error
)

func loadJWTSecret() error {
	secretOnce.Do(func() {
		sec := os.Getenv("JWT_SECRET_KEY")
		if strings.TrimSpace(sec) == "" {
			sec = os.Getenv("JWT_SECRET")
		}
		if strings.TrimSpace(sec) == "" {
			secretErr = errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
			return
		}
		jwtSecret = []byte(sec)
	})
	return secretErr
}

// ParseClaims verifies a raw token (HS256 only) and returns its claims.
func ParseClaims(raw string) (*Claims, error) {
	if err := loadJWTSecret(); err != nil {
		return nil, err
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// decodeExpiredClaims extracts claims from a token without verifying the
// signature. Used only to identify the principal behind an expired token.
func decodeExpiredClaims(raw string) *Claims {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil
	}
	return &claims
}

// Protected validates the bearer token and enforces the single-session policy:
// the token must verify AND match the session token currently stored for the
// principal. An expired token clears the stored session as a side effect so it
// cannot linger as "active".
func Protected(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return utils.Respond(c, fiber.StatusForbidden, "Token is required", nil)
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return utils.Respond(c, fiber.StatusForbidden, "Token is required", nil)
		}

		claims, err := ParseClaims(raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				if expired := decodeExpiredClaims(raw); expired != nil && expired.ID != 0 {
					_ = users.ClearSession(c.Context(), expired.ID)
				}
				return utils.Respond(c, fiber.StatusUnauthorized, "Session expired. Please log in again.", nil)
			}
			return utils.Respond(c, fiber.StatusUnauthorized, "invalid or expired token", nil)
		}

		user, err := users.FindByID(c.Context(), claims.ID)
		if err != nil || user.SessionToken == "" || user.SessionToken != raw {
			return utils.Respond(c, fiber.StatusUnauthorized, "Invalid session. Please log in again.", nil)
		}

		c.Locals("userID", claims.ID)
		c.Locals("username", claims.Username)
		c.Locals("roleID", claims.RoleID)

		return c.Next()
	}
}

// GenerateJWT signs a 24h HS256 session token for the user.
func GenerateJWT(user *models.User) (string, error) {
	if err := loadJWTSecret(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		ID:       user.ID,
		Username: user.Username,
		RoleID:   user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// GenerateRefreshToken signs a 7d token carrying only the user id.
func GenerateRefreshToken(user *models.User) (string, error) {
	if err := loadJWTSecret(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		ID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
