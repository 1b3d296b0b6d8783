package middlewares

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"siasa-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ClearSession(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ListLoggedIn(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func setTestSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	// The secret is cached process-wide on first use; make sure the cache is
	// primed with the test value before any token work happens.
	if err := loadJWTSecret(); err != nil {
		t.Fatal(err)
	}
}

func signTestToken(t *testing.T, id uint, expiresAt time.Time) string {
	claims := &Claims{
		ID:       id,
		Username: "wanjiku",
		RoleID:   2,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func protectedApp(users *MockUserRepository) *fiber.App {
	app := fiber.New()
	app.Get("/secure", Protected(users), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})
	return app
}

func TestProtectedMissingHeader(t *testing.T) {
	setTestSecret(t)
	users := new(MockUserRepository)
	app := protectedApp(users)

	req := httptest.NewRequest("GET", "/secure", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProtectedValidTokenMatchingSession(t *testing.T) {
	setTestSecret(t)
	users := new(MockUserRepository)
	app := protectedApp(users)

	token := signTestToken(t, 7, time.Now().Add(time.Hour))
	users.On("FindByID", mock.Anything, uint(7)).Return(&models.User{
		ID:           7,
		SessionToken: token,
		IsLoggedIn:   true,
	}, nil)

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedStoredSessionMismatch(t *testing.T) {
	setTestSecret(t)
	users := new(MockUserRepository)
	app := protectedApp(users)

	token := signTestToken(t, 7, time.Now().Add(time.Hour))
	// The stored token differs: a later login replaced this session.
	other := signTestToken(t, 7, time.Now().Add(2*time.Hour))
	users.On("FindByID", mock.Anything, uint(7)).Return(&models.User{
		ID:           7,
		SessionToken: other,
		IsLoggedIn:   true,
	}, nil)

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedEmptyStoredSession(t *testing.T) {
	setTestSecret(t)
	users := new(MockUserRepository)
	app := protectedApp(users)

	token := signTestToken(t, 7, time.Now().Add(time.Hour))
	users.On("FindByID", mock.Anything, uint(7)).Return(&models.User{ID: 7}, nil)

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedExpiredTokenClearsSession(t *testing.T) {
	setTestSecret(t)
	users := new(MockUserRepository)
	app := protectedApp(users)

	token := signTestToken(t, 9, time.Now().Add(-time.Minute))
	users.On("ClearSession", mock.Anything, uint(9)).Return(nil)

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	users.AssertCalled(t, "ClearSession", mock.Anything, uint(9))
}

func TestProtectedGarbageToken(t *testing.T) {
	setTestSecret(t)
	users := new(MockUserRepository)
	app := protectedApp(users)

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	users.AssertNotCalled(t, "ClearSession", mock.Anything, mock.Anything)
}

func TestGenerateJWTRoundTrip(t *testing.T) {
	setTestSecret(t)
	user := &models.User{ID: 3, Username: "amina", RoleID: 1}

	token, err := GenerateJWT(user)
	assert.NoError(t, err)

	claims, err := ParseClaims(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(3), claims.ID)
	assert.Equal(t, "amina", claims.Username)
	assert.Equal(t, uint(1), claims.RoleID)
}
