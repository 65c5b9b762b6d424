package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/infrastructure"
	"github.com/mafiacoder/backend/internal/service"
)

const testSecret = "test-secret"

type noopUserRepo struct{}

func (noopUserRepo) Create(*domain.User) error { return nil }
func (noopUserRepo) FindByID(uuid.UUID) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (noopUserRepo) FindByEmail(string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (noopUserRepo) MarkSolved(uuid.UUID, uuid.UUID, int, int) error { return nil }
func (noopUserRepo) CountSolved(uuid.UUID) (int64, error)            { return 0, nil }
func (noopUserRepo) TopByXP(int) ([]domain.User, error)              { return nil, nil }

type noopSubmissionRepo struct{}

func (noopSubmissionRepo) Create(*domain.Submission) error { return nil }
func (noopSubmissionRepo) FindByID(uuid.UUID) (*domain.Submission, error) {
	return nil, domain.ErrSubmissionNotFound
}
func (noopSubmissionRepo) FindByUserID(uuid.UUID) ([]domain.Submission, error) { return nil, nil }
func (noopSubmissionRepo) FinalizeVerdict(uuid.UUID, domain.JudgeResult) error { return nil }
func (noopSubmissionRepo) CountAccepted(uuid.UUID, uuid.UUID, *uuid.UUID) (int64, error) {
	return 0, nil
}
func (noopSubmissionRepo) CountSolvedByDifficulty(uuid.UUID, domain.Difficulty) (int64, error) {
	return 0, nil
}

// signToken issues a token the way the user service does
func signToken(t *testing.T, userID uuid.UUID, role domain.Role, tokenType string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Minute).Unix(),
		"iss":  "test",
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	userService := service.NewUserService(
		noopUserRepo{},
		noopSubmissionRepo{},
		&infrastructure.JWTConfig{
			SecretKey:          testSecret,
			AccessTokenExpiry:  time.Minute,
			RefreshTokenExpiry: time.Hour,
			Issuer:             "test",
		},
		noop.NewTracerProvider().Tracer("test"),
		zap.NewNop(),
	)

	router := gin.New()
	router.Use(AuthMiddleware(userService))
	router.GET("/me", func(c *gin.Context) {
		userID, ok := RequireUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	router.GET("/admin", func(c *gin.Context) {
		if _, ok := RequireAdmin(c); !ok {
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthorizationHeader, BearerPrefix+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	router := setupAuthRouter()
	w := doRequest(router, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	router := setupAuthRouter()
	w := doRequest(router, "/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	router := setupAuthRouter()
	token := signToken(t, uuid.New(), domain.RoleUser, "refresh")
	w := doRequest(router, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router := setupAuthRouter()
	token := signToken(t, uuid.New(), domain.RoleUser, "access")
	w := doRequest(router, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminForbidsPlainUser(t *testing.T) {
	router := setupAuthRouter()
	token := signToken(t, uuid.New(), domain.RoleUser, "access")
	w := doRequest(router, "/admin", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	router := setupAuthRouter()
	token := signToken(t, uuid.New(), domain.RoleAdmin, "access")
	w := doRequest(router, "/admin", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
