package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(testSecret))
	r.GET("/me", func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "role": role})
	})
	r.GET("/driver", RequireDriver(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_ValidToken(t *testing.T) {
	r := newAuthRouter()
	token := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{UserID: "user-a", Role: domain.UserRolePassenger})

	w := doRequest(r, "/me", token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"user-a","role":"passenger"}`, w.Body.String())
}

func TestAuthenticate_Rejects(t *testing.T) {
	expired := Claims{
		UserID: "user-a",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing header",
			token:   func(*testing.T) string { return "" },
			wantErr: "missing bearer token",
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signToken(t, []byte("other"), jwt.SigningMethodHS256, Claims{UserID: "user-a"})
			},
			wantErr: "invalid token",
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.SigningMethodHS512, Claims{UserID: "user-a"})
			},
			wantErr: "invalid token",
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.SigningMethodHS256, expired)
			},
			wantErr: "token expired",
		},
		{
			name: "no subject",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.SigningMethodHS256, Claims{Role: domain.UserRoleDriver})
			},
			wantErr: "token has no subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(newAuthRouter(), "/me", tt.token(t))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantErr+`"}`, w.Body.String())
		})
	}
}

func TestRequireDriver(t *testing.T) {
	r := newAuthRouter()

	passenger := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{UserID: "user-a", Role: domain.UserRolePassenger})
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/driver", passenger).Code)

	driver := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{UserID: "driver-1", Role: domain.UserRoleDriver})
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/driver", driver).Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "req-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, w.Header().Get(requestIDHeader), w.Body.String())
}

func TestIdempotencyKey_ScopedPerCallerAndTarget(t *testing.T) {
	a := idempotencyKey("user-a", http.MethodPost, "/v1/trips/trip-1/book", "k1")
	b := idempotencyKey("user-b", http.MethodPost, "/v1/trips/trip-1/book", "k1")
	c := idempotencyKey("user-a", http.MethodPost, "/v1/trips/trip-2/book", "k1")

	assert.Equal(t, "idempotency:user-a:POST:/v1/trips/trip-1/book:k1", a)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}
