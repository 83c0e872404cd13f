package httpkit

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
)

type jwtSecret string

func (s jwtSecret) GetJWTAccessSecret() string { return string(s) }

const testSecret = jwtSecret("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor": id.Actor()})
	})
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, string(testSecret))

	w := call(authEngine(), "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user:"+userID.String())
}

func TestAuthRequiredRejects(t *testing.T) {
	userID := uuid.New().String()
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"refresh token":  "Bearer " + signToken(t, jwt.MapClaims{"sub": userID, "type": "refresh", "exp": exp}, string(testSecret)),
		"wrong secret":   "Bearer " + signToken(t, jwt.MapClaims{"sub": userID, "type": "access", "exp": exp}, "other"),
		"bad subject":    "Bearer " + signToken(t, jwt.MapClaims{"sub": "nope", "type": "access", "exp": exp}, string(testSecret)),
		"expired":        "Bearer " + signToken(t, jwt.MapClaims{"sub": userID, "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}, string(testSecret)),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, call(authEngine(), header).Code)
		})
	}
}

func TestIPRateLimiterBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewIPRateLimiter(0.0001, 2, nil).RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
