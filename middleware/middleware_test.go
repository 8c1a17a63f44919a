package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"transit-delay-api/config"
	"transit-delay-api/models"
	"transit-delay-api/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAuth() *services.AuthService {
	return services.NewAuthService(nil, config.JWTConfig{Secret: "middleware-secret", ExpiryHours: 1})
}

func TestRequireAuthAndRole(t *testing.T) {
	auth := newTestAuth()
	operator, _ := auth.GenerateToken(1, "ops@transit.example", models.RoleOperator)
	analyst, _ := auth.GenerateToken(2, "ana@transit.example", models.RoleAnalyst)

	r := gin.New()
	r.DELETE("/cleanup", RequireAuth(auth), RequireRole(models.RoleOperator), func(c *gin.Context) {
		claims, _ := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user": claims.UserID})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"analyst", "Bearer " + analyst, http.StatusForbidden},
		{"operator", "Bearer " + operator, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/cleanup", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	if generated == "" || w.Body.String() != generated {
		t.Errorf("generated id header %q body %q", generated, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "trace-123" {
		t.Errorf("propagated id = %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/predict", RateLimit(1, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/predict", RateLimit(0, 0), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status %d", i, w.Code)
		}
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.Allow("10.0.0.1") || rl.Allow("10.0.0.1") {
		t.Error("first client should get exactly one token")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second client has its own bucket")
	}
}

func TestSetupCORS(t *testing.T) {
	r := gin.New()
	r.Use(SetupCORS(config.CORSConfig{AllowedOrigins: "https://ops.transit.example"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://ops.transit.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.transit.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"*", 1},
		{"", 0},
		{"https://a.example, https://b.example ,", 2},
	}
	for _, tt := range tests {
		if got := parseOrigins(tt.raw); len(got) != tt.want {
			t.Errorf("parseOrigins(%q) = %v, want %d entries", tt.raw, got, tt.want)
		}
	}
}
