package authmiddleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	authdomain "github.com/tipping-league/prediction-core/app/modules/auth/domain"
	authjwt "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/jwt"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/httpx"
)

type FakeProvider struct {
	ValidateTokenFunc func(token string) (*authdomain.Claims, error)
}

func (f *FakeProvider) GenerateToken(*authdomain.Claims, time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

func (f *FakeProvider) ValidateToken(token string) (*authdomain.Claims, error) {
	return f.ValidateTokenFunc(token)
}

var _ authjwt.Provider = (*FakeProvider)(nil)

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User", claims.UserID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) apperr.Code {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	provider := &FakeProvider{
		ValidateTokenFunc: func(token string) (*authdomain.Claims, error) {
			switch token {
			case "member-token":
				return &authdomain.Claims{UserID: "alice", Role: authdomain.RoleMember}, nil
			case "admin-token":
				return &authdomain.Claims{UserID: "root", Role: authdomain.RoleAdmin}, nil
			}
			return nil, authjwt.ErrInvalidToken
		},
	}

	tests := []struct {
		name       string
		header     string
		admin      bool
		wantStatus int
		wantCode   apperr.Code
		wantUser   string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantCode: apperr.CodeUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantCode: apperr.CodeUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: apperr.CodeUnauthorized},
		{name: "member", header: "Bearer member-token", wantStatus: http.StatusNoContent, wantUser: "alice"},
		{name: "member on admin route", header: "Bearer member-token", admin: true, wantStatus: http.StatusForbidden, wantCode: apperr.CodeForbidden},
		{name: "admin on admin route", header: "Bearer admin-token", admin: true, wantStatus: http.StatusNoContent, wantUser: "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h http.Handler = okHandler(t)
			if tt.admin {
				h = RequireAdmin(h)
			}
			h = Authenticate(provider)(h)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeCode(t, rec))
			}
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRequireAdmin_WithoutAuthenticate(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAdmin(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 2)
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1235"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1236"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234"))
}

func TestIPRateLimiter_PrunesIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return start }
	for i := 0; i <= pruneThreshold; i++ {
		limiter.Limiter(string(rune('a'+i%26)) + time.Duration(i).String())
	}

	limiter.now = func() time.Time { return start.Add(idleAfter + time.Minute) }
	limiter.Limiter("fresh")

	assert.Len(t, limiter.clients, 1)
}
