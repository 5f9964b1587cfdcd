package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/pkg/metrics"
	"apartment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSessions struct {
	session *entity.Session
	err     error
	token   string
}

func (f *fakeSessions) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	f.token = token
	return f.session, f.err
}

type fakeUsers struct {
	user *entity.User
	err  error
}

func (f *fakeUsers) FindByID(context.Context, uuid.UUID) (*entity.User, error) {
	return f.user, f.err
}

func okHandler(t *testing.T, wantUser uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := utils.GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, wantUser, got)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthSession(t *testing.T) {
	userID := uuid.New()
	token := uuid.New()
	valid := &entity.Session{UserID: userID, Token: token, ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name   string
		header string
		repo   *fakeSessions
		want   int
	}{
		{"missing header", "", &fakeSessions{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", &fakeSessions{}, http.StatusUnauthorized},
		{"empty token", "Bearer ", &fakeSessions{}, http.StatusUnauthorized},
		{"unknown session", "Bearer " + token.String(), &fakeSessions{}, http.StatusUnauthorized},
		{"store failure", "Bearer " + token.String(), &fakeSessions{err: errors.New("down")}, http.StatusServiceUnavailable},
		{"valid", "Bearer " + token.String(), &fakeSessions{session: valid}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthSession(tt.repo, zap.NewNop())(okHandler(t, userID)).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, token.String(), tt.repo.token)
			}
		})
	}
}

func TestAdmin(t *testing.T) {
	userID := uuid.New()
	admin := &entity.User{Role: entity.RoleAdmin, IsActive: true}
	customer := &entity.User{Role: entity.RoleCustomer, IsActive: true}

	tests := []struct {
		name string
		repo *fakeUsers
		want int
	}{
		{"admin", &fakeUsers{user: admin}, http.StatusNoContent},
		{"customer", &fakeUsers{user: customer}, http.StatusForbidden},
		{"inactive admin", &fakeUsers{user: &entity.User{Role: entity.RoleAdmin}}, http.StatusForbidden},
		{"missing user", &fakeUsers{}, http.StatusForbidden},
		{"store failure", &fakeUsers{err: errors.New("down")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/bookings", nil)
			req = req.WithContext(utils.SetUserContext(req.Context(), userID, string(entity.RoleCustomer)))
			rec := httptest.NewRecorder()

			Admin(tt.repo, zap.NewNop())(okHandler(t, userID)).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Admin(&fakeUsers{user: admin}, zap.NewNop())(okHandler(t, userID)).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/bookings", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/admin/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/bookings/"+uuid.NewString(), nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(
		m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/admin/bookings/{id}", "404")))
}
