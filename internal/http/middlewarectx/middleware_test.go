package middlewarectx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, token string) (*models.Member, string, error) {
	args := m.Called(ctx, token)
	member, _ := args.Get(0).(*models.Member)
	return member, args.String(1), args.Error(2)
}

type fakeCookies struct {
	token   string
	cleared bool
}

func (c *fakeCookies) Read(*http.Request) string { return c.token }
func (c *fakeCookies) Clear(http.ResponseWriter) { c.cleared = true }

func TestSession(t *testing.T) {
	member := &models.Member{ID: 7, Email: "john@example.com"}

	tests := []struct {
		name        string
		token       string
		mockMember  *models.Member
		mockErr     error
		wantMember  bool
		wantCleared bool
	}{
		{name: "no cookie"},
		{name: "valid session", token: "tok", mockMember: member, wantMember: true},
		{name: "rejected token", token: "bad", mockErr: errors.New("no session"), wantCleared: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(ResolverMock)
			if tt.token != "" {
				resolver.On("Resolve", mock.Anything, tt.token).Return(tt.mockMember, "sid", tt.mockErr).Once()
			}
			cookies := &fakeCookies{token: tt.token}

			var gotMember *models.Member
			var gotSID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMember, _ = MemberFromContext(r.Context())
				gotSID = SessionIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			Session(sl.Discard(), resolver, cookies)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantCleared, cookies.cleared)
			if tt.wantMember {
				assert.Equal(t, member, gotMember)
				assert.Equal(t, "sid", gotSID)
			} else {
				assert.Nil(t, gotMember)
				assert.Empty(t, gotSID)
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestRequireMember(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequireMember("/login")(next)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/account", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req = req.WithContext(WithMember(req.Context(), &models.Member{ID: 1}, "sid"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestIPLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "limits are per ip")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(limiterIdle + time.Second)
	l.Allow("3.3.3.3")
	assert.Len(t, l.visitors, 1, "idle visitors are dropped")
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateLimitMiddleware(sl.Discard(), NewIPLimiter(0.001, 1))(next)

	do := func(method, addr string) int {
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "10.0.0.2:1234"))
}

func TestIPLimiter_SweepInterval(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0
	l := NewIPLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = t0.Add(30 * time.Second)
	l.Allow("b")

	now = t0.Add(limiterIdle + 20*time.Second)
	l.Allow("c")
	assert.Len(t, l.visitors, 2, "a is dropped, b is still fresh")

	now = t0.Add(limiterIdle + 40*time.Second)
	l.Allow("c")
	assert.Len(t, l.visitors, 2, "no sweep within the sweep interval")

	now = t0.Add(limiterIdle + 90*time.Second)
	l.Allow("c")
	assert.Len(t, l.visitors, 1)
}

func TestRateLimit_ClientAddr(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		trustProxy bool
		wantPassed int
	}{
		{name: "X-Forwarded-For без доверенного прокси игнорируется", trustProxy: false, wantPassed: 5},
		{name: "за доверенным прокси адрес из заголовка", trustProxy: true, wantPassed: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ClientAddr(tt.trustProxy)(RateLimitMiddleware(sl.Discard(), NewIPLimiter(0.001, 5))(next))

			passed := 0
			for i := 0; i < 50; i++ {
				req := httptest.NewRequest(http.MethodPost, "/login", nil)
				req.RemoteAddr = "192.0.2.1:4321"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
				rr := httptest.NewRecorder()
				h.ServeHTTP(rr, req)
				if rr.Code == http.StatusOK {
					passed++
				}
			}
			assert.Equal(t, tt.wantPassed, passed)
		})
	}
}

type maintenanceStub struct {
	called bool
}

func (m *maintenanceStub) Maintenance(w http.ResponseWriter, _ *http.Request) {
	m.called = true
	w.WriteHeader(http.StatusServiceUnavailable)
}

func TestMaintenance(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	view := &maintenanceStub{}
	rr := httptest.NewRecorder()
	Maintenance(true, view)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.True(t, view.called)

	view = &maintenanceStub{}
	rr = httptest.NewRecorder()
	Maintenance(false, view)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, view.called)
}

type observerStub struct {
	method, route string
	status        int
}

func (o *observerStub) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.method, o.route, o.status = method, route, status
}

func TestMetrics(t *testing.T) {
	obs := &observerStub{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Get("/account/packages/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/account/packages/42", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "/account/packages/{id}", obs.route)
	assert.Equal(t, http.StatusNotFound, obs.status)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusOK, obs.status)
	assert.Equal(t, http.MethodGet, obs.method)
}
