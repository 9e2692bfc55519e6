package recoveryrequest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sublimall/internal/http/view"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RequestRecovery(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func TestRequestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	v, err := view.New(logger)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	New(logger, new(MockService), v).Show(rr, httptest.NewRequest(http.MethodGet, "/password-recovery", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/password-recovery"`)

	tests := []struct {
		name    string
		mockErr error
	}{
		{name: "known or unknown email"},
		{name: "notification failure", mockErr: errors.New("smtp down")},
	}
	var responses []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			service.On("RequestRecovery", mock.Anything, "john@example.com").Return(tt.mockErr).Once()

			body := url.Values{"email": {"john@example.com"}}.Encode()
			req := httptest.NewRequest(http.MethodPost, "/password-recovery", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := httptest.NewRecorder()
			New(logger, service, v).Submit(rr, req)

			assert.Equal(t, http.StatusFound, rr.Code)
			assert.Equal(t, "/login", rr.Header().Get("Location"))
			responses = append(responses, rr.Header().Get("Set-Cookie"))
			service.AssertExpectations(t)
		})
	}
	require.Len(t, responses, 2)
	assert.Equal(t, responses[0], responses[1], "response shape does not depend on the outcome")
}
