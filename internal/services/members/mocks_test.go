package members

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/sublimall/internal/lib/password"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

type RepoMock struct {
	mock.Mock
	txCalls int
}

// WithinTx выполняет fn сразу и считает вызовы.
func (m *RepoMock) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txCalls++
	return fn(ctx)
}

func (m *RepoMock) CountMembers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) MemberExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) CreateMember(ctx context.Context, member models.Member) (int64, error) {
	args := m.Called(ctx, member)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) member(args mock.Arguments) (*models.Member, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *RepoMock) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return m.member(m.Called(ctx, email))
}

func (m *RepoMock) GetMemberByRegistrationKey(ctx context.Context, id int64, key string) (*models.Member, error) {
	return m.member(m.Called(ctx, id, key))
}

func (m *RepoMock) GetMemberByPasswordKey(ctx context.Context, id int64, key string) (*models.Member, error) {
	return m.member(m.Called(ctx, id, key))
}

func (m *RepoMock) SetRegistrationKey(ctx context.Context, id int64, key *string) error {
	return m.Called(ctx, id, key).Error(0)
}

func (m *RepoMock) ActivateMember(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) SetPasswordKey(ctx context.Context, id int64, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

func (m *RepoMock) SetPassword(ctx context.Context, id int64, hash string, clearKey bool) error {
	return m.Called(ctx, id, hash, clearKey).Error(0)
}

func (m *RepoMock) SetAPIKey(ctx context.Context, id int64, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

func (m *RepoMock) DeleteMember(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) DeletePackagesByMember(ctx context.Context, memberID int64) ([]string, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type BlobsMock struct {
	mock.Mock
}

func (m *BlobsMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type SessionsMock struct {
	mock.Mock
}

func (m *SessionsMock) EndSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type fixture struct {
	repo     *RepoMock
	notifier *NotifierMock
	blobs    *BlobsMock
	sessions *SessionsMock
	svc      *Service
}

func newFixture(opts ...func(*Options)) *fixture {
	o := Options{
		SiteURL:    "http://localhost:8080",
		FromEmail:  "root@localhost",
		MaxMembers: 500,
		Policy: password.Policy{
			MinLength:     8,
			MaxLength:     128,
			RequireLetter: true,
			RequireDigit:  true,
		},
	}
	for _, fn := range opts {
		fn(&o)
	}
	f := &fixture{
		repo:     new(RepoMock),
		notifier: new(NotifierMock),
		blobs:    new(BlobsMock),
		sessions: new(SessionsMock),
	}
	f.svc = New(newNoopLogger(), f.repo, f.notifier, f.blobs, f.sessions, o)
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.svc.Wait()
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.blobs.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func strPtr(s string) *string { return &s }
