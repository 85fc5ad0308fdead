package admin

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/internal/users"
	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
	"github.com/syncdeck/syncdeck-backend/pkg/security"
)

type stubUserStore struct {
	users      map[uuid.UUID]*models.User
	listRows   []models.User
	listParams *users.ListParams
	hashes     map[uuid.UUID]string
}

func newStubUserStore(seed ...*models.User) *stubUserStore {
	store := &stubUserStore{
		users:  map[uuid.UUID]*models.User{},
		hashes: map[uuid.UUID]string{},
	}
	for _, user := range seed {
		store.users[user.ID] = user
	}
	return store
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserStore) List(ctx context.Context, params users.ListParams) ([]models.User, *pagination.Cursor, error) {
	s.listParams = &params
	return s.listRows, nil, nil
}

func (s *stubUserStore) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) (bool, error) {
	user, ok := s.users[id]
	if !ok {
		return false, nil
	}
	user.IsActive = active
	return true, nil
}

func (s *stubUserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.hashes[id] = hash
	return nil
}

type stubAdminTx struct{}

func (stubAdminTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAdminOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubAdminOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func seedUser(role enums.UserRole, active bool) *models.User {
	return &models.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@example.com",
		DisplayName: "Test User",
		Role:        role,
		IsActive:    active,
	}
}

func newAdminTestService(t *testing.T, store *stubUserStore) (Service, *stubAdminOutbox) {
	t.Helper()
	sink := &stubAdminOutbox{}
	svc, err := NewService(ServiceParams{
		Users:  store,
		Tx:     stubAdminTx{},
		Outbox: sink,
		Logger: logger.New(logger.Options{ServiceName: "admin-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, sink
}

func assertAdminCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, pkgerrors.As(err).Code())
}

func TestDeactivateUserEmitsEvent(t *testing.T) {
	artist := seedUser(enums.UserRoleArtist, true)
	store := newStubUserStore(artist)
	svc, sink := newAdminTestService(t, store)
	adminID := uuid.New()

	dto, err := svc.DeactivateUser(context.Background(), adminID, artist.ID)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)
	assert.False(t, store.users[artist.ID].IsActive)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, enums.EventUserDeactivated, event.EventType)
	assert.Equal(t, enums.AggregateUser, event.AggregateType)
	assert.Equal(t, artist.ID, event.AggregateID)
	require.NotNil(t, event.Actor)
	assert.Equal(t, adminID, event.Actor.UserID)
}

func TestDeactivateUserIsIdempotent(t *testing.T) {
	artist := seedUser(enums.UserRoleArtist, false)
	store := newStubUserStore(artist)
	svc, sink := newAdminTestService(t, store)

	dto, err := svc.DeactivateUser(context.Background(), uuid.New(), artist.ID)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)
	assert.Empty(t, sink.events, "no event for an already inactive account")
}

func TestDeactivateUserGuards(t *testing.T) {
	admin := seedUser(enums.UserRoleAdmin, true)
	otherAdmin := seedUser(enums.UserRoleAdmin, true)
	store := newStubUserStore(admin, otherAdmin)
	svc, sink := newAdminTestService(t, store)

	_, err := svc.DeactivateUser(context.Background(), admin.ID, admin.ID)
	assertAdminCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.DeactivateUser(context.Background(), admin.ID, otherAdmin.ID)
	assertAdminCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.DeactivateUser(context.Background(), admin.ID, uuid.New())
	assertAdminCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.DeactivateUser(context.Background(), admin.ID, uuid.Nil)
	assertAdminCode(t, err, pkgerrors.CodeValidation)

	assert.Empty(t, sink.events)
	assert.True(t, store.users[otherAdmin.ID].IsActive)
}

func TestReactivateUser(t *testing.T) {
	exec := seedUser(enums.UserRoleExec, false)
	store := newStubUserStore(exec)
	svc, sink := newAdminTestService(t, store)

	dto, err := svc.ReactivateUser(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.True(t, dto.IsActive)
	assert.True(t, store.users[exec.ID].IsActive)
	assert.Empty(t, sink.events, "reactivation emits no event")

	// Second call is a no-op.
	dto, err = svc.ReactivateUser(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.True(t, dto.IsActive)
}

func TestResetPasswordStoresVerifiableHash(t *testing.T) {
	artist := seedUser(enums.UserRoleArtist, true)
	store := newStubUserStore(artist)
	svc, _ := newAdminTestService(t, store)

	result, err := svc.ResetPassword(context.Background(), artist.ID)
	require.NoError(t, err)
	require.Len(t, result.TempPassword, tempPasswordLength)

	hash := store.hashes[artist.ID]
	require.NotEmpty(t, hash)
	ok, err := security.VerifyPassword(result.TempPassword, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.ResetPassword(context.Background(), uuid.New())
	assertAdminCode(t, err, pkgerrors.CodeNotFound)
}

func TestListUsersPassesFilters(t *testing.T) {
	role := enums.UserRoleExec
	store := newStubUserStore()
	store.listRows = []models.User{*seedUser(role, true), *seedUser(role, true)}
	svc, _ := newAdminTestService(t, store)

	cursor := pagination.EncodeCursor(pagination.Cursor{ID: uuid.New()})
	list, err := svc.ListUsers(context.Background(), ListUsersParams{Role: &role, Limit: 25, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, list.Users, 2)
	assert.Empty(t, list.NextCursor)

	require.NotNil(t, store.listParams)
	require.NotNil(t, store.listParams.Role)
	assert.Equal(t, role, *store.listParams.Role)
	assert.Equal(t, 25, store.listParams.Limit)
	require.NotNil(t, store.listParams.Cursor)

	_, err = svc.ListUsers(context.Background(), ListUsersParams{Cursor: "%%%"})
	assertAdminCode(t, err, pkgerrors.CodeValidation)
}
