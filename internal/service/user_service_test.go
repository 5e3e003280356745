package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-app/daylog-api/internal/models"
	appErrors "github.com/daylog-app/daylog-api/pkg/errors"
	"github.com/daylog-app/daylog-api/pkg/hash"
)

type mockUserStore struct {
	mockCredStore
	loginIDs  map[string]bool
	nicknames map[string]bool
	created   []*models.User
	profiles  map[int64]*models.Profile
}

func (m *mockUserStore) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	return m.loginIDs[loginID], nil
}

func (m *mockUserStore) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return m.nicknames[nickname], nil
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	user.ID = int64(len(m.created) + 1)
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserStore) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		loginIDs:  map[string]bool{},
		nicknames: map[string]bool{},
		profiles:  map[int64]*models.Profile{},
	}
}

func validRegisterRequest() models.RegisterRequest {
	return models.RegisterRequest{
		LoginID:  "user123",
		Password: "Abc123!@",
		Name:     "Test User",
		Nickname: "tester",
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newMockUserStore()
	hasher := hash.NewArgon2()
	svc := NewUserService(store, hasher, nil, nil)

	user, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.NotEqual(t, "Abc123!@", user.PasswordHash)
	assert.True(t, hasher.Verify(user.PasswordHash, "Abc123!@"))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(store *mockUserStore)
		message string
	}{
		{
			name:    "login id taken",
			setup:   func(store *mockUserStore) { store.loginIDs["user123"] = true },
			message: "login id already in use",
		},
		{
			name:    "nickname taken",
			setup:   func(store *mockUserStore) { store.nicknames["tester"] = true },
			message: "nickname already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockUserStore()
			tt.setup(store)
			svc := NewUserService(store, hash.NewArgon2(), nil, nil)

			_, err := svc.Register(context.Background(), validRegisterRequest())
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Empty(t, store.created)
		})
	}
}

func TestRegisterValidatesPayload(t *testing.T) {
	svc := NewUserService(newMockUserStore(), hash.NewArgon2(), nil, nil)

	req := validRegisterRequest()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetProfile(t *testing.T) {
	store := newMockUserStore()
	store.profiles[10] = &models.Profile{Nickname: "tester"}
	svc := NewUserService(store, hash.NewArgon2(), nil, nil)

	profile, err := svc.GetProfile(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "tester", profile.Nickname)

	_, err = svc.GetProfile(context.Background(), 11)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
