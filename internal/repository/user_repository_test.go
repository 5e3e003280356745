package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/daylog-app/daylog-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows(user *models.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "login_id", "name", "nickname", "password_hash", "profile_image_url", "status", "created_at", "updated_at"}).
		AddRow(user.ID, user.LoginID, user.Name, user.Nickname, user.PasswordHash, nil, user.Status, time.Now(), time.Now())
}

func TestUserRepositoryFindByLoginID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	want := &models.User{ID: 1, LoginID: "user123", Name: "Test", Nickname: "tester", PasswordHash: "hash", Status: models.StatusActive}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, login_id, name, nickname, password_hash")).
		WithArgs("user123").
		WillReturnRows(userRows(want))

	found, err := repo.FindByLoginID(context.Background(), "user123")
	require.NoError(t, err)
	require.Equal(t, want.ID, found.ID)
	require.Equal(t, want.LoginID, found.LoginID)
	require.Equal(t, models.StatusActive, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByLoginIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, login_id, name, nickname, password_hash")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByLoginID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	want := &models.User{ID: 42, LoginID: "user42", Name: "Forty Two", Nickname: "ft", PasswordHash: "hash", Status: models.StatusActive}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, login_id, name, nickname, password_hash")).
		WithArgs(int64(42)).
		WillReturnRows(userRows(want))

	found, err := repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE login_id")).
		WithArgs("user123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE nickname")).
		WithArgs("tester").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsByLoginID(context.Background(), "user123")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsByNickname(context.Background(), "tester")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	user := &models.User{LoginID: "user123", Name: "Test", Nickname: "tester", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	require.Equal(t, int64(7), user.ID)
	require.Equal(t, models.StatusActive, user.Status)
	require.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetProfile(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nickname, profile_image_url FROM users")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"nickname", "profile_image_url"}).AddRow("tester", nil))

	profile, err := repo.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "tester", profile.Nickname)
	require.Nil(t, profile.ProfileImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}
