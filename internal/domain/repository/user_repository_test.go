package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columnNames = []string{
	"id", "kind", "role", "first_name", "middle_name", "last_name", "email", "password_hash",
	"gender", "dob", "phone_number", "address", "country_of_residence", "state_of_residence", "profile",
	"is_verified", "is_updated", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPgUserRepository(db), mock
}

func userRow(rows *sqlmock.Rows, id, email string) *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "student", "student", "Ada", "", "Lovelace", email, "$2a$10$hash",
		"Female", dob, "123", "1 Lane", "UK", "London", []byte(`{"nokName":"Byron"}`),
		false, false, now, now)
}

func TestPgUserRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	user := &model.User{ID: "u1", Kind: model.KindStudent, Role: model.RoleStudent, FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com"}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("u1", "student", "student", "Ada", "", "Lovelace", "ada@x.com", "", "", nil, "", "", "", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, now, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUserRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.User{ID: "u1", Kind: model.KindStudent})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestPgUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE kind = \$1 AND lower\(email\) = lower\(\$2\)`).
		WithArgs("student", "ADA@x.com").
		WillReturnRows(userRow(sqlmock.NewRows(columnNames), "u1", "ada@x.com"))

	user, err := repo.FindByEmail(context.Background(), model.KindStudent, "ADA@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, model.KindStudent, user.Kind)
	assert.Equal(t, "Byron", user.NokName)
	require.NotNil(t, user.DOB)
	assert.Equal(t, 1815, user.DOB.Year())
}

func TestPgUserRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE kind = \$1 AND id = \$2`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE kind = \$1 AND id = \$2`).
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	_, err := repo.FindByID(context.Background(), model.KindStudent, "missing")
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = repo.FindByID(context.Background(), model.KindStudent, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestPgUserRepository_FindPrincipal_DriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).WillReturnError(boom)

	_, err := repo.FindPrincipal(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestPgUserRepository_UpdatePassword(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE users SET password_hash = \$3`).
		WithArgs("student", "u1", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET password_hash = \$3`).
		WithArgs("student", "gone", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), model.KindStudent, "u1", "newhash"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), model.KindStudent, "gone", "newhash"), common.ErrUserNotFound)
}

func TestPgUserRepository_MarkVerified(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE users SET is_verified = TRUE`).
		WithArgs("student", "u1").
		WillReturnRows(userRow(sqlmock.NewRows(columnNames), "u1", "ada@x.com"))

	user, err := repo.MarkVerified(context.Background(), model.KindStudent, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestPgUserRepository_List_Unpaginated(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).
		WithArgs("student", "student").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	rows := sqlmock.NewRows(columnNames)
	userRow(rows, "u1", "a@x.com")
	userRow(rows, "u2", "b@x.com")
	mock.ExpectQuery(`ORDER BY created_at, id$`).
		WithArgs("student", "student").
		WillReturnRows(rows)

	page, err := repo.List(context.Background(), ListQuery{Kind: model.KindStudent, Role: model.RoleStudent, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 1, page.Pages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUserRepository_List_Paginated(t *testing.T) {
	repo, mock := newMockRepo(t)
	page := 2

	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs("student", "student", 10, 10).
		WillReturnRows(userRow(sqlmock.NewRows(columnNames), "u11", "k@x.com"))

	got, err := repo.List(context.Background(), ListQuery{Kind: model.KindStudent, Role: model.RoleStudent, Page: &page, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 25, got.Count)
	assert.Len(t, got.Users, 1)
}

func TestPgUserRepository_List_PageOutOfRange(t *testing.T) {
	repo, mock := newMockRepo(t)
	page := 4

	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	_, err := repo.List(context.Background(), ListQuery{Kind: model.KindStudent, Role: model.RoleStudent, Page: &page, PageSize: 10})
	assert.ErrorIs(t, err, common.ErrPageOutOfRange)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUserRepository_Search(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`ILIKE \$2`).
		WithArgs("student", `%100\%\_lo%`).
		WillReturnRows(sqlmock.NewRows(columnNames))

	users, err := repo.Search(context.Background(), model.KindStudent, "100%_lo")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
