package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// ListQuery selects users of one kind and role. A nil Page returns every
// match on a single page.
type ListQuery struct {
	Kind     model.Kind
	Role     model.Role
	Page     *int
	PageSize int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, kind model.Kind, email string) (*model.User, error)
	FindByID(ctx context.Context, kind model.Kind, id string) (*model.User, error)
	// FindPrincipal looks a user up by id regardless of kind.
	FindPrincipal(ctx context.Context, id string) (*model.User, error)
	MarkVerified(ctx context.Context, kind model.Kind, id string) (*model.User, error)
	UpdatePassword(ctx context.Context, kind model.Kind, id, passwordHash string) error
	UpdateProfile(ctx context.Context, user *model.User) (*model.User, error)
	List(ctx context.Context, q ListQuery) (*model.UserPage, error)
	Search(ctx context.Context, kind model.Kind, text string) ([]*model.User, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, kind, role, first_name, middle_name, last_name, email, password_hash,
	gender, dob, phone_number, address, country_of_residence, state_of_residence, profile,
	is_verified, is_updated, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user    model.User
		dob     sql.NullTime
		profile []byte
	)
	err := row.Scan(
		&user.ID, &user.Kind, &user.Role, &user.FirstName, &user.MiddleName, &user.LastName, &user.Email,
		&user.PasswordHash, &user.Gender, &dob, &user.PhoneNumber, &user.Address, &user.CountryOfResidence,
		&user.StateOfResidence, &profile, &user.IsVerified, &user.IsUpdated, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		user.DOB = &t
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &user.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	return &user, nil
}

// lookupErr translates a failed single-row lookup. Malformed ids are
// indistinguishable from unknown ones to callers.
func lookupErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return common.ErrUserNotFound
	}
	return fmt.Errorf("pgUserRepository.%s: %w", op, err)
}

func nullableDOB(user *model.User) sql.NullTime {
	if user.DOB == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *user.DOB, Valid: true}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query := `INSERT INTO users (id, kind, role, first_name, middle_name, last_name, email, password_hash,
	              gender, dob, phone_number, address, country_of_residence, state_of_residence, profile)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Kind, user.Role, user.FirstName, user.MiddleName, user.LastName, user.Email, user.PasswordHash,
		user.Gender, nullableDOB(user), user.PhoneNumber, user.Address, user.CountryOfResidence, user.StateOfResidence, profile,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return common.ErrDuplicateEmail
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, kind model.Kind, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE kind = $1 AND lower(email) = lower($2)`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, kind, email))
	if err != nil {
		return nil, lookupErr("FindByEmail", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, kind model.Kind, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE kind = $1 AND id = $2`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, kind, id))
	if err != nil {
		return nil, lookupErr("FindByID", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindPrincipal(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, lookupErr("FindPrincipal", err)
	}
	return user, nil
}

func (r *pgUserRepository) MarkVerified(ctx context.Context, kind model.Kind, id string) (*model.User, error) {
	query := `UPDATE users SET is_verified = TRUE, updated_at = now()
	          WHERE kind = $1 AND id = $2
	          RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, kind, id))
	if err != nil {
		return nil, lookupErr("MarkVerified", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, kind model.Kind, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $3, updated_at = now() WHERE kind = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, kind, id, passwordHash)
	if err != nil {
		return lookupErr("UpdatePassword", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword: %w", err)
	}
	if n == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// UpdateProfile writes the editable fields of user and marks it updated.
func (r *pgUserRepository) UpdateProfile(ctx context.Context, user *model.User) (*model.User, error) {
	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	query := `UPDATE users SET first_name = $3, middle_name = $4, last_name = $5, gender = $6, dob = $7,
	              phone_number = $8, address = $9, country_of_residence = $10, state_of_residence = $11,
	              profile = $12, is_updated = TRUE, updated_at = now()
	          WHERE kind = $1 AND id = $2
	          RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Kind, user.ID, user.FirstName, user.MiddleName, user.LastName, user.Gender, nullableDOB(user),
		user.PhoneNumber, user.Address, user.CountryOfResidence, user.StateOfResidence, profile,
	))
	if err != nil {
		return nil, lookupErr("UpdateProfile", err)
	}
	return updated, nil
}

func (r *pgUserRepository) List(ctx context.Context, q ListQuery) (*model.UserPage, error) {
	var count int
	countQuery := `SELECT count(*) FROM users WHERE kind = $1 AND role = $2`
	if err := r.db.QueryRowContext(ctx, countQuery, q.Kind, q.Role).Scan(&count); err != nil {
		return nil, fmt.Errorf("pgUserRepository.List count: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE kind = $1 AND role = $2 ORDER BY created_at, id`
	args := []any{q.Kind, q.Role}
	pages := 1

	if q.Page != nil {
		pageSize := q.PageSize
		if pageSize <= 0 {
			pageSize = 10
		}
		pages = (count + pageSize - 1) / pageSize
		if *q.Page < 1 || *q.Page > pages {
			return nil, common.ErrPageOutOfRange
		}
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, pageSize, (*q.Page-1)*pageSize)
	}

	users, err := r.queryUsers(ctx, "List", query, args...)
	if err != nil {
		return nil, err
	}
	return &model.UserPage{Users: users, Count: count, Pages: pages}, nil
}

// Search matches text case-insensitively as a substring of the name,
// email, address and residence fields. No match yields an empty slice.
func (r *pgUserRepository) Search(ctx context.Context, kind model.Kind, text string) ([]*model.User, error) {
	pattern := "%" + escapeLike(text) + "%"
	query := `SELECT ` + userColumns + ` FROM users
	          WHERE kind = $1 AND (
	              first_name ILIKE $2 OR middle_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2
	              OR address ILIKE $2 OR country_of_residence ILIKE $2 OR state_of_residence ILIKE $2)
	          ORDER BY created_at, id`
	return r.queryUsers(ctx, "Search", query, kind, pattern)
}

func (r *pgUserRepository) queryUsers(ctx context.Context, op, query string, args ...any) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.%s scan: %w", op, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.%s rows: %w", op, err)
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
