package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ContactRepository interface {
	SaveFeedback(ctx context.Context, f *model.Feedback) error
	SaveContactMessage(ctx context.Context, m *model.ContactMessage) error
	// SaveSubscription fails with ErrDuplicateEmail when the address is
	// already subscribed.
	SaveSubscription(ctx context.Context, s *model.EmailSubscription) error
}

type pgContactRepository struct {
	db *sql.DB
}

func NewPgContactRepository(db *sql.DB) ContactRepository {
	return &pgContactRepository{db: db}
}

func (r *pgContactRepository) SaveFeedback(ctx context.Context, f *model.Feedback) error {
	query := `INSERT INTO feedback (id, name, email, message, rating)
	          VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, f.ID, f.Name, f.Email, f.Message, f.Rating).Scan(&f.CreatedAt); err != nil {
		return fmt.Errorf("pgContactRepository.SaveFeedback: %w", err)
	}
	return nil
}

func (r *pgContactRepository) SaveContactMessage(ctx context.Context, m *model.ContactMessage) error {
	query := `INSERT INTO contact_messages (id, name, email, phone_number, message)
	          VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, m.ID, m.Name, m.Email, m.PhoneNumber, m.Message).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("pgContactRepository.SaveContactMessage: %w", err)
	}
	return nil
}

func (r *pgContactRepository) SaveSubscription(ctx context.Context, s *model.EmailSubscription) error {
	query := `INSERT INTO email_subscriptions (id, email) VALUES ($1, $2) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, s.ID, s.Email).Scan(&s.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrDuplicateEmail
		}
		return fmt.Errorf("pgContactRepository.SaveSubscription: %w", err)
	}
	return nil
}
