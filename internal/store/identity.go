package store

import (
	"context"

	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateUser registers a user. A taken username yields ErrDuplicate.
func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	err := sqlx.GetContext(ctx, q.db, u, `
		INSERT INTO users (username, phone_number, email, gender, bio, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		u.Username, u.PhoneNumber, u.Email, u.Gender, u.Bio, u.Role)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUser retrieves a user by ID
func (q *Queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := sqlx.GetContext(ctx, q.db, &u, "SELECT * FROM users WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UpdateUser updates the profile fields of a user
func (q *Queries) UpdateUser(ctx context.Context, u *models.User) error {
	return notFound(sqlx.GetContext(ctx, q.db, u, `
		UPDATE users SET phone_number = $1, email = $2, gender = $3, bio = $4, avatar_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`,
		u.PhoneNumber, u.Email, u.Gender, u.Bio, u.AvatarID, u.ID))
}

// CreateAddress creates an address
func (q *Queries) CreateAddress(ctx context.Context, a *models.Address) error {
	return sqlx.GetContext(ctx, q.db, a, `
		INSERT INTO addresses (user_id, postcode, detail, name, phone_number, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		a.UserID, a.Postcode, a.Detail, a.Name, a.PhoneNumber, a.Comment)
}

// GetAddress retrieves an address by ID
func (q *Queries) GetAddress(ctx context.Context, id int64) (*models.Address, error) {
	var a models.Address
	if err := sqlx.GetContext(ctx, q.db, &a, "SELECT * FROM addresses WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ListAddresses lists addresses, optionally restricted to one user
func (q *Queries) ListAddresses(ctx context.Context, userID *int64, page Page) ([]models.Address, error) {
	addresses := []models.Address{}
	err := sqlx.SelectContext(ctx, q.db, &addresses, `
		SELECT * FROM addresses
		WHERE $1::bigint IS NULL OR user_id = $1
		ORDER BY id LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	return addresses, err
}

// UpdateAddress updates address fields
func (q *Queries) UpdateAddress(ctx context.Context, a *models.Address) error {
	return notFound(sqlx.GetContext(ctx, q.db, a, `
		UPDATE addresses
		SET postcode = $1, detail = $2, name = $3, phone_number = $4, comment = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`,
		a.Postcode, a.Detail, a.Name, a.PhoneNumber, a.Comment, a.ID))
}

// DeleteAddress deletes an address
func (q *Queries) DeleteAddress(ctx context.Context, id int64) error {
	return mustAffect(q.db.ExecContext(ctx, "DELETE FROM addresses WHERE id = $1", id))
}

// CreateNotification stores a notification
func (q *Queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	return sqlx.GetContext(ctx, q.db, n, `
		INSERT INTO notifications (user_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, n.UserID, n.Title, n.Content)
}

// ListNotifications lists a user's notifications, newest first
func (q *Queries) ListNotifications(ctx context.Context, userID int64, page Page) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := sqlx.SelectContext(ctx, q.db, &notifications, `
		SELECT * FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	return notifications, err
}

// IsEventProcessed checks if an event has been processed
func (q *Queries) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q.db, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (q *Queries) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
