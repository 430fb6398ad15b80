package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Queries runs statements against either the pool or an open transaction
type Queries struct {
	db sqlx.ExtContext
}

type Store struct {
	*Queries
	db *sqlx.DB
}

var _ DB = (*Store)(nil)

// NewStore creates a new database store
func NewStore(databaseURL string, maxOpenConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{Queries: &Queries{db: db}, db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection for readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn inside a transaction. Any error or panic rolls it back.
func (s *Store) InTx(ctx context.Context, fn func(tx Repository) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateStore creates a new store
func (q *Queries) CreateStore(ctx context.Context, s *models.Store) error {
	query := `
		INSERT INTO stores (owner_id, name, description, image_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return sqlx.GetContext(ctx, q.db, s, query, s.OwnerID, s.Name, s.Description, s.ImageID)
}

// GetStore retrieves a store by ID
func (q *Queries) GetStore(ctx context.Context, id int64) (*models.Store, error) {
	var s models.Store
	if err := sqlx.GetContext(ctx, q.db, &s, "SELECT * FROM stores WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ListStores lists stores, optionally restricted to one owner
func (q *Queries) ListStores(ctx context.Context, ownerID *int64, page Page) ([]models.Store, error) {
	stores := []models.Store{}
	err := sqlx.SelectContext(ctx, q.db, &stores, `
		SELECT * FROM stores
		WHERE $1::bigint IS NULL OR owner_id = $1
		ORDER BY id LIMIT $2 OFFSET $3`, ownerID, page.Limit, page.Offset)
	return stores, err
}

// UpdateStore updates store fields
func (q *Queries) UpdateStore(ctx context.Context, s *models.Store) error {
	return notFound(sqlx.GetContext(ctx, q.db, s, `
		UPDATE stores SET name = $1, description = $2, image_id = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`, s.Name, s.Description, s.ImageID, s.ID))
}

// DeleteStore deletes a store
func (q *Queries) DeleteStore(ctx context.Context, id int64) error {
	return mustAffect(q.db.ExecContext(ctx, "DELETE FROM stores WHERE id = $1", id))
}

// CreateGood inserts a good with its styles and details
func (q *Queries) CreateGood(ctx context.Context, g *models.Good) error {
	query := `
		INSERT INTO goods (store_id, name, description, price, image_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	if err := sqlx.GetContext(ctx, q.db, g, query, g.StoreID, g.Name, g.Description, g.Price, g.ImageID); err != nil {
		return fmt.Errorf("failed to insert good: %w", err)
	}
	if err := q.insertStyles(ctx, g.ID, g.Styles); err != nil {
		return err
	}
	return q.insertDetails(ctx, g.ID, g.Details)
}

func (q *Queries) insertStyles(ctx context.Context, goodID int64, styles []models.GoodStyle) error {
	for i := range styles {
		style := &styles[i]
		style.GoodID = goodID
		err := sqlx.GetContext(ctx, q.db, style, `
			INSERT INTO good_styles (good_id, name, description, image_id, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at`,
			goodID, style.Name, style.Description, style.ImageID, style.Price)
		if err != nil {
			return fmt.Errorf("failed to insert good style: %w", err)
		}
	}
	return nil
}

func (q *Queries) insertDetails(ctx context.Context, goodID int64, details []models.GoodDetail) error {
	for i := range details {
		detail := &details[i]
		detail.GoodID = goodID
		err := sqlx.GetContext(ctx, q.db, detail, `
			INSERT INTO good_details (good_id, text, image_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`,
			goodID, detail.Text, detail.ImageID)
		if err != nil {
			return fmt.Errorf("failed to insert good detail: %w", err)
		}
	}
	return nil
}

// GetGood retrieves a good with its styles and details
func (q *Queries) GetGood(ctx context.Context, id int64) (*models.Good, error) {
	var g models.Good
	if err := sqlx.GetContext(ctx, q.db, &g, "SELECT * FROM goods WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}

	g.Styles = []models.GoodStyle{}
	if err := sqlx.SelectContext(ctx, q.db, &g.Styles,
		"SELECT * FROM good_styles WHERE good_id = $1 ORDER BY id", id); err != nil {
		return nil, err
	}

	g.Details = []models.GoodDetail{}
	if err := sqlx.SelectContext(ctx, q.db, &g.Details,
		"SELECT * FROM good_details WHERE good_id = $1 ORDER BY id", id); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGoodsWithStyles retrieves multiple goods by IDs together with their styles
func (q *Queries) GetGoodsWithStyles(ctx context.Context, ids []int64) ([]models.Good, error) {
	if len(ids) == 0 {
		return []models.Good{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM goods WHERE id IN (?) ORDER BY id FOR SHARE", ids)
	if err != nil {
		return nil, err
	}
	var goods []models.Good
	if err := sqlx.SelectContext(ctx, q.db, &goods, q.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	query, args, err = sqlx.In("SELECT * FROM good_styles WHERE good_id IN (?) ORDER BY id FOR SHARE", ids)
	if err != nil {
		return nil, err
	}
	var styles []models.GoodStyle
	if err := sqlx.SelectContext(ctx, q.db, &styles, q.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(goods))
	for i := range goods {
		index[goods[i].ID] = i
	}
	for _, style := range styles {
		if i, ok := index[style.GoodID]; ok {
			goods[i].Styles = append(goods[i].Styles, style)
		}
	}
	return goods, nil
}

// ListGoodsByStore lists the goods of a store
func (q *Queries) ListGoodsByStore(ctx context.Context, storeID int64, page Page) ([]models.Good, error) {
	goods := []models.Good{}
	err := sqlx.SelectContext(ctx, q.db, &goods,
		"SELECT * FROM goods WHERE store_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		storeID, page.Limit, page.Offset)
	return goods, err
}

// UpdateGood updates the base fields of a good
func (q *Queries) UpdateGood(ctx context.Context, g *models.Good) error {
	return notFound(sqlx.GetContext(ctx, q.db, g, `
		UPDATE goods SET name = $1, description = $2, price = $3, image_id = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`, g.Name, g.Description, g.Price, g.ImageID, g.ID))
}

// ReplaceGoodStyles swaps the full style list of a good
func (q *Queries) ReplaceGoodStyles(ctx context.Context, goodID int64, styles []models.GoodStyle) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM good_styles WHERE good_id = $1", goodID); err != nil {
		return fmt.Errorf("failed to delete good styles: %w", err)
	}
	return q.insertStyles(ctx, goodID, styles)
}

// ReplaceGoodDetails swaps the full detail list of a good
func (q *Queries) ReplaceGoodDetails(ctx context.Context, goodID int64, details []models.GoodDetail) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM good_details WHERE good_id = $1", goodID); err != nil {
		return fmt.Errorf("failed to delete good details: %w", err)
	}
	return q.insertDetails(ctx, goodID, details)
}

// DeleteGood removes a good and its dependent catalog rows. Order items keep
// their own snapshot and are not touched.
func (q *Queries) DeleteGood(ctx context.Context, id int64) error {
	for _, stmt := range []string{
		"DELETE FROM good_styles WHERE good_id = $1",
		"DELETE FROM good_details WHERE good_id = $1",
		"DELETE FROM tag_goods WHERE good_id = $1",
		"DELETE FROM cart_items WHERE good_id = $1",
	} {
		if _, err := q.db.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete good dependents: %w", err)
		}
	}
	return mustAffect(q.db.ExecContext(ctx, "DELETE FROM goods WHERE id = $1", id))
}

// CreateTag creates a tag
func (q *Queries) CreateTag(ctx context.Context, t *models.Tag) error {
	return sqlx.GetContext(ctx, q.db, t, `
		INSERT INTO tags (name, description) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`, t.Name, t.Description)
}

// GetTag retrieves a tag by ID
func (q *Queries) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var t models.Tag
	if err := sqlx.GetContext(ctx, q.db, &t, "SELECT * FROM tags WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTags lists tags
func (q *Queries) ListTags(ctx context.Context, page Page) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := sqlx.SelectContext(ctx, q.db, &tags,
		"SELECT * FROM tags ORDER BY id LIMIT $1 OFFSET $2", page.Limit, page.Offset)
	return tags, err
}

// LinkTag attaches a tag to a good
func (q *Queries) LinkTag(ctx context.Context, tagID, goodID int64) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO tag_goods (tag_id, good_id) VALUES ($1, $2) ON CONFLICT (tag_id, good_id) DO NOTHING",
		tagID, goodID)
	return err
}

// CreateBanner creates a banner
func (q *Queries) CreateBanner(ctx context.Context, b *models.Banner) error {
	return sqlx.GetContext(ctx, q.db, b, `
		INSERT INTO banners (image_id) VALUES ($1)
		RETURNING id, deleted, created_at, updated_at`, b.ImageID)
}

// ListActiveBanners lists banners that have not been deleted
func (q *Queries) ListActiveBanners(ctx context.Context, page Page) ([]models.Banner, error) {
	banners := []models.Banner{}
	err := sqlx.SelectContext(ctx, q.db, &banners,
		"SELECT * FROM banners WHERE NOT deleted ORDER BY id LIMIT $1 OFFSET $2", page.Limit, page.Offset)
	return banners, err
}

// DeleteBanner soft-deletes a banner
func (q *Queries) DeleteBanner(ctx context.Context, id int64) error {
	return mustAffect(q.db.ExecContext(ctx,
		"UPDATE banners SET deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT deleted", id))
}
