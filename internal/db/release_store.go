package db

import (
	"context"
	"database/sql"
	"time"
)

// Product is a tracked update-feed product, e.g. "default" or "metavms"
type Product struct {
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}

// Chat represents a Telegram chat
type Chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// AnnouncedRelease is a release that has already been sent to chats
type AnnouncedRelease struct {
	Product         string `json:"product"`
	Version         string `json:"version"`
	PublicationType string `json:"publication_type"`
	ReleaseDate     int64  `json:"release_date"`
}

// Store provides database operations
type Store struct {
	db *DB
}

// NewStore creates a new store instance
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Product operations

// AddProduct starts tracking a product feed
func (s *Store) AddProduct(ctx context.Context, name string) error {
	query := `INSERT OR IGNORE INTO products (name) VALUES (?)`
	_, err := s.db.conn.ExecContext(ctx, query, name)
	return err
}

// RemoveProduct stops tracking a product feed
func (s *Store) RemoveProduct(ctx context.Context, name string) error {
	query := `DELETE FROM products WHERE name = ?`
	_, err := s.db.conn.ExecContext(ctx, query, name)
	return err
}

// ListProducts returns all tracked products
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT name, added_at FROM products ORDER BY name`
	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		var addedAt string
		if err := rows.Scan(&p.Name, &addedAt); err != nil {
			return nil, err
		}
		p.AddedAt, _ = time.Parse(time.DateTime, addedAt)
		products = append(products, p)
	}
	return products, rows.Err()
}

// Chat operations

// AddChat adds a new chat
func (s *Store) AddChat(ctx context.Context, chatID int64, title string) error {
	query := `INSERT OR REPLACE INTO chats (id, title) VALUES (?, ?)`
	_, err := s.db.conn.ExecContext(ctx, query, chatID, title)
	return err
}

// RemoveChat removes a chat
func (s *Store) RemoveChat(ctx context.Context, chatID int64) error {
	query := `DELETE FROM chats WHERE id = ?`
	_, err := s.db.conn.ExecContext(ctx, query, chatID)
	return err
}

// ListChats returns all registered chats
func (s *Store) ListChats(ctx context.Context) ([]Chat, error) {
	query := `SELECT id, title FROM chats ORDER BY id`
	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// Announced releases operations

// MarkAnnounced records that a release has been sent
func (s *Store) MarkAnnounced(ctx context.Context, r AnnouncedRelease) error {
	query := `INSERT OR REPLACE INTO announced_releases (product, version, publication_type, release_date) VALUES (?, ?, ?, ?)`
	_, err := s.db.conn.ExecContext(ctx, query, r.Product, r.Version, r.PublicationType, r.ReleaseDate)
	return err
}

// IsAnnounced checks if a release has been sent already
func (s *Store) IsAnnounced(ctx context.Context, product, version string) (bool, error) {
	query := `SELECT 1 FROM announced_releases WHERE product = ? AND version = ?`
	var exists int
	err := s.db.conn.QueryRowContext(ctx, query, product, version).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsSeeded reports whether a product has completed its first check
func (s *Store) IsSeeded(ctx context.Context, product string) (bool, error) {
	value, err := s.GetSetting(ctx, seededKey(product))
	if err != nil {
		return false, err
	}
	return value != "", nil
}

// MarkSeeded records that a product's first check has completed
func (s *Store) MarkSeeded(ctx context.Context, product string, at time.Time) error {
	return s.SetSetting(ctx, seededKey(product), at.UTC().Format(time.RFC3339))
}

func seededKey(product string) string {
	return "seeded:" + product
}

// Settings operations

// GetSetting retrieves a setting value
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ?`
	var value string
	err := s.db.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores a setting value
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	query := `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`
	_, err := s.db.conn.ExecContext(ctx, query, key, value)
	return err
}
