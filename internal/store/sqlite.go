package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." && dataSourceName != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY,
        token TEXT NOT NULL,
        user_id TEXT NOT NULL,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL,
        email TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('professional', 'business')),
        created_at INTEGER NOT NULL,
        expires_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at);

    CREATE TABLE IF NOT EXISTS contact_requests (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        city TEXT NOT NULL,
        profession_id TEXT NOT NULL,
        category TEXT NOT NULL,
        product_id TEXT NOT NULL,
        product_name TEXT NOT NULL,
        provider_name TEXT NOT NULL,
        provider_phone TEXT NOT NULL,
        created_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_contact_requests_user ON contact_requests (user_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Session methods
func (s *SQLiteStore) SaveSession(ctx context.Context, session *Session) error {
	if !session.Valid() {
		return ErrInvalidSession
	}

	stmt, err := s.db.PrepareContext(ctx, `
        INSERT INTO sessions (id, token, user_id, first_name, last_name, email, role, created_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            token = excluded.token,
            user_id = excluded.user_id,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            email = excluded.email,
            role = excluded.role,
            expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare session upsert: %w", err)
	}
	defer stmt.Close()

	u := session.User
	_, err = stmt.ExecContext(ctx, session.ID, session.Token, u.ID, u.FirstName, u.LastName, u.Email, string(u.Role),
		session.CreatedAt.UnixMilli(), session.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to execute session upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		session              Session
		user                 User
		role                 string
		createdAt, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, token, user_id, first_name, last_name, email, role, created_at, expires_at FROM sessions WHERE id = ?", id).
		Scan(&session.ID, &session.Token, &user.ID, &user.FirstName, &user.LastName, &user.Email, &role, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	user.Role = Role(role)
	session.User = &user
	session.CreatedAt = time.UnixMilli(createdAt)
	session.ExpiresAt = time.UnixMilli(expiresAt)
	return &session, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Contact request methods
func (s *SQLiteStore) CreateContactRequest(ctx context.Context, req *ContactRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("contact request requires a user id")
	}
	req.ID = uuid.NewString() // Ensure ID is set
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	stmt, err := s.db.PrepareContext(ctx, `
        INSERT INTO contact_requests
            (id, user_id, city, profession_id, category, product_id, product_name, provider_name, provider_phone, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare contact request insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, req.ID, req.UserID, req.City, req.ProfessionID, req.Category, req.ProductID,
		req.ProductName, req.ProviderName, req.ProviderPhone, req.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to execute contact request insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListContactRequests(ctx context.Context, userID string, limit int) ([]ContactRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, city, profession_id, category, product_id, product_name, provider_name, provider_phone, created_at
        FROM contact_requests
        WHERE user_id = ?
        ORDER BY created_at DESC
        LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact requests: %w", err)
	}
	defer rows.Close()

	var out []ContactRequest
	for rows.Next() {
		var req ContactRequest
		var createdAt int64
		if err := rows.Scan(&req.ID, &req.UserID, &req.City, &req.ProfessionID, &req.Category, &req.ProductID,
			&req.ProductName, &req.ProviderName, &req.ProviderPhone, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact request row: %w", err)
		}
		req.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, req)
	}
	return out, rows.Err()
}
