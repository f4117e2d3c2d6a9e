package sqlite

import (
	"context"
	"database/sql"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement the driver runs, one method each.
type queries struct {
	db querier
}

func newQueries(db querier) *queries { return &queries{db: db} }

const getCredential = `SELECT value FROM credentials WHERE key = ?`

func (q *queries) GetCredential(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := q.db.QueryRowContext(ctx, getCredential, key).Scan(&value)
	return value, err
}

const upsertCredential = `
INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type upsertCredentialParams struct {
	Key       string
	Value     []byte
	UpdatedAt int64
}

func (q *queries) UpsertCredential(ctx context.Context, arg upsertCredentialParams) error {
	_, err := q.db.ExecContext(ctx, upsertCredential, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deleteCredential = `DELETE FROM credentials WHERE key = ?`

func (q *queries) DeleteCredential(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteCredential, key)
	return err
}

type accountRow struct {
	UID          string
	Email        string
	DisplayName  string
	RefreshToken []byte
	IDToken      []byte
	ExpiresAt    int64
	UpdatedAt    int64
}

const getLatestAccount = `
SELECT uid, email, display_name, refresh_token, id_token, expires_at, updated_at
FROM accounts ORDER BY updated_at DESC LIMIT 1`

func (q *queries) GetLatestAccount(ctx context.Context) (accountRow, error) {
	var a accountRow
	err := q.db.QueryRowContext(ctx, getLatestAccount).Scan(
		&a.UID, &a.Email, &a.DisplayName, &a.RefreshToken, &a.IDToken, &a.ExpiresAt, &a.UpdatedAt,
	)
	return a, err
}

const upsertAccount = `
INSERT INTO accounts (uid, email, display_name, refresh_token, id_token, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uid) DO UPDATE SET
	email = excluded.email,
	display_name = excluded.display_name,
	refresh_token = excluded.refresh_token,
	id_token = excluded.id_token,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at`

func (q *queries) UpsertAccount(ctx context.Context, a accountRow) error {
	_, err := q.db.ExecContext(ctx, upsertAccount,
		a.UID, a.Email, a.DisplayName, a.RefreshToken, a.IDToken, a.ExpiresAt, a.UpdatedAt,
	)
	return err
}

const deleteOtherAccounts = `DELETE FROM accounts WHERE uid <> ?`

func (q *queries) DeleteOtherAccounts(ctx context.Context, uid string) error {
	_, err := q.db.ExecContext(ctx, deleteOtherAccounts, uid)
	return err
}

const deleteAccounts = `DELETE FROM accounts`

func (q *queries) DeleteAccounts(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAccounts)
	return err
}
