package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/budgetwise/internal/web/store"
	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
)

type txStore struct {
	tx     *sql.Tx
	sealer *cryptox.Sealer
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Credentials() store.Credentials {
	return &credentialsRepo{q: newQueries(t.tx), sealer: t.sealer}
}

func (t *txStore) Accounts() store.Accounts {
	return &accountsRepo{q: newQueries(t.tx), sealer: t.sealer, inTx: t.inTx}
}

// inTx reuses this transaction; the caller already owns commit/rollback.
func (t *txStore) inTx(_ context.Context, fn func(*queries) error) error {
	return fn(newQueries(t.tx))
}
