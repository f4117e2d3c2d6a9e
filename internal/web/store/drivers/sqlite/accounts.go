package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/store"
	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
)

type accountsRepo struct {
	q      *queries
	sealer *cryptox.Sealer
	inTx   func(context.Context, func(*queries) error) error
}

func (r *accountsRepo) GetCurrentAccount(ctx context.Context) (store.Account, error) {
	row, err := r.q.GetLatestAccount(ctx)
	if err != nil {
		return store.Account{}, mapNotFound(err)
	}
	return r.mapAccount(row)
}

func (r *accountsRepo) SaveAccount(ctx context.Context, a store.Account) error {
	refreshSealed, err := r.sealer.SealString(a.RefreshToken)
	if err != nil {
		return err
	}
	idSealed, err := r.sealer.SealString(a.IDToken)
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(q *queries) error {
		if err := q.DeleteOtherAccounts(ctx, a.UID); err != nil {
			return err
		}
		return q.UpsertAccount(ctx, accountRow{
			UID:          a.UID,
			Email:        a.Email,
			DisplayName:  a.DisplayName,
			RefreshToken: refreshSealed,
			IDToken:      idSealed,
			ExpiresAt:    toMillis(a.ExpiresAt),
			UpdatedAt:    toMillis(time.Now()),
		})
	})
}

func (r *accountsRepo) DeleteAccounts(ctx context.Context) error {
	return r.q.DeleteAccounts(ctx)
}

func (r *accountsRepo) mapAccount(row accountRow) (store.Account, error) {
	a := store.Account{
		UID:         row.UID,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		ExpiresAt:   fromMillis(row.ExpiresAt),
		UpdatedAt:   fromMillis(row.UpdatedAt),
	}

	var err error
	if a.RefreshToken, err = r.sealer.OpenString(row.RefreshToken); err != nil {
		return store.Account{}, fmt.Errorf("open refresh token: %w", err)
	}
	if a.IDToken, err = r.sealer.OpenString(row.IDToken); err != nil {
		return store.Account{}, fmt.Errorf("open id token: %w", err)
	}
	return a, nil
}
