package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/budgetwise/pkg/cryptox"
)

type credentialsRepo struct {
	q      *queries
	sealer *cryptox.Sealer
}

func (r *credentialsRepo) GetCredential(ctx context.Context, key string) (string, error) {
	sealed, err := r.q.GetCredential(ctx, key)
	if err != nil {
		return "", mapNotFound(err)
	}

	value, err := r.sealer.OpenString(sealed)
	if err != nil {
		return "", fmt.Errorf("open credential %q: %w", key, err)
	}
	return value, nil
}

func (r *credentialsRepo) PutCredential(ctx context.Context, key, value string) error {
	sealed, err := r.sealer.SealString(value)
	if err != nil {
		return err
	}

	return r.q.UpsertCredential(ctx, upsertCredentialParams{
		Key:       key,
		Value:     sealed,
		UpdatedAt: toMillis(time.Now()),
	})
}

// DeleteCredential is idempotent.
func (r *credentialsRepo) DeleteCredential(ctx context.Context, key string) error {
	return r.q.DeleteCredential(ctx, key)
}
