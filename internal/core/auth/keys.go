package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KeyRecord is one row of the api_keys table. The key itself is never
// stored, only its HMAC.
type KeyRecord struct {
	APIKeyID   string       `db:"api_key_id"`
	ClientID   string       `db:"client_id"`
	Name       string       `db:"name"`
	CreatedAt  time.Time    `db:"created_at"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

// Revoked reports whether the key has been revoked.
func (r KeyRecord) Revoked() bool {
	return r.RevokedAt.Valid
}

// IssueKey creates a key for clientID under the newest configured secret and
// returns the plaintext key, which is shown once and cannot be recovered.
func (a *Authenticator) IssueKey(ctx context.Context, clientID, name string) (string, KeyRecord, error) {
	if clientID == "" {
		return "", KeyRecord{}, fmt.Errorf("client ID is required")
	}
	secretID, secret, err := a.currentSecret()
	if err != nil {
		return "", KeyRecord{}, err
	}

	key, err := GenerateAPIKey(secretID)
	if err != nil {
		return "", KeyRecord{}, err
	}

	rec := KeyRecord{
		APIKeyID:  uuid.Must(uuid.NewV7()).String(),
		ClientID:  clientID,
		Name:      name,
		CreatedAt: a.now(),
	}
	if _, err := a.queries.ExecContext(ctx, "insert-api-key",
		rec.APIKeyID, rec.ClientID, rec.Name, secretID, HashAPIKey(secret, key), rec.CreatedAt); err != nil {
		return "", KeyRecord{}, fmt.Errorf("failed to store API key: %w", err)
	}

	a.logger.Info("Issued API key",
		zap.String("api_key_id", rec.APIKeyID),
		zap.String("client_id", clientID),
		zap.String("secret_id", secretID))
	return key, rec, nil
}

// RevokeKey marks a key revoked. Returns ErrKeyNotFound if the key does not
// exist or is already revoked.
func (a *Authenticator) RevokeKey(ctx context.Context, apiKeyID string) error {
	res, err := a.queries.ExecContext(ctx, "revoke-api-key", a.now(), apiKeyID)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	a.logger.Info("Revoked API key", zap.String("api_key_id", apiKeyID))
	return nil
}

// ListKeys returns every issued key, oldest first.
func (a *Authenticator) ListKeys(ctx context.Context) ([]KeyRecord, error) {
	records := []KeyRecord{}
	if err := a.queries.SelectContext(ctx, "list-api-keys", &records); err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return records, nil
}

// currentSecret picks the greatest secret ID. IDs are hex UUIDv7, so this is
// the most recently minted secret.
func (a *Authenticator) currentSecret() (string, []byte, error) {
	if len(a.secrets) == 0 {
		return "", nil, ErrNoSecrets
	}
	ids := make([]string, 0, len(a.secrets))
	for id := range a.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	id := ids[len(ids)-1]
	return id, a.secrets[id], nil
}
