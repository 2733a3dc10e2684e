package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/accumate/docfilter/internal/core/db"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *sqlx.DB) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = db.MigrateUp(ctx, conn)
	require.NoError(t, err)
	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)

	secrets := map[string][]byte{testSecretID: []byte(strings.Repeat("k", 32))}
	return NewAuthenticator(secrets, queries, nil), conn
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator(t)

	key, rec, err := a.IssueKey(ctx, "client-a", "ci")
	require.NoError(t, err)
	assert.Equal(t, "client-a", rec.ClientID)

	clientID, err := a.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "client-a", clientID)

	keys, err := a.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, keys[0].LastUsedAt.Valid, "last_used_at should be set after use")
	assert.False(t, keys[0].Revoked())
}

func TestAuthenticate_Failures(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator(t)

	key, rec, err := a.IssueKey(ctx, "client-a", "ci")
	require.NoError(t, err)

	forged := FormatAPIKey(testSecretID, strings.Repeat("f", 64))
	_, err = a.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidKey)

	unknown := FormatAPIKey(strings.Repeat("1", 32), strings.Repeat("f", 64))
	_, err = a.Authenticate(ctx, unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = a.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	require.NoError(t, a.RevokeKey(ctx, rec.APIKeyID))
	_, err = a.Authenticate(ctx, key)
	assert.ErrorIs(t, err, ErrKeyRevoked)

	assert.ErrorIs(t, a.RevokeKey(ctx, rec.APIKeyID), ErrKeyNotFound)
}

func TestAuthenticate_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	a, conn := newTestAuthenticator(t)

	key, _, err := a.IssueKey(ctx, "client-a", "ci")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = a.Authenticate(ctx, key)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestIssueKey_NoSecrets(t *testing.T) {
	a := NewAuthenticator(nil, nil, nil)
	assert.False(t, a.Enabled())

	_, _, err := a.IssueKey(context.Background(), "client-a", "ci")
	assert.ErrorIs(t, err, ErrNoSecrets)
}

func TestCurrentSecret_PicksNewest(t *testing.T) {
	older := "0190000000007000800000000000000a"
	newer := "0190ffffffff7000800000000000000a"
	a := NewAuthenticator(map[string][]byte{older: []byte("a"), newer: []byte("b")}, nil, nil)

	id, secret, err := a.currentSecret()
	require.NoError(t, err)
	assert.Equal(t, newer, id)
	assert.Equal(t, []byte("b"), secret)
}

func TestUnaryInterceptor(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator(t)

	key, rec, err := a.IssueKey(ctx, "client-a", "ci")
	require.NoError(t, err)
	revokedKey, revoked, err := a.IssueKey(ctx, "client-b", "old")
	require.NoError(t, err)
	require.NoError(t, a.RevokeKey(ctx, revoked.APIKeyID))

	var seenClient string
	handler := func(ctx context.Context, req any) (any, error) {
		seenClient = ClientIDFromContext(ctx)
		return "ok", nil
	}
	filterInfo := &grpc.UnaryServerInfo{FullMethod: "/docfilter.v1.FilterService/Filter"}
	healthInfo := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	interceptor := a.UnaryInterceptor()

	withKey := func(k string) context.Context {
		return metadata.NewIncomingContext(ctx, metadata.Pairs(APIKeyHeader, k))
	}

	tests := []struct {
		name     string
		ctx      context.Context
		info     *grpc.UnaryServerInfo
		wantCode codes.Code
	}{
		{"valid key", withKey(key), filterInfo, codes.OK},
		{"no metadata", ctx, filterInfo, codes.Unauthenticated},
		{"no key", metadata.NewIncomingContext(ctx, metadata.Pairs("other", "x")), filterInfo, codes.Unauthenticated},
		{"bad key", withKey("df-v1-nope"), filterInfo, codes.Unauthenticated},
		{"revoked key", withKey(revokedKey), filterInfo, codes.PermissionDenied},
		{"health exempt", ctx, healthInfo, codes.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenClient = ""
			_, err := interceptor(tt.ctx, nil, tt.info, handler)
			assert.Equal(t, tt.wantCode, status.Code(err), "error = %v", err)
		})
	}

	_, err = interceptor(withKey(key), nil, filterInfo, handler)
	require.NoError(t, err)
	assert.Equal(t, rec.ClientID, seenClient)
}

func TestAuthStatus(t *testing.T) {
	assert.Equal(t, codes.Unavailable, status.Code(authStatus(fmt.Errorf("%w: closed", ErrStoreUnavailable))))
	assert.Equal(t, codes.PermissionDenied, status.Code(authStatus(ErrKeyRevoked)))
	assert.Equal(t, codes.Unauthenticated, status.Code(authStatus(ErrInvalidKey)))
}

func TestClientIDFromContext(t *testing.T) {
	assert.Empty(t, ClientIDFromContext(context.Background()))
	assert.Equal(t, "c1", ClientIDFromContext(WithClientID(context.Background(), "c1")))
}
