package server

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/accumate/docfilter/internal/core/api"
	"github.com/accumate/docfilter/internal/core/auth"
	"github.com/accumate/docfilter/internal/core/config"
	"github.com/accumate/docfilter/internal/core/db"
	"github.com/accumate/docfilter/internal/filter"
	"github.com/accumate/docfilter/internal/types"
)

const testSecretID = "0190b3c4d5e67f8091a2b3c4d5e6f708"

type harness struct {
	client api.FilterServiceClient
	health grpc_health_v1.HealthClient
	store  *db.DocumentStore
	auth   *auth.Authenticator
	logs   *observer.ObservedLogs
}

// startServer serves a FilterService backed by a temp SQLite store over an
// in-memory listener. withAuth configures one HMAC secret.
func startServer(t *testing.T, withAuth bool) *harness {
	t.Helper()
	ctx := context.Background()

	cfg := config.DefaultFilterAPIConfig()
	cfg.DataDir = t.TempDir()

	conn, err := db.Open(ctx, "sqlite://"+filepath.Join(cfg.DataDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = db.MigrateUp(ctx, conn)
	require.NoError(t, err)
	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	store := db.NewDocumentStore(queries, logger)
	service, err := api.NewFilterService(filter.NewEngine(), filter.DefaultRegistry(logger), store, cfg, logger)
	require.NoError(t, err)

	var secrets map[string][]byte
	if withAuth {
		secrets = map[string][]byte{testSecretID: []byte(strings.Repeat("k", 32))}
	}
	authenticator := auth.NewAuthenticator(secrets, queries, logger)

	srv, err := NewGRPCServer(cfg, service, authenticator, logger)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	return &harness{
		client: api.NewFilterServiceClient(cc),
		health: grpc_health_v1.NewHealthClient(cc),
		store:  store,
		auth:   authenticator,
		logs:   logs,
	}
}

func TestGRPCServer_FilterStoredCollection(t *testing.T) {
	h := startServer(t, false)
	ctx := context.Background()

	_, err := h.store.InsertMany(ctx, "orders", types.Documents(
		types.M("id", 1, "status", "open", "total", 120),
		types.M("id", 2, "status", "closed", "total", 80),
		types.M("id", 3, "status", "open", "total", 40),
	))
	require.NoError(t, err)

	req, err := structpb.NewStruct(map[string]any{
		"collections": []any{"orders"},
		"filters":     map[string]any{"eq": map[string]any{"status": []any{"open"}}},
		"group_by":    "status",
	})
	require.NoError(t, err)

	resp, err := h.client.Filter(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, float64(2), resp.Fields["count"].GetNumberValue())
	groups := resp.Fields["groups"].GetListValue().GetValues()
	require.Len(t, groups, 1)
	assert.Equal(t, "open", groups[0].GetStructValue().Fields["key"].GetStringValue())

	list, err := h.client.ListCollections(ctx, &structpb.Struct{})
	require.NoError(t, err)
	assert.Len(t, list.Fields["collections"].GetListValue().GetValues(), 1)

	logged := h.logs.FilterMessage("gRPC call").All()
	require.NotEmpty(t, logged)
	assert.Equal(t, api.FilterService_Filter_FullMethod, logged[0].ContextMap()["method"])
	assert.NotEmpty(t, logged[0].ContextMap()["request_id"])
}

func TestGRPCServer_ErrorCodes(t *testing.T) {
	h := startServer(t, false)

	req, err := structpb.NewStruct(map[string]any{
		"documents": []any{map[string]any{"a": 1}},
		"filters":   map[string]any{"eq": map[string]any{"b": []any{1}}},
	})
	require.NoError(t, err)

	_, err = h.client.Filter(context.Background(), req)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.NotEmpty(t, h.logs.FilterMessage("gRPC call failed").All())
}

func TestGRPCServer_Health(t *testing.T) {
	h := startServer(t, true)

	resp, err := h.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: api.FilterServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestGRPCServer_Auth(t *testing.T) {
	h := startServer(t, true)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]any{"documents": []any{map[string]any{"a": 1}}})
	require.NoError(t, err)

	_, err = h.client.Filter(ctx, req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	key, _, err := h.auth.IssueKey(ctx, "client-a", "test")
	require.NoError(t, err)

	authed := metadata.AppendToOutgoingContext(ctx, auth.APIKeyHeader, key)
	resp, err := h.client.Filter(authed, req)
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.Fields["count"].GetNumberValue())
}

func TestNewGRPCServer_Validation(t *testing.T) {
	_, err := NewGRPCServer(nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewGRPCServer(config.DefaultFilterAPIConfig(), nil, nil, nil)
	assert.Error(t, err)
}
