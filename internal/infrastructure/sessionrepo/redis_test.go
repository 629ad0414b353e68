package sessionrepo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/minimart/storefront/internal/application/session"
	"github.com/minimart/storefront/internal/domain/account"
)

// newRedisContainer starts a throwaway Redis. Tests are skipped when Docker
// is not available.
func newRedisContainer(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisRepository_RoundTrip(t *testing.T) {
	client := newRedisContainer(t)
	repo := NewRedisRepositoryWithClient(client, "test:session:")
	ctx := context.Background()

	rec := session.Record{Token: "tok-1", Identity: account.Identity{Name: "Ada", Email: "ada@example.com"}}
	require.NoError(t, repo.Save(ctx, "user:v1", rec, time.Hour))

	got, err := repo.Load(ctx, "user:v1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	ttl, err := client.TTL(ctx, "test:session:user:v1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.Delete(ctx, "user:v1"))
	_, err = repo.Load(ctx, "user:v1")
	assert.ErrorIs(t, err, session.ErrRecordNotFound)
}

func TestRedisRepository_RestoresStoreAcrossInstances(t *testing.T) {
	client := newRedisContainer(t)
	repo := NewRedisRepositoryWithClient(client, "")
	ctx := context.Background()

	first := session.NewStore(session.WithRepository(repo, "user:v2", time.Hour))
	first.Login(ctx, "tok-2", account.Identity{Email: "grace@example.com"})

	second := session.NewStore(session.WithRepository(repo, "user:v2", time.Hour))
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, "tok-2", second.Token())
	assert.Equal(t, "grace@example.com", second.Identity().Email)
}
