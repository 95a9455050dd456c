package redshard

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// startTestServer boots a real listener on an ephemeral port and
// returns a go-redis client wired to it, cleaning both up at test end.
func startTestServer(t *testing.T) *redis.Client {
	t.Helper()

	srv := NewServerWithConfig("127.0.0.1:0", DefaultConfig())
	require.NoError(t, srv.Listen())

	addr := srv.listener.Addr().(*net.TCPAddr).String()

	go func() {
		_ = srv.Serve()
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	require.Eventually(t, func() bool {
		return client.Ping(context.Background()).Err() == nil
	}, 2*time.Second, 10*time.Millisecond)

	return client
}

func TestIntegrationStringCommands(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "greeting", "hello", 0).Err())
	val, err := client.Get(ctx, "greeting").Result()
	require.NoError(t, err)
	require.Equal(t, "hello", val)

	n, err := client.Incr(ctx, "counter").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestIntegrationHashAndList(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "h", "f1", "v1", "f2", "v2").Err())
	fields, err := client.HGetAll(ctx, "h").Result()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, fields)

	require.NoError(t, client.RPush(ctx, "l", "a", "b", "c").Err())
	items, err := client.LRange(ctx, "l", 0, -1).Result()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, items)
}

func TestIntegrationExpireAndTTL(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	ok, err := client.Expire(ctx, "k", 100*time.Second).Result()
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.TTL(ctx, "k").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 90*time.Second)
}

func TestIntegrationWrongType(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.SAdd(ctx, "s", "m").Err())
	_, err := client.Get(ctx, "s").Result()
	require.Error(t, err)
	require.Contains(t, err.Error(), "WRONGTYPE")
}

func TestIntegrationAuthGating(t *testing.T) {
	srv := NewServerWithConfig("127.0.0.1:0", DefaultConfig())
	srv.AuthHook = func(user, pass []byte) bool { return string(pass) == "s3cret" }
	require.NoError(t, srv.Listen())
	addr := srv.listener.Addr().(*net.TCPAddr).String()

	go func() { _ = srv.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	unauth := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = unauth.Close() })

	require.Eventually(t, func() bool {
		return unauth.Ping(context.Background()).Err() == nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err := unauth.Set(context.Background(), "k", "v", 0).Result()
	require.Error(t, err)
	require.Contains(t, err.Error(), "NOAUTH")

	authed := redis.NewClient(&redis.Options{Addr: addr, Password: "s3cret"})
	t.Cleanup(func() { _ = authed.Close() })
	require.NoError(t, authed.Set(context.Background(), "k", "v", 0).Err())
}
