package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a throwaway Redis container, skipping when docker is unavailable.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.POST("/generate", rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func postWithSession(router *gin.Engine, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// knownSessions accepts exactly the given ids.
func knownSessions(ids ...uuid.UUID) SessionLookup {
	known := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return func(id uuid.UUID) bool { return known[id] }
}

func TestRateLimiterWithRedis(t *testing.T) {
	client := setupRedis(t)
	abc, def := uuid.New(), uuid.New()
	rl := NewGenerationRateLimiter(client, 2, nil).WithSessionLookup(knownSessions(abc, def))
	router := limitedRouter(rl)

	first := postWithSession(router, abc.String())
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusCreated, postWithSession(router, abc.String()).Code)

	blocked := postWithSession(router, abc.String())
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), "rate limit exceeded")

	// other sessions have their own window
	assert.Equal(t, http.StatusCreated, postWithSession(router, def.String()).Code)

	remaining, reset, err := rl.GetRemainingRequests(context.Background(), "session:"+abc.String())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(time.Now()))

	remaining, _, err = rl.GetRemainingRequests(context.Background(), "session:unused")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	rl := NewGenerationRateLimiter(nil, 1, nil)
	assert.False(t, rl.Enabled())
	router := limitedRouter(rl)

	for i := 0; i < 3; i++ {
		rr := postWithSession(router, "abc")
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	// nothing listens on this port
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	log, buf := testLogger()
	router := limitedRouter(NewGenerationRateLimiter(client, 1, log))

	rr := postWithSession(router, "abc")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "rate limit check failed", rr.Header().Get("X-RateLimit-Error"))
	assert.Contains(t, buf.String(), "rate limit check failed")
}

func TestSessionOrIP(t *testing.T) {
	live := uuid.New()
	key := SessionOrIP(knownSessions(live))

	keyFor := func(cookie string) string {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.RemoteAddr = "10.0.0.1:1234"
		if cookie != "" {
			c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
		}
		return key(c)
	}

	assert.Equal(t, "ip:10.0.0.1", keyFor(""))
	assert.Equal(t, "session:"+live.String(), keyFor(live.String()))
	assert.Equal(t, "session:"+live.String(), keyFor(strings.ToUpper(live.String())))

	// rotated or made-up cookies share the address bucket
	for _, cookie := range []string{"a", "b", "not-a-uuid-3", uuid.NewString()} {
		assert.Equal(t, "ip:10.0.0.1", keyFor(cookie), cookie)
	}
}

func TestSessionOrIPWithoutLookup(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: uuid.NewString()})

	assert.Equal(t, "ip:10.0.0.1", SessionOrIP(nil)(c))
	assert.Equal(t, "ip:10.0.0.1", ClientIP(c))
}

func TestRotatingCookiesShareWindow(t *testing.T) {
	client := setupRedis(t)
	router := limitedRouter(NewGenerationRateLimiter(client, 2, nil).WithSessionLookup(knownSessions()))

	assert.Equal(t, http.StatusCreated, postWithSession(router, "a").Code)
	assert.Equal(t, http.StatusCreated, postWithSession(router, "b").Code)
	assert.Equal(t, http.StatusTooManyRequests, postWithSession(router, uuid.NewString()).Code)
}
