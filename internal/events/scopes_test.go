package events_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
	"github.com/psds-microservice/complaint-service/internal/service"
	"github.com/psds-microservice/complaint-service/internal/service/servicetest"
)

func TestScopeBus_Disabled(t *testing.T) {
	bus := events.NewScopeBus("", "", 0, "complaint.scope.invalidate", nil)
	assert.False(t, bus.Enabled())
	bus.Invalidate("s-1")
	bus.Purge()
	assert.NoError(t, bus.Listen(context.Background(), service.NewProfileScopeCache(nil, 0, 0)))
	assert.NoError(t, bus.Close())
}

func setupRedisAddr(t *testing.T) string {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return addr
}

// subscribedSink сообщает о первом Purge: Listen сбрасывает кэш сразу после подписки.
type subscribedSink struct {
	*service.ProfileScopeCache
	once  sync.Once
	ready chan struct{}
}

func (s *subscribedSink) Purge() {
	s.ProfileScopeCache.Purge()
	s.once.Do(func() { close(s.ready) })
}

func TestScopeBus_RevokeFromSeparateProcess(t *testing.T) {
	addr := setupRedisAddr(t)
	const channel = "complaint.scope.invalidate"

	store := servicetest.NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cat := &model.Category{Name: "Plumbing"}
	require.NoError(t, store.Categories().Create(ctx, cat))
	_, err := store.Profiles().Upsert(ctx, "s-1", "pete", []model.Category{*cat})
	require.NoError(t, err)

	// процесс API
	cache := service.NewProfileScopeCache(store.Profiles(), 128, time.Hour)
	resolver := policy.NewResolver(cache)
	sink := &subscribedSink{ProfileScopeCache: cache, ready: make(chan struct{})}
	apiBus := events.NewScopeBus(addr, "", 0, channel, nil)
	defer apiBus.Close()
	done := make(chan error, 1)
	go func() { done <- apiBus.Listen(ctx, sink) }()
	select {
	case <-sink.ready:
	case <-time.After(10 * time.Second):
		t.Fatal("scope bus did not subscribe")
	}

	staff := identity.Actor{ID: "s-1", Username: "pete", Authenticated: true, Staff: true}
	scope, err := resolver.Complaints(ctx, staff, "")
	require.NoError(t, err)
	require.Equal(t, []uint64{cat.ID}, scope.CategoryIDs)

	// служебная команда
	cliBus := events.NewScopeBus(addr, "", 0, channel, nil)
	defer cliBus.Close()
	_, err = service.NewStaffService(store.Profiles(), store.Categories(), cliBus).Revoke(ctx, "s-1", nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		scope, err := resolver.Complaints(ctx, staff, "")
		return err == nil && scope.Empty()
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}
