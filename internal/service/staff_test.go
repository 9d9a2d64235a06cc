package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
	"github.com/psds-microservice/complaint-service/internal/service/servicetest"
)

func TestStaffService_GrantRevoke(t *testing.T) {
	store := servicetest.NewMemStore()
	cats := store.Categories()
	ctx := context.Background()
	for _, n := range []string{"Plumbing", "Roads", "Noise"} {
		require.NoError(t, cats.Create(ctx, &model.Category{Name: n}))
	}
	s := NewStaffService(store.Profiles(), cats, nil)

	p, err := s.Grant(ctx, "s-1", "pete", []string{"Plumbing"})
	require.NoError(t, err)
	assert.Len(t, p.Categories, 1)

	p, err = s.Grant(ctx, "s-1", "", []string{"Roads", "Plumbing"})
	require.NoError(t, err)
	assert.Len(t, p.Categories, 2)
	assert.Equal(t, "pete", p.Username)

	_, err = s.Grant(ctx, "s-1", "", []string{"Gardens"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	p, err = s.Revoke(ctx, "s-1", []string{"Plumbing"})
	require.NoError(t, err)
	require.Len(t, p.Categories, 1)
	assert.Equal(t, "Roads", p.Categories[0].Name)

	_, err = s.Revoke(ctx, "s-1", nil)
	require.NoError(t, err)
	_, err = s.Show(ctx, "s-1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// queuedInvalidator копит сбросы, как шина между процессами, до явной доставки.
type queuedInvalidator struct {
	queue []string
}

func (q *queuedInvalidator) Invalidate(userID string) { q.queue = append(q.queue, userID) }
func (q *queuedInvalidator) Purge()                   { q.queue = append(q.queue, "*") }

func (q *queuedInvalidator) deliver(dst ScopeInvalidator) {
	for _, m := range q.queue {
		if m == "*" {
			dst.Purge()
		} else {
			dst.Invalidate(m)
		}
	}
	q.queue = nil
}

func TestStaffService_RevokeReachesSeparateResolver(t *testing.T) {
	store := servicetest.NewMemStore()
	ctx := context.Background()
	cat := &model.Category{Name: "Plumbing"}
	require.NoError(t, store.Categories().Create(ctx, cat))
	_, err := store.Profiles().Upsert(ctx, "s-1", "pete", []model.Category{*cat})
	require.NoError(t, err)

	// процесс API: свой кэш и свой Resolver
	cache := NewProfileScopeCache(store.Profiles(), 128, time.Hour)
	resolver := policy.NewResolver(cache)
	staff := identity.Actor{ID: "s-1", Username: "pete", Authenticated: true, Staff: true}

	scope, err := resolver.Complaints(ctx, staff, "")
	require.NoError(t, err)
	require.Equal(t, []uint64{cat.ID}, scope.CategoryIDs)

	// служебная команда: отдельный StaffService, общий только источник данных
	bus := &queuedInvalidator{}
	cli := NewStaffService(store.Profiles(), store.Categories(), bus)
	_, err = cli.Revoke(ctx, "s-1", nil)
	require.NoError(t, err)

	scope, err = resolver.Complaints(ctx, staff, "")
	require.NoError(t, err)
	assert.False(t, scope.Empty(), "cached scope survives until the invalidation arrives")

	require.Equal(t, []string{"s-1"}, bus.queue)
	bus.deliver(cache)
	scope, err = resolver.Complaints(ctx, staff, "")
	require.NoError(t, err)
	assert.True(t, scope.Empty())
}
