package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
)

type profileStub struct {
	scopes map[string][]uint64
	err    error
}

func (p profileStub) CategoryScope(_ context.Context, userID string) ([]uint64, bool, error) {
	if p.err != nil {
		return nil, false, p.err
	}
	ids, ok := p.scopes[userID]
	return ids, ok, nil
}

func ptr[T any](v T) *T { return &v }

var (
	alice   = identity.Actor{ID: "alice", Username: "alice", Authenticated: true}
	bob     = identity.Actor{ID: "bob", Username: "bob", Authenticated: true}
	plumber = identity.Actor{ID: "plumber", Authenticated: true, Staff: true}
	noProf  = identity.Actor{ID: "noprofile", Authenticated: true, Staff: true}
	empty   = identity.Actor{ID: "empty", Authenticated: true, Staff: true}
	root    = identity.Actor{ID: "root", Authenticated: true, Superuser: true}
)

const (
	catPlumbing uint64 = 1
	catRoads    uint64 = 2
	catNoise    uint64 = 3
)

func fixtureComplaints() []*model.Complaint {
	return []*model.Complaint{
		{ID: 1, ReporterID: ptr("alice"), CategoryID: ptr(catPlumbing), Status: model.ComplaintStatusNew},
		{ID: 2, ReporterID: ptr("alice"), CategoryID: ptr(catRoads), Status: model.ComplaintStatusResolved},
		{ID: 3, ReporterID: ptr("bob"), CategoryID: ptr(catPlumbing), Status: model.ComplaintStatusResolved},
		{ID: 4, ReporterID: nil, CategoryID: ptr(catNoise), Status: model.ComplaintStatusInProgress},
		{ID: 5, ReporterID: nil, CategoryID: nil, Status: model.ComplaintStatusResolved},
		{ID: 6, ReporterID: ptr("bob"), CategoryID: ptr(catPlumbing), Status: model.ComplaintStatusRejected},
	}
}

func visibleIDs(scope ComplaintScope) []uint64 {
	var ids []uint64
	for _, c := range fixtureComplaints() {
		if scope.Contains(c) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func newTestResolver() *Resolver {
	return NewResolver(profileStub{scopes: map[string][]uint64{
		"plumber": {catPlumbing},
		"empty":   {},
		"root":    {catRoads},
	}})
}

func TestResolver_Complaints(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    identity.Actor
		status   model.ComplaintStatus
		wantRule string
		wantKind ScopeKind
		wantIDs  []uint64
	}{
		{name: "anonymous sees nothing", actor: identity.Anonymous(), wantRule: "anonymous", wantKind: ScopeNone},
		{name: "anonymous ignores status", actor: identity.Anonymous(), status: model.ComplaintStatusResolved, wantRule: "anonymous", wantKind: ScopeNone},
		{name: "superuser sees all", actor: root, wantRule: "superuser", wantKind: ScopeAll, wantIDs: []uint64{1, 2, 3, 4, 5, 6}},
		{name: "superuser with status", actor: root, status: model.ComplaintStatusResolved, wantRule: "superuser", wantKind: ScopeAll, wantIDs: []uint64{2, 3, 5}},
		{name: "staff with categories", actor: plumber, wantRule: "staff", wantKind: ScopeCategories, wantIDs: []uint64{1, 3, 6}},
		{name: "staff with categories and status", actor: plumber, status: model.ComplaintStatusResolved, wantRule: "staff", wantKind: ScopeCategories, wantIDs: []uint64{3}},
		{name: "staff without profile", actor: noProf, wantRule: "staff", wantKind: ScopeNone},
		{name: "staff with empty profile", actor: empty, wantRule: "staff", wantKind: ScopeNone},
		{name: "owner sees own", actor: alice, wantRule: "owner", wantKind: ScopeOwner, wantIDs: []uint64{1, 2}},
		{name: "owner status filter ignored", actor: alice, status: model.ComplaintStatusResolved, wantRule: "owner", wantKind: ScopeOwner, wantIDs: []uint64{1, 2}},
		{name: "other owner", actor: bob, wantRule: "owner", wantKind: ScopeOwner, wantIDs: []uint64{3, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := r.Complaints(ctx, tt.actor, tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRule, scope.Rule)
			assert.Equal(t, tt.wantKind, scope.Kind)
			assert.Equal(t, tt.wantIDs, visibleIDs(scope))
		})
	}
}

func TestResolver_RulePrecedence(t *testing.T) {
	r := NewResolver(profileStub{scopes: map[string][]uint64{}})

	// superuser с выставленным staff и без профиля всё равно видит всё
	both := identity.Actor{ID: "both", Authenticated: true, Staff: true, Superuser: true}
	scope, err := r.Complaints(context.Background(), both, "")
	require.NoError(t, err)
	assert.Equal(t, "superuser", scope.Rule)
	assert.Equal(t, ScopeAll, scope.Kind)

	// неаутентифицированный актор с флагами — аноним
	forged := identity.Actor{ID: "x", Staff: true, Superuser: true}
	scope, err = r.Complaints(context.Background(), forged, "")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", scope.Rule)
	assert.True(t, scope.Empty())
}

func TestResolver_ProfileLookupError(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(profileStub{err: boom})

	_, err := r.Complaints(context.Background(), plumber, "")
	assert.ErrorIs(t, err, boom)

	// суперпользователю профиль не нужен
	_, err = r.Complaints(context.Background(), root, "")
	assert.NoError(t, err)
}

func TestResolver_NilProfileSource(t *testing.T) {
	scope, err := NewResolver(nil).Complaints(context.Background(), plumber, "")
	require.NoError(t, err)
	assert.True(t, scope.Empty())
}

func TestParseStatusFilter(t *testing.T) {
	for _, raw := range []string{"", "all"} {
		st, err := ParseStatusFilter(raw)
		require.NoError(t, err)
		assert.Empty(t, st)
	}
	st, err := ParseStatusFilter("in_progress")
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusInProgress, st)

	_, err = ParseStatusFilter("closed")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestResolver_Comments(t *testing.T) {
	r := newTestResolver()
	public := &model.Comment{ComplaintID: 1, Public: true}
	private := &model.Comment{ComplaintID: 1, Public: false}
	foreign := &model.Comment{ComplaintID: 2, Public: true}

	staffScope := r.Comments(plumber, 1)
	assert.True(t, staffScope.Contains(public))
	assert.True(t, staffScope.Contains(private))
	assert.False(t, staffScope.Contains(foreign))

	userScope := r.Comments(alice, 1)
	assert.True(t, userScope.Contains(public))
	assert.False(t, userScope.Contains(private))
	assert.False(t, userScope.Contains(foreign))
}

func TestResolver_Attachments(t *testing.T) {
	scope := newTestResolver().Attachments(4)
	assert.True(t, scope.Contains(&model.Attachment{ComplaintID: 4}))
	assert.False(t, scope.Contains(&model.Attachment{ComplaintID: 5}))
	assert.False(t, scope.Contains(nil))
}
