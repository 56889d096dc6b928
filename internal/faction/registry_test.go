package faction_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"factionbot/internal/database"
	"factionbot/internal/faction"
	"factionbot/internal/faction/factiontest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *database.DatabaseFaction
	platform *factiontest.Platform
	registry *faction.Registry
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := database.NewDatabaseFaction("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:    store,
		platform: factiontest.NewPlatform(),
		now:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.registry = faction.NewRegistry(store, f.platform, faction.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) points(t *testing.T, name string) int {
	t.Helper()
	info, err := f.registry.Info(context.Background(), name)
	require.NoError(t, err)
	return info.Points
}

func (f *fixture) factionOf(t *testing.T, userID string) string {
	t.Helper()
	membership, _, err := f.store.GetMembership(context.Background(), userID)
	require.NoError(t, err)
	return membership.Faction
}

func TestAvalonScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.registry.Create(ctx, "Avalon"))
	require.NoError(t, f.registry.Join(ctx, "U1", "Avalon"))
	assert.True(t, f.platform.HasRole("U1", "Avalon"))

	name, err := f.registry.CheckIn(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "Avalon", name)
	assert.Equal(t, 10, f.points(t, "Avalon"))

	err = f.registry.Join(ctx, "U1", "Avalon")
	require.ErrorIs(t, err, faction.ErrAlreadyMember)

	left, err := f.registry.Leave(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "Avalon", left)
	assert.Equal(t, 10, f.points(t, "Avalon"))
	assert.Empty(t, f.factionOf(t, "U1"))
	assert.False(t, f.platform.HasRole("U1", "Avalon"))

	_, err = f.registry.Leave(ctx, "U1")
	require.ErrorIs(t, err, faction.ErrNotInFaction)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.registry.Create(ctx, "red"))
	assert.Equal(t, []string{"red"}, f.platform.Created)

	err := f.registry.Create(ctx, "red")
	require.ErrorIs(t, err, faction.ErrAlreadyExists)
	assert.Equal(t, faction.KindConflict, faction.KindOf(err))
	// No second structure for an existing faction
	assert.Len(t, f.platform.Created, 1)
}

func TestCreateKeepsFactionWhenStructureFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.platform.CreateErr = errors.New("platform down")

	err := f.registry.Create(ctx, "red")
	require.Error(t, err)
	assert.Equal(t, faction.KindUnexpected, faction.KindOf(err))

	_, err = f.store.GetFaction(ctx, "red")
	assert.NoError(t, err)
}

func TestJoinOtherFaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Create(ctx, "blue"))
	require.NoError(t, f.registry.Join(ctx, "u1", "red"))

	err := f.registry.Join(ctx, "u1", "blue")
	require.ErrorIs(t, err, faction.ErrAlreadyInOtherFaction)
	var affiliation *faction.AffiliationError
	require.ErrorAs(t, err, &affiliation)
	assert.Equal(t, "red", affiliation.Faction)
	assert.False(t, f.platform.HasRole("u1", "blue"))
	assert.Equal(t, "red", f.factionOf(t, "u1"))
}

func TestJoinWithoutRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.registry.Join(ctx, "u1", "ghost")
	require.ErrorIs(t, err, faction.ErrNotFound)
	_, ok, err := f.store.GetMembership(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJoinUndoneWhenGrantFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	f.platform.GrantErr = errors.New("missing permissions")

	err := f.registry.Join(ctx, "u1", "red")
	require.Error(t, err)
	assert.Empty(t, f.factionOf(t, "u1"))
}

func TestJoinPreservesCheckin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Create(ctx, "blue"))

	require.NoError(t, f.registry.Join(ctx, "u1", "red"))
	_, err := f.registry.CheckIn(ctx, "u1")
	require.NoError(t, err)
	_, err = f.registry.Leave(ctx, "u1")
	require.NoError(t, err)

	// Switching factions does not allow a second check-in on the same day
	require.NoError(t, f.registry.Join(ctx, "u1", "blue"))
	_, err = f.registry.CheckIn(ctx, "u1")
	require.ErrorIs(t, err, faction.ErrAlreadyCheckedInToday)
	assert.Equal(t, 0, f.points(t, "blue"))
}

func TestCheckInOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Join(ctx, "u1", "red"))

	_, err := f.registry.CheckIn(ctx, "u1")
	require.NoError(t, err)
	f.now = f.now.Add(10 * time.Hour)
	_, err = f.registry.CheckIn(ctx, "u1")
	require.ErrorIs(t, err, faction.ErrAlreadyCheckedInToday)
	assert.Equal(t, 10, f.points(t, "red"))

	// A new UTC day
	f.now = f.now.Add(5 * time.Hour)
	_, err = f.registry.CheckIn(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, f.points(t, "red"))
}

func TestCheckInUnaffiliated(t *testing.T) {
	_, err := newFixture(t).registry.CheckIn(context.Background(), "u1")
	require.ErrorIs(t, err, faction.ErrNotInFaction)
}

func TestConcurrentCheckInsCreditOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Join(ctx, "u1", "red"))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.registry.CheckIn(ctx, "u1")
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, f.points(t, "red"))
}

func TestConcurrentJoinsSingleFaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	names := []string{"a", "b", "c", "d", "e"}
	for _, name := range names {
		require.NoError(t, f.registry.Create(ctx, name))
	}

	var joined atomic.Int64
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.registry.Join(ctx, "u1", name); err == nil {
				joined.Add(1)
			} else {
				assert.ErrorIs(t, err, faction.ErrAlreadyInOtherFaction)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, joined.Load())

	holders := 0
	for _, name := range names {
		if f.platform.HasRole("u1", name) {
			holders++
		}
	}
	assert.Equal(t, 1, holders)
}

func TestAddAndRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Create(ctx, "blue"))

	require.NoError(t, f.registry.AddMember(ctx, "u1", "red"))
	assert.True(t, f.platform.HasRole("u1", "red"))

	err := f.registry.AddMember(ctx, "u1", "blue")
	require.ErrorIs(t, err, faction.ErrAlreadyInFaction)
	err = f.registry.AddMember(ctx, "u1", "red")
	require.ErrorIs(t, err, faction.ErrAlreadyInFaction)

	err = f.registry.RemoveMember(ctx, "u1", "blue")
	require.ErrorIs(t, err, faction.ErrNotInThatFaction)
	err = f.registry.RemoveMember(ctx, "u2", "red")
	require.ErrorIs(t, err, faction.ErrNotInThatFaction)

	require.NoError(t, f.registry.RemoveMember(ctx, "u1", "red"))
	assert.False(t, f.platform.HasRole("u1", "red"))
	assert.Empty(t, f.factionOf(t, "u1"))
}

func TestLeaveWithRoleMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Join(ctx, "u1", "red"))
	require.NoError(t, f.platform.DeleteStructure(ctx, "red"))

	_, err := f.registry.Leave(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, f.factionOf(t, "u1"))
}

func TestDeleteClearsMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	require.NoError(t, f.registry.Create(ctx, "blue"))
	for _, user := range []string{"u1", "u2", "u3"} {
		require.NoError(t, f.registry.Join(ctx, user, "red"))
	}
	require.NoError(t, f.registry.Join(ctx, "u4", "blue"))

	cleared, err := f.registry.Delete(ctx, "red")
	require.NoError(t, err)
	assert.EqualValues(t, 3, cleared)
	assert.Equal(t, []string{"red"}, f.platform.Deleted)

	for _, user := range []string{"u1", "u2", "u3"} {
		assert.Empty(t, f.factionOf(t, user))
	}
	assert.Equal(t, "blue", f.factionOf(t, "u4"))
	_, err = f.registry.Info(ctx, "red")
	require.ErrorIs(t, err, faction.ErrNotFound)

	// Deleting again is harmless
	cleared, err = f.registry.Delete(ctx, "red")
	require.NoError(t, err)
	assert.Zero(t, cleared)
}

func TestWeeklyResetKeepsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, f.registry.Create(ctx, name))
	}
	require.NoError(t, f.registry.Join(ctx, "u1", "c"))
	_, err := f.registry.CheckIn(ctx, "u1")
	require.NoError(t, err)

	board, err := f.registry.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, faction.Faction{Name: "c", Points: 10}, board[0])

	require.NoError(t, f.registry.WeeklyReset(ctx))
	board, err = f.registry.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, []faction.Faction{{Name: "a"}, {Name: "b"}, {Name: "c"}}, board)
}

func TestAssignLeader(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))

	// Leaders do not need to be members
	require.NoError(t, f.registry.AssignLeader(ctx, "red", "u9"))
	info, err := f.registry.Info(ctx, "red")
	require.NoError(t, err)
	assert.Equal(t, faction.Info{Faction: faction.Faction{Name: "red", Leader: "u9"}}, info)
}

func TestDeclareWar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))

	_, err := f.registry.DeclareWar(ctx, "u1", "blue")
	require.ErrorIs(t, err, faction.ErrNotInFaction)

	require.NoError(t, f.registry.Join(ctx, "u1", "red"))
	war, err := f.registry.DeclareWar(ctx, "u1", "nowhere")
	require.NoError(t, err)
	assert.Equal(t, faction.War{Faction1: "red", Faction2: "nowhere", Active: true}, war)
	_, err = f.registry.DeclareWar(ctx, "u1", "nowhere")
	require.NoError(t, err)

	wars, err := f.registry.Wars(ctx)
	require.NoError(t, err)
	assert.Len(t, wars, 2)
}

func TestInfoAndMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))

	members, err := f.registry.Members(ctx, "red")
	require.NoError(t, err)
	assert.Empty(t, members)
	members, err = f.registry.Members(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, f.registry.Join(ctx, "u1", "red"))
	require.NoError(t, f.registry.AddMember(ctx, "u2", "red"))
	members, err = f.registry.Members(ctx, "red")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, members)

	info, err := f.registry.Info(ctx, "red")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Members)

	_, err = f.registry.Info(ctx, "ghost")
	require.ErrorIs(t, err, faction.ErrNotFound)
	assert.Equal(t, faction.KindNotFound, faction.KindOf(err))
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.Create(ctx, "red"))
	f.platform.AddRole("blue")
	f.platform.AddRole("green")

	added, err := f.registry.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	board, err := f.registry.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Len(t, board, 3)

	added, err = f.registry.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)
}
