package faction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry holds the factions and who belongs to them.
// It keeps no state of its own: every call goes to the store
type Registry struct {
	store    Store
	platform Platform
	now      func() time.Time
}

type RegistryOption func(*Registry)

// WithClock replaces the clock used to decide the check-in day
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(store Store, platform Platform, options ...RegistryOption) *Registry {
	r := &Registry{store: store, platform: platform, now: time.Now}
	for _, option := range options {
		option(r)
	}
	return r
}

// Check-in days follow the UTC day boundary
func (r *Registry) today() string {
	return r.now().UTC().Format(time.DateOnly)
}

func (r *Registry) Create(ctx context.Context, name string) error {

	if err := r.store.InsertFaction(ctx, name); err != nil {
		return err
	}
	log.Debug().Str("faction", name).Msg("Faction stored, creating its structure")

	// The faction is kept even if the structure cannot be created
	if err := r.platform.CreateStructure(ctx, name); err != nil {
		return fmt.Errorf("could not create structure of faction %s: %w", name, err)
	}
	log.Info().Str("faction", name).Msg("Faction created")
	return nil
}

// Delete the faction and its structure. Returns the number of members
// that were left unaffiliated
func (r *Registry) Delete(ctx context.Context, name string) (int64, error) {

	if err := r.platform.DeleteStructure(ctx, name); err != nil {
		return 0, fmt.Errorf("could not delete structure of faction %s: %w", name, err)
	}
	if err := r.store.DeleteFaction(ctx, name); err != nil {
		return 0, fmt.Errorf("could not delete faction %s: %w", name, err)
	}
	cleared, err := r.store.ClearFaction(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("could not clear members of faction %s: %w", name, err)
	}
	log.Info().Str("faction", name).Int64("members", cleared).Msg("Faction deleted")
	return cleared, nil
}

func (r *Registry) Join(ctx context.Context, userID string, name string) error {
	return r.affiliate(ctx, userID, name, true)
}

// AddMember puts another user in a faction
func (r *Registry) AddMember(ctx context.Context, userID string, name string) error {
	return r.affiliate(ctx, userID, name, false)
}

func (r *Registry) affiliate(ctx context.Context, userID string, name string, self bool) error {

	if err := r.checkUnaffiliated(ctx, userID, name, self); err != nil {
		return err
	}

	roleID, err := r.platform.FindRole(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("faction %s: %w", name, ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("could not find role of faction %s: %w", name, err)
	}

	// Claiming only succeeds for unaffiliated users, so a concurrent
	// join of the same user can never leave it in two factions
	claimed, err := r.store.ClaimMembership(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("could not store membership of user %s: %w", userID, err)
	}
	if !claimed {
		if err := r.checkUnaffiliated(ctx, userID, name, self); err != nil {
			return err
		}
		return fmt.Errorf("membership of user %s changed concurrently", userID)
	}

	if err := r.platform.GrantRole(ctx, userID, roleID); err != nil {
		if _, releaseErr := r.store.ReleaseMembership(ctx, userID, name); releaseErr != nil {
			log.Error().Err(releaseErr).Str("user", userID).Msg("Could not undo membership after failing to grant the role")
		}
		return fmt.Errorf("could not grant role of faction %s to user %s: %w", name, userID, err)
	}
	log.Info().Str("user", userID).Str("faction", name).Msg("User joined faction")
	return nil
}

func (r *Registry) checkUnaffiliated(ctx context.Context, userID string, name string, self bool) error {

	membership, ok, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not read membership of user %s: %w", userID, err)
	}
	if !ok || membership.Faction == "" {
		return nil
	}
	switch {
	case !self:
		return &AffiliationError{ErrAlreadyInFaction, membership.Faction}
	case membership.Faction == name:
		return &AffiliationError{ErrAlreadyMember, membership.Faction}
	default:
		return &AffiliationError{ErrAlreadyInOtherFaction, membership.Faction}
	}
}

// Leave the current faction. Returns the faction that was left
func (r *Registry) Leave(ctx context.Context, userID string) (string, error) {

	membership, ok, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("could not read membership of user %s: %w", userID, err)
	}
	if !ok || membership.Faction == "" {
		return "", ErrNotInFaction
	}
	if err := r.release(ctx, userID, membership.Faction); err != nil {
		if errors.Is(err, errNotReleased) {
			return "", ErrNotInFaction
		}
		return "", err
	}
	return membership.Faction, nil
}

// RemoveMember takes another user out of the given faction
func (r *Registry) RemoveMember(ctx context.Context, userID string, name string) error {

	membership, ok, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not read membership of user %s: %w", userID, err)
	}
	if !ok || membership.Faction != name {
		return ErrNotInThatFaction
	}
	if err := r.release(ctx, userID, name); err != nil {
		if errors.Is(err, errNotReleased) {
			return ErrNotInThatFaction
		}
		return err
	}
	return nil
}

var errNotReleased = errors.New("membership not released")

func (r *Registry) release(ctx context.Context, userID string, name string) error {

	// A missing role is not an error, the membership is cleared anyway
	roleID, err := r.platform.FindRole(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Debug().Str("faction", name).Msg("Role of faction not found, skipping revoke")
	case err != nil:
		return fmt.Errorf("could not find role of faction %s: %w", name, err)
	default:
		if err := r.platform.RevokeRole(ctx, userID, roleID); err != nil {
			return fmt.Errorf("could not revoke role of faction %s from user %s: %w", name, userID, err)
		}
	}

	released, err := r.store.ReleaseMembership(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("could not clear membership of user %s: %w", userID, err)
	}
	if !released {
		return errNotReleased
	}
	log.Info().Str("user", userID).Str("faction", name).Msg("User left faction")
	return nil
}

// AssignLeader overwrites the leader of the faction. The leader does
// not need to be a member
func (r *Registry) AssignLeader(ctx context.Context, name string, userID string) error {
	if err := r.store.SetLeader(ctx, name, userID); err != nil {
		return fmt.Errorf("could not set leader of faction %s: %w", name, err)
	}
	return nil
}

// CheckIn credits the faction of the user once per day.
// Returns the faction credited
func (r *Registry) CheckIn(ctx context.Context, userID string) (string, error) {

	membership, ok, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("could not read membership of user %s: %w", userID, err)
	}
	if !ok || membership.Faction == "" {
		return "", ErrNotInFaction
	}
	today := r.today()
	if membership.LastCheckin == today {
		return "", ErrAlreadyCheckedInToday
	}

	marked, err := r.store.MarkCheckin(ctx, userID, today)
	if err != nil {
		return "", fmt.Errorf("could not store check-in of user %s: %w", userID, err)
	}
	if !marked {
		return "", ErrAlreadyCheckedInToday
	}
	if err := r.store.AddPoints(ctx, membership.Faction, CheckinPoints); err != nil {
		return "", fmt.Errorf("could not add points to faction %s: %w", membership.Faction, err)
	}
	log.Info().Str("user", userID).Str("faction", membership.Faction).Msg("Check-in")
	return membership.Faction, nil
}

func (r *Registry) WeeklyReset(ctx context.Context) error {
	if err := r.store.ResetPoints(ctx); err != nil {
		return fmt.Errorf("could not reset points: %w", err)
	}
	log.Info().Msg("Points of every faction reset")
	return nil
}

// DeclareWar records a war of the faction of the user against the enemy.
// The enemy is not required to exist
func (r *Registry) DeclareWar(ctx context.Context, userID string, enemy string) (War, error) {

	membership, ok, err := r.store.GetMembership(ctx, userID)
	if err != nil {
		return War{}, fmt.Errorf("could not read membership of user %s: %w", userID, err)
	}
	if !ok || membership.Faction == "" {
		return War{}, ErrNotInFaction
	}
	war := War{Faction1: membership.Faction, Faction2: enemy, Active: true}
	if err := r.store.InsertWar(ctx, war); err != nil {
		return War{}, fmt.Errorf("could not store war: %w", err)
	}
	log.Info().Str("faction", war.Faction1).Str("enemy", enemy).Msg("War declared")
	return war, nil
}

func (r *Registry) Wars(ctx context.Context) ([]War, error) {
	return r.store.ListWars(ctx)
}

func (r *Registry) Leaderboard(ctx context.Context) ([]Faction, error) {
	factions, err := r.store.ListFactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list factions: %w", err)
	}
	return factions, nil
}

func (r *Registry) Info(ctx context.Context, name string) (Info, error) {

	f, err := r.store.GetFaction(ctx, name)
	if err != nil {
		return Info{}, err
	}
	members, err := r.store.CountMembers(ctx, name)
	if err != nil {
		return Info{}, fmt.Errorf("could not count members of faction %s: %w", name, err)
	}
	return Info{Faction: f, Members: int(members)}, nil
}

// Members returns the user ids of the faction, empty if there are none
func (r *Registry) Members(ctx context.Context, name string) ([]string, error) {
	members, err := r.store.ListMembers(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("could not list members of faction %s: %w", name, err)
	}
	return members, nil
}

// Sync stores the factions that exist in the platform but not in the store.
// Returns how many were added
func (r *Registry) Sync(ctx context.Context) (int, error) {

	names, err := r.platform.StructureNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not list faction structures: %w", err)
	}
	added := 0
	for _, name := range names {
		created, err := r.store.EnsureFaction(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("faction", name).Msg("Could not sync faction")
			continue
		}
		if created {
			added++
		}
	}
	log.Info().Int("found", len(names)).Int("added", added).Msg("Factions synced with the platform")
	return added, nil
}
