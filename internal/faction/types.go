package faction

import "context"

// Points credited to a faction on every daily check-in
const CheckinPoints = 10

type Faction struct {
	Name   string
	Points int
	Leader string // User id, empty when the faction has no leader
}

type Membership struct {
	UserID      string
	Faction     string // Empty when the user is unaffiliated
	LastCheckin string // Calendar day in YYYY-MM-DD form, empty if never checked in
}

type War struct {
	Faction1 string
	Faction2 string
	Active   bool
}

type Info struct {
	Faction
	Members int
}

// Actor is whoever invokes a command
type Actor struct {
	ID      string
	Admin   bool
	RoleIDs []string
}

// TrustStore holds the allowlist of trusted roles
type TrustStore interface {
	TrustRole(ctx context.Context, roleID string) error
	TrustedRoles(ctx context.Context) ([]string, error)
}

// Store is the persistent storage behind the registry.
// Every method is a single statement against the store
type Store interface {
	TrustStore

	// InsertFaction returns ErrAlreadyExists if the name is taken
	InsertFaction(ctx context.Context, name string) error
	// EnsureFaction inserts the faction unless present, reporting if it did
	EnsureFaction(ctx context.Context, name string) (bool, error)
	DeleteFaction(ctx context.Context, name string) error
	// GetFaction returns ErrNotFound if there is no such faction
	GetFaction(ctx context.Context, name string) (Faction, error)
	// ListFactions orders by points descending, then insertion order
	ListFactions(ctx context.Context) ([]Faction, error)
	AddPoints(ctx context.Context, name string, points int) error
	ResetPoints(ctx context.Context) error
	SetLeader(ctx context.Context, name string, userID string) error

	// GetMembership returns false if the user was never recorded
	GetMembership(ctx context.Context, userID string) (Membership, bool, error)
	// ClaimMembership affiliates the user with the faction only if the
	// user is currently unaffiliated, keeping any previous check-in day
	ClaimMembership(ctx context.Context, userID string, name string) (bool, error)
	// ReleaseMembership clears the faction of the user only if it is the given one
	ReleaseMembership(ctx context.Context, userID string, name string) (bool, error)
	// ClearFaction unsets the faction of every member of it
	ClearFaction(ctx context.Context, name string) (int64, error)
	ListMembers(ctx context.Context, name string) ([]string, error)
	CountMembers(ctx context.Context, name string) (int64, error)
	// MarkCheckin sets the check-in day of the user unless it already is that day
	MarkCheckin(ctx context.Context, userID string, day string) (bool, error)

	InsertWar(ctx context.Context, war War) error
	ListWars(ctx context.Context) ([]War, error)
}

// Platform creates and destroys the resources that back a faction
// in the chat platform
type Platform interface {
	// CreateStructure creates the role and channel group of a faction
	CreateStructure(ctx context.Context, name string) error
	// DeleteStructure removes whatever resources of the faction exist
	DeleteStructure(ctx context.Context, name string) error
	// FindRole returns ErrNotFound if no role has that name
	FindRole(ctx context.Context, name string) (string, error)
	GrantRole(ctx context.Context, userID string, roleID string) error
	RevokeRole(ctx context.Context, userID string, roleID string) error
	// StructureNames lists the names of the factions present in the platform
	StructureNames(ctx context.Context) ([]string, error)
}
