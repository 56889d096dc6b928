// Package factiontest provides an in-memory platform for tests
package factiontest

import (
	"context"
	"slices"
	"sync"

	"factionbot/internal/faction"
)

// Platform keeps faction roles and their holders in memory
type Platform struct {
	mu      sync.Mutex
	roles   map[string]string          // role name -> role id
	holders map[string]map[string]bool // role id -> user ids

	// Set to make the corresponding call fail
	CreateErr error
	GrantErr  error

	Created []string
	Deleted []string
}

func NewPlatform() *Platform {
	return &Platform{roles: map[string]string{}, holders: map[string]map[string]bool{}}
}

// AddRole registers a role without any channel group, as if created by hand
func (p *Platform) AddRole(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addRole(name)
}

func (p *Platform) addRole(name string) string {
	if id, ok := p.roles[name]; ok {
		return id
	}
	id := "role-" + name
	p.roles[name] = id
	p.holders[id] = map[string]bool{}
	return id
}

// HasRole reports if the user holds the role with that name
func (p *Platform) HasRole(userID string, name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.roles[name]
	return ok && p.holders[id][userID]
}

func (p *Platform) CreateStructure(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateErr != nil {
		return p.CreateErr
	}
	p.addRole(name)
	p.Created = append(p.Created, name)
	return nil
}

func (p *Platform) DeleteStructure(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.roles[name]; ok {
		delete(p.holders, id)
		delete(p.roles, name)
	}
	p.Deleted = append(p.Deleted, name)
	return nil
}

func (p *Platform) FindRole(ctx context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.roles[name]
	if !ok {
		return "", faction.ErrNotFound
	}
	return id, nil
}

func (p *Platform) GrantRole(ctx context.Context, userID string, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.GrantErr != nil {
		return p.GrantErr
	}
	holders, ok := p.holders[roleID]
	if !ok {
		return faction.ErrNotFound
	}
	holders[userID] = true
	return nil
}

func (p *Platform) RevokeRole(ctx context.Context, userID string, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if holders, ok := p.holders[roleID]; ok {
		delete(holders, userID)
	}
	return nil
}

func (p *Platform) StructureNames(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.roles))
	for name := range p.roles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
