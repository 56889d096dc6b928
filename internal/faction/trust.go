package faction

import (
	"context"
	"fmt"
	"slices"
)

// TrustPolicy decides who may use the privileged commands: administrators,
// and holders of any role in the allowlist
type TrustPolicy struct {
	store TrustStore
}

func NewTrustPolicy(store TrustStore) *TrustPolicy {
	return &TrustPolicy{store: store}
}

// The allowlist is read on every call since it can change at any time
func (t *TrustPolicy) IsTrusted(ctx context.Context, actor Actor) (bool, error) {

	if actor.Admin {
		return true, nil
	}
	if len(actor.RoleIDs) == 0 {
		return false, nil
	}
	trusted, err := t.store.TrustedRoles(ctx)
	if err != nil {
		return false, fmt.Errorf("could not read trusted roles: %w", err)
	}
	for _, roleID := range actor.RoleIDs {
		if slices.Contains(trusted, roleID) {
			return true, nil
		}
	}
	return false, nil
}

func (t *TrustPolicy) Trust(ctx context.Context, roleID string) error {
	if err := t.store.TrustRole(ctx, roleID); err != nil {
		return fmt.Errorf("could not trust role %s: %w", roleID, err)
	}
	return nil
}
