package auth

import "sort"

// PermissionAggregator resolves the full permission set a user holds
// through all assigned roles.
type PermissionAggregator struct {
	repo PermissionRepositoryAPI
}

func NewPermissionAggregator(repo PermissionRepositoryAPI) *PermissionAggregator {
	return &PermissionAggregator{repo: repo}
}

// FindAllPermissions returns the deduplicated union of resource:action
// authorities granted to the user. A user with no roles, or roles with no
// granted permissions, yields an empty set, never an error.
func (a *PermissionAggregator) FindAllPermissions(username string) ([]string, error) {
	granted, err := a.repo.FindGrantedPermissions(username)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(granted))
	authorities := make([]string, 0, len(granted))
	for _, p := range granted {
		key := p.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		authorities = append(authorities, key)
	}

	sort.Strings(authorities)
	return authorities, nil
}
