package permission

import "time"

// Permission is a catalog entry: a (resource, action) pair roles can be
// granted.
type Permission struct {
	ID        int64     `json:"id"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Permission) Key() string {
	return p.Resource + ":" + p.Action
}

type Repository interface {
	Create(perm *Permission) error
	Get(resource, action string) (*Permission, error)
	List() ([]*Permission, error)
	// Delete removes the catalog entry and every role association
	// referencing it.
	Delete(resource, action string) error
}
