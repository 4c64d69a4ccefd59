package models

import (
	"errors"
	"time"
)

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

var (
	ErrInvalidRole     = errors.New("role must be parent or child")
	ErrParentHasOwner  = errors.New("parent accounts cannot reference a parent")
	ErrChildNeedsOwner = errors.New("child accounts must reference a parent")
)

// Membership is an account's place in a family: either a parent, or a child
// owned by exactly one parent. The zero value is invalid.
type Membership struct {
	role  Role
	owner string
}

func ParentMembership() Membership {
	return Membership{role: RoleParent}
}

func ChildOf(parentID string) Membership {
	return Membership{role: RoleChild, owner: parentID}
}

// NewMembership rebuilds a membership from its stored columns.
func NewMembership(role Role, parentID string) (Membership, error) {
	switch role {
	case RoleParent:
		if parentID != "" {
			return Membership{}, ErrParentHasOwner
		}
		return ParentMembership(), nil
	case RoleChild:
		if parentID == "" {
			return Membership{}, ErrChildNeedsOwner
		}
		return ChildOf(parentID), nil
	default:
		return Membership{}, ErrInvalidRole
	}
}

func (m Membership) Role() Role {
	return m.role
}

// Owner returns the owning parent for child memberships.
func (m Membership) Owner() (string, bool) {
	return m.owner, m.role == RoleChild
}

func (m Membership) IsParent() bool { return m.role == RoleParent }
func (m Membership) IsChild() bool  { return m.role == RoleChild }

type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	Membership   Membership
	CreatedAt    time.Time
}

func (a Account) Role() Role {
	return a.Membership.Role()
}

// ParentID returns the owner of a child account, or "" for parents.
func (a Account) ParentID() string {
	owner, _ := a.Membership.Owner()
	return owner
}

// FamilyID identifies the household the account belongs to.
func (a Account) FamilyID() string {
	if owner, ok := a.Membership.Owner(); ok {
		return owner
	}
	return a.ID
}

// Owns reports whether a is the parent of child.
func (a Account) Owns(child Account) bool {
	owner, ok := child.Membership.Owner()
	return ok && a.Membership.IsParent() && owner == a.ID
}

type FamilySettings struct {
	ParentID              string
	DefaultAllowedMinutes int
	UpdatedAt             time.Time
}
