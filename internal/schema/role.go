package schema

import "fmt"

//go:generate go tool stringer -type=Role -linecomment -output=role_string.go

// Role marks where a template sheet sits in the hierarchy.
type Role int

const (
	// RolePlain is an intermediate sheet: it has a parent and may have children.
	RolePlain Role = iota // plain
	// RoleRoot is the single top-level sheet.
	RoleRoot // root
	// RoleLeaf rows never contribute children when flattening.
	RoleLeaf // leaf
)

// ParseRole parses the document spelling of a role. The empty string is RolePlain.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "plain":
		return RolePlain, nil
	case "root":
		return RoleRoot, nil
	case "leaf":
		return RoleLeaf, nil
	default:
		return RolePlain, fmt.Errorf("invalid sheet type %q (expected 'root', 'leaf' or '')", s)
	}
}
