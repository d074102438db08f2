package message

import "fmt"

// Type identifies a payload schema.
//
//	var TagsType = message.Type{Domain: "outlander", Category: "tags", Version: "v1"}
type Type struct {
	// Domain is the owning system, "outlander" for everything in this module.
	Domain string `json:"domain"`
	// Category is the payload kind within the domain, e.g. "nodes", "tags", "setting".
	Category string `json:"category"`
	// Version is the schema version, "v1", "v2"...
	Version string `json:"version"`
}

// Key returns "domain.category.version".
func (mt Type) Key() string {
	return fmt.Sprintf("%s.%s.%s", mt.Domain, mt.Category, mt.Version)
}

// String returns the same as Key.
func (mt Type) String() string {
	return mt.Key()
}

// IsValid reports whether all fields are set.
func (mt Type) IsValid() bool {
	return mt.Domain != "" && mt.Category != "" && mt.Version != ""
}

// Equal compares two types field by field.
func (mt Type) Equal(other Type) bool {
	return mt.Domain == other.Domain &&
		mt.Category == other.Category &&
		mt.Version == other.Version
}
