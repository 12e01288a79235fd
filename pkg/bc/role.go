package bc

import "strings"

// RoleKind is the semantic function of a data element concept
type RoleKind int

const (
	RoleMissing RoleKind = iota
	RoleUnknown
	RoleUnits
	RoleResult
	RoleTestCode
	RoleTopic
	RoleTestName
	RoleLOINC
	RoleRecord
	RoleVariable
	RoleGrouping
	RoleTiming
)

var roleNames = map[string]RoleKind{
	"qualifier.variable.units": RoleUnits,
	"qualifier.result":         RoleResult,
	"topic.test_code":          RoleTestCode,
	"topic":                    RoleTopic,
	"qualifier.synonym.name":   RoleTestName,
	"qualifier.synonym.loinc":  RoleLOINC,
	"qualifier.record":         RoleRecord,
	"qualifier.variable":       RoleVariable,
	"qualifier.grouping":       RoleGrouping,
	"timing":                   RoleTiming,
}

// Role is a parsed role tag. Raw keeps the string as written in the map.
type Role struct {
	Kind RoleKind
	Raw  string
}

// ParseRole classifies a role string. Matching is exact but case-insensitive;
// anything unrecognized is RoleUnknown and an empty string is RoleMissing.
func ParseRole(raw string) Role {
	if strings.TrimSpace(raw) == "" {
		return Role{Kind: RoleMissing, Raw: raw}
	}
	kind, ok := roleNames[strings.ToLower(raw)]
	if !ok {
		return Role{Kind: RoleUnknown, Raw: raw}
	}
	return Role{Kind: kind, Raw: raw}
}

// IsGeneric reports whether the role is handled as a generic qualifier
func (r Role) IsGeneric() bool {
	switch r.Kind {
	case RoleTopic, RoleRecord, RoleVariable, RoleGrouping:
		return true
	}
	return false
}

func (r Role) String() string {
	return r.Raw
}
