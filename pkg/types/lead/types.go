// Package lead defines the shared lead classification enumerations used by
// the scoring domain, the lead entity, and the interface layers.
package lead

// Type classifies what kind of opportunity a lead represents.
type Type string

const (
	TypeRenewal         Type = "renewal"
	TypeHardwareRefresh Type = "hardware_refresh"
	TypeServiceAttach   Type = "service_attach"
)

// Valid reports whether t is one of the known lead types.
func (t Type) Valid() bool {
	switch t {
	case TypeRenewal, TypeHardwareRefresh, TypeServiceAttach:
		return true
	}
	return false
}

// Priority is the discrete presentation bucket of an overall score.
// Buckets are contiguous and exhaustive over [0,100].
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank returns the priority's position in the ordering, higher is more
// urgent.  Unknown priorities rank below LOW.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}
