package polar

import (
	"fmt"
	"strings"
)

// Type classifies how a polar's operating point varies across samples.
type Type int

const (
	// Type1 is a fixed-speed polar: Reynolds number constant, angle varies.
	Type1 Type = iota + 1
	// Type2 is a fixed-lift polar: Reynolds number varies with lift.
	Type2
	// Type3 is a rubber-chord polar.
	Type3
	// Type4 is a fixed-angle polar: angle constant, Reynolds number varies.
	Type4
	// Type5 is a beta-range polar at fixed velocity.
	Type5
	// Type6 is a control-variable polar.
	Type6
	// Type7 is a stability polar.
	Type7
	// Type8 is a control-range polar at fixed angle.
	Type8
	// TypeBoat is a boat polar swept over wind speed and direction.
	TypeBoat
	// TypeExternal marks a polar imported from external data rather than
	// computed by an analysis.
	TypeExternal
)

// String returns the canonical name of the polar type.
func (t Type) String() string {
	switch t {
	case Type1:
		return "T1"
	case Type2:
		return "T2"
	case Type3:
		return "T3"
	case Type4:
		return "T4"
	case Type5:
		return "T5"
	case Type6:
		return "T6"
	case Type7:
		return "T7"
	case Type8:
		return "T8"
	case TypeBoat:
		return "boat"
	case TypeExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParseType parses a polar type from string (case-insensitive).
// "fixed_speed" and "fixed_lift" are accepted as aliases for T1 and T2.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t1", "fixed_speed":
		return Type1, nil
	case "t2", "fixed_lift":
		return Type2, nil
	case "t3":
		return Type3, nil
	case "t4", "fixed_aoa":
		return Type4, nil
	case "t5":
		return Type5, nil
	case "t6":
		return Type6, nil
	case "t7":
		return Type7, nil
	case "t8":
		return Type8, nil
	case "boat":
		return TypeBoat, nil
	case "external":
		return TypeExternal, nil
	default:
		return 0, fmt.Errorf("unknown polar type: %s", s)
	}
}
