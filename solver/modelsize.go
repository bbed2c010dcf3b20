package solver

import (
	"fmt"
	"strings"
)

// ModelSize selects the external model's quality/speed tradeoff, from
// smallest/fastest to largest/most accurate. The zero value is treated
// as "unspecified" and resolves to DefaultModelSize at call time.
type ModelSize int

const (
	ModelXXSmall ModelSize = iota + 1
	ModelXSmall
	ModelSmall
	ModelMedium
	ModelLarge
	ModelXLarge
	ModelXXLarge
	ModelXXXLarge
)

// DefaultModelSize is the tier used when no explicit choice is made.
const DefaultModelSize = ModelXLarge

// String returns the canonical lowercase tier name. Values outside the
// defined tiers render as the default tier.
func (m ModelSize) String() string {
	switch m {
	case ModelXXSmall:
		return "xxsmall"
	case ModelXSmall:
		return "xsmall"
	case ModelSmall:
		return "small"
	case ModelMedium:
		return "medium"
	case ModelLarge:
		return "large"
	case ModelXLarge:
		return "xlarge"
	case ModelXXLarge:
		return "xxlarge"
	case ModelXXXLarge:
		return "xxxlarge"
	default:
		return "xlarge"
	}
}

// ParseModelSize parses a canonical tier name, rejecting anything else.
// Use this on user-supplied input so typos fail loudly.
func ParseModelSize(s string) (ModelSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xxsmall":
		return ModelXXSmall, nil
	case "xsmall":
		return ModelXSmall, nil
	case "small":
		return ModelSmall, nil
	case "medium":
		return ModelMedium, nil
	case "large":
		return ModelLarge, nil
	case "xlarge":
		return ModelXLarge, nil
	case "xxlarge":
		return ModelXXLarge, nil
	case "xxxlarge":
		return ModelXXXLarge, nil
	default:
		return 0, fmt.Errorf("unknown model size: %q", s)
	}
}

// ModelSizeOrDefault parses a tier name, substituting DefaultModelSize
// for anything unrecognized. Kept for callers that want the permissive
// legacy behavior; prefer ParseModelSize where input errors matter.
func ModelSizeOrDefault(s string) ModelSize {
	m, err := ParseModelSize(s)
	if err != nil {
		return DefaultModelSize
	}
	return m
}
