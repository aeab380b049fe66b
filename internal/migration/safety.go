package migration

import (
	"encoding/json"
	"fmt"
)

// Safety is the risk tier of a step or plan.
// Tiers are totally ordered: Safe < RequiresConfirmation < Destructive.
type Safety int

const (
	// Safe steps cannot lose data.
	Safe Safety = iota

	// RequiresConfirmation steps rewrite existing data or constraints.
	RequiresConfirmation

	// Destructive steps drop data irrecoverably.
	Destructive
)

func (s Safety) String() string {
	switch s {
	case Safe:
		return "safe"
	case RequiresConfirmation:
		return "requires_confirmation"
	case Destructive:
		return "destructive"
	default:
		return fmt.Sprintf("safety(%d)", int(s))
	}
}

// ParseSafety accepts the String form of a tier.
func ParseSafety(s string) (Safety, error) {
	switch s {
	case "safe", "Safe":
		return Safe, nil
	case "requires_confirmation", "RequiresConfirmation":
		return RequiresConfirmation, nil
	case "destructive", "Destructive":
		return Destructive, nil
	default:
		return 0, fmt.Errorf("unknown safety tier %q", s)
	}
}

// Max returns the riskier of two tiers.
func (s Safety) Max(other Safety) Safety {
	if other > s {
		return other
	}
	return s
}

func (s Safety) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Safety) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSafety(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
