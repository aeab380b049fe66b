package migration

// Confirmation is the caller's consent for risky plans.
type Confirmation struct {
	// AllowDestructive permits Destructive steps and lossy type conversions.
	AllowDestructive bool

	// AllowRisky permits RequiresConfirmation steps.
	AllowRisky bool
}

// Forced permits every step.
var Forced = Confirmation{AllowDestructive: true, AllowRisky: true}

// Gate decides whether plan may be applied under c. It returns the first
// violation as a *MigrationError, or nil. Gate never alters the plan.
//
// Checks, per step in order:
//   - Destructive steps need AllowDestructive
//   - ChangeType falling back to SetNull needs AllowDestructive
//   - AddField of a required field without a default needs AllowDestructive,
//     unless a later BackfillRequired fills it
//   - RequiresConfirmation steps need AllowRisky
func Gate(plan *Plan, c Confirmation) error {
	if plan.IsEmpty() {
		return &MigrationError{Code: ErrCodeEmptyMigrationPlan}
	}

	backfilled := make(map[string]bool)
	for _, s := range plan.steps {
		if b, ok := s.(BackfillRequired); ok {
			backfilled[b.Field.String()] = true
		}
	}

	for _, s := range plan.steps {
		switch step := s.(type) {
		case ChangeType:
			if _, lossy := step.Transform.(TransformSetNull); lossy && !c.AllowDestructive {
				return &MigrationError{
					Code:  ErrCodeUnsupportedTypeConversion,
					Field: step.Name.String(),
					From:  step.OldType.String(),
					To:    step.NewType.String(),
				}
			}
		case AddField:
			_, hasDefault := step.Field.DefaultValue()
			name := step.Field.Name.String()
			if step.Field.IsRequired() && !hasDefault && !backfilled[name] && !c.AllowDestructive {
				return &MigrationError{Code: ErrCodeRequiredFieldWithoutDefault, Field: name}
			}
		}

		switch s.Safety() {
		case Destructive:
			if !c.AllowDestructive {
				return &MigrationError{Code: ErrCodeDestructiveWithoutConfirmation, Step: s.String()}
			}
		case RequiresConfirmation:
			if !c.AllowRisky {
				return &MigrationError{Code: ErrCodeConfirmationRequired, Step: s.String()}
			}
		}
	}
	return nil
}
