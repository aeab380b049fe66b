package migration

import (
	"encoding/json"

	"github.com/roach88/schemaforge/internal/ir"
)

// MigrationID identifies a plan ("migration_...").
type MigrationID struct {
	s string
}

// NewMigrationID generates a fresh, time-ordered migration ID.
func NewMigrationID() MigrationID {
	return MigrationID{s: ir.NewTypeID(ir.PrefixMigration)}
}

// ParseMigrationID validates s as a migration ID.
func ParseMigrationID(s string) (MigrationID, error) {
	if _, err := ir.ParseTypeID(ir.PrefixMigration, s); err != nil {
		return MigrationID{}, &MigrationError{Code: ErrCodeInvalidMigrationID, Value: s}
	}
	return MigrationID{s: s}, nil
}

func (id MigrationID) String() string { return id.s }

// IsZero reports whether id was never assigned.
func (id MigrationID) IsZero() bool { return id.s == "" }

func (id MigrationID) MarshalJSON() ([]byte, error) { return json.Marshal(id.s) }

func (id *MigrationID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMigrationID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
