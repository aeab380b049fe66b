package ir

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID prefixes for the typed identifiers.
const (
	PrefixSchema    = "schema"
	PrefixMigration = "migration"
	PrefixEntity    = "entity"
)

// typeIDEncoding is the lowercase Crockford alphabet used by TypeID suffixes.
var typeIDEncoding = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

// typeIDSuffixLen is the length of a base32-encoded 128-bit UUID.
const typeIDSuffixLen = 26

// NewTypeID returns a fresh "<prefix>_<suffix>" identifier backed by a
// time-ordered UUIDv7.
func NewTypeID(prefix string) string {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source fails.
		u = uuid.New()
	}
	return prefix + "_" + typeIDEncoding.EncodeToString(u[:])
}

// ParseTypeID validates s as a TypeID carrying the given prefix and returns
// the embedded UUID.
func ParseTypeID(prefix, s string) (uuid.UUID, error) {
	i := strings.LastIndexByte(s, '_')
	if i < 0 {
		return uuid.Nil, fmt.Errorf("type id %q: missing '_' separator", s)
	}
	if got := s[:i]; got != prefix {
		return uuid.Nil, fmt.Errorf("type id %q: expected prefix %q, got %q", s, prefix, got)
	}
	suffix := s[i+1:]
	if len(suffix) != typeIDSuffixLen {
		return uuid.Nil, fmt.Errorf("type id %q: suffix must be %d characters", s, typeIDSuffixLen)
	}
	raw, err := typeIDEncoding.DecodeString(suffix)
	if err != nil {
		return uuid.Nil, fmt.Errorf("type id %q: %w", s, err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("type id %q: %w", s, err)
	}
	return u, nil
}

// EntityID identifies a stored entity ("entity_...").
type EntityID struct {
	s string
}

// NewEntityID generates a fresh entity ID.
func NewEntityID() EntityID {
	return EntityID{s: NewTypeID(PrefixEntity)}
}

// ParseEntityID validates s as an entity ID.
func ParseEntityID(s string) (EntityID, error) {
	if _, err := ParseTypeID(PrefixEntity, s); err != nil {
		return EntityID{}, err
	}
	return EntityID{s: s}, nil
}

// MustEntityID is like ParseEntityID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntityID(s string) EntityID {
	id, err := ParseEntityID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id EntityID) String() string { return id.s }

// IsZero reports whether id was never assigned.
func (id EntityID) IsZero() bool { return id.s == "" }

func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.s)
}

func (id *EntityID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEntityID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
