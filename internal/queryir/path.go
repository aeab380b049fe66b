package queryir

import (
	"encoding/json"
	"strings"
)

// FieldPath addresses a possibly nested field as an ordered list of
// non-empty segments, e.g. "company.industry" is ["company", "industry"].
//
// A FieldPath is immutable once constructed. The zero value is not a valid
// path; build paths with ParsePath, SinglePath or PathFromSegments.
type FieldPath struct {
	segments []string
}

// ParsePath splits a dotted path. It rejects empty input and any empty
// segment, so "a..b", "a." and ".a" all fail.
func ParsePath(s string) (FieldPath, error) {
	if s == "" {
		return FieldPath{}, &QueryError{Code: ErrCodeEmptyFieldPath}
	}
	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if seg == "" {
			return FieldPath{}, &QueryError{Code: ErrCodeInvalidFieldPath, Path: s, Reason: "path contains empty segment"}
		}
	}
	return FieldPath{segments: segments}, nil
}

// MustPath is like ParsePath but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPath(s string) FieldPath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// SinglePath builds a one-segment path without splitting on dots.
func SinglePath(name string) (FieldPath, error) {
	return PathFromSegments([]string{name})
}

// PathFromSegments builds a path from pre-split segments.
func PathFromSegments(segments []string) (FieldPath, error) {
	if len(segments) == 0 {
		return FieldPath{}, &QueryError{Code: ErrCodeEmptyFieldPath}
	}
	for _, seg := range segments {
		if seg == "" {
			return FieldPath{}, &QueryError{
				Code:   ErrCodeInvalidFieldPath,
				Path:   strings.Join(segments, "."),
				Reason: "path contains empty segment",
			}
		}
	}
	return FieldPath{segments: append([]string(nil), segments...)}, nil
}

// Segments returns a copy of the path segments.
func (p FieldPath) Segments() []string { return append([]string(nil), p.segments...) }

// Depth returns the number of segments.
func (p FieldPath) Depth() int { return len(p.segments) }

// IsSimple reports whether the path names a top-level field.
func (p FieldPath) IsSimple() bool { return len(p.segments) == 1 }

// IsZero reports whether p was never constructed.
func (p FieldPath) IsZero() bool { return len(p.segments) == 0 }

// Root returns the first segment.
func (p FieldPath) Root() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// Leaf returns the last segment.
func (p FieldPath) Leaf() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Dotted joins the segments with dots.
func (p FieldPath) Dotted() string { return strings.Join(p.segments, ".") }

func (p FieldPath) String() string { return p.Dotted() }

// MarshalJSON encodes the path as an array of segments.
func (p FieldPath) MarshalJSON() ([]byte, error) {
	if p.segments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.segments)
}

// UnmarshalJSON decodes and validates an array of segments.
func (p *FieldPath) UnmarshalJSON(data []byte) error {
	var segments []string
	if err := json.Unmarshal(data, &segments); err != nil {
		return err
	}
	parsed, err := PathFromSegments(segments)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
