package queryir

import (
	"fmt"
	"regexp"
)

// identifierRegex matches a single SQL identifier segment.
// Dotted paths are validated segment by segment.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// maxIdentifierLength bounds table, column and alias names.
const maxIdentifierLength = 128

// IdentifierError reports a table, column or alias name that cannot be
// safely quoted into SQL.
type IdentifierError struct {
	Identifier string
	Reason     string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
}

// ValidateIdentifier checks a single identifier segment.
func ValidateIdentifier(id string) error {
	if id == "" {
		return &IdentifierError{Identifier: id, Reason: "identifier cannot be empty"}
	}
	if len(id) > maxIdentifierLength {
		return &IdentifierError{
			Identifier: id,
			Reason:     fmt.Sprintf("identifier exceeds maximum length of %d characters", maxIdentifierLength),
		}
	}
	if !identifierRegex.MatchString(id) {
		return &IdentifierError{
			Identifier: id,
			Reason:     "only letters, numbers and underscores are allowed",
		}
	}
	return nil
}

// ValidateReference checks every path segment and the alias of a column
// reference. Sentinel references carry no path and only the alias is checked.
func ValidateReference(r Reference) error {
	if !r.IsSentinel() {
		if len(r.path) == 0 {
			return &IdentifierError{Identifier: r.String(), Reason: "reference has no column"}
		}
		for _, seg := range r.path {
			if err := ValidateIdentifier(seg); err != nil {
				return err
			}
		}
	}
	if r.alias != "" {
		if err := ValidateIdentifier(r.alias); err != nil {
			return err
		}
	}
	return nil
}
