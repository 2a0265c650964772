// Package validate holds the injection-character checks applied to every
// caller-supplied string before it reaches a store lookup. The backing
// query language treats these characters specially, so this is a security
// control rather than a convenience check.
package validate

import (
	"fmt"
	"strings"

	"authgate/internal/core/domain"

	"github.com/google/uuid"
)

// Characters rejected in any user-supplied string.
const illegalChars = "$;,()"

// UserString rejects strings containing injection characters.
func UserString(s string) error {
	if strings.ContainsAny(s, illegalChars) {
		return fmt.Errorf("%w: string contains illegal characters", domain.ErrInput)
	}
	return nil
}

// GroupString applies UserString plus the leading-dot rule for
// group-related fields.
func GroupString(s string) error {
	if err := UserString(s); err != nil {
		return err
	}
	if strings.HasPrefix(s, ".") {
		return fmt.Errorf("%w: string must not start with a dot", domain.ErrInput)
	}
	return nil
}

// Email checks basic address syntax on top of UserString.
func Email(s string) error {
	if err := UserString(s); err != nil {
		return err
	}
	if !strings.Contains(s, "@") || !strings.Contains(s, ".") {
		return fmt.Errorf("%w: invalid email address", domain.ErrInput)
	}
	return nil
}

// UUID checks the string parses as a UUID, after the character check.
func UUID(s string) error {
	if err := UserString(s); err != nil {
		return err
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("%w: invalid id", domain.ErrInput)
	}
	return nil
}
