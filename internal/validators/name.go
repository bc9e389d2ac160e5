package validators

import (
	"errors"
	"regexp"
	"strings"
)

var personNamePattern = regexp.MustCompile(`^[\p{L}][\p{L}\p{M} .'-]*$`)

// ValidateNameFormat checks that a person's name is made of letters, spaces
// and the usual punctuation.
func ValidateNameFormat(name string) error {
	if !personNamePattern.MatchString(strings.TrimSpace(name)) {
		return errors.New("name may only contain letters, spaces, dots, apostrophes and hyphens")
	}
	return nil
}
