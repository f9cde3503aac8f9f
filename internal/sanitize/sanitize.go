// Package sanitize cleans free-text profile input and validates contact
// formats before anything reaches the store.
package sanitize

import (
	"strings"

	emailaddress "github.com/mcnijman/go-emailaddress"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is the locale assumed for phone numbers submitted without a
// country prefix.
const defaultRegion = "CZ"

var strict = bluemonday.StrictPolicy()

// Clean strips all HTML markup from s, leaving plain text.
func Clean(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

func ValidEmail(s string) bool {
	_, err := emailaddress.Parse(strings.TrimSpace(s))
	return err == nil
}

func ValidPhone(s string) bool {
	num, err := phonenumbers.Parse(strings.TrimSpace(s), defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
