package booking

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var contactPattern = regexp.MustCompile(`^\+?[\d\s()-]{7,}$`)

// ValidContact reports whether s looks like a phone number: an optional
// leading +, then at least seven digits, spaces, parentheses or dashes.
func ValidContact(s string) bool {
	return contactPattern.MatchString(strings.TrimSpace(s))
}

// BookRequest carries the caller-supplied booking fields.
type BookRequest struct {
	UserID  uint64
	SlotID  uint64
	Contact string
	Name    string
}

// normalize trims the free-text fields and checks every field, reporting all
// problems at once.
func (r *BookRequest) normalize() error {
	r.Contact = strings.TrimSpace(r.Contact)
	r.Name = strings.TrimSpace(r.Name)

	fields := map[string]string{}
	if r.UserID == 0 {
		fields["user_id"] = "is required"
	}
	if r.SlotID == 0 {
		fields["slot_id"] = "is required"
	}
	switch {
	case r.Contact == "":
		fields["contact"] = "is required"
	case !ValidContact(r.Contact):
		fields["contact"] = "must be a valid phone number"
	}
	switch n := utf8.RuneCountInString(r.Name); {
	case n == 0:
		fields["name"] = "is required"
	case n > 50:
		fields["name"] = "must be at most 50 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
