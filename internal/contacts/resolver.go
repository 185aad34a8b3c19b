// Package contacts resolves attendee names against a user's saved
// address book. Matching is exact on the name after trimming whitespace
// and ignoring case; a partial name never matches a longer one.
package contacts

import "strings"

// Resolved pairs a requested name with the saved email it matched.
type Resolved struct {
	Name  string
	Email string
}

func lookup(name string, book map[string]string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return "", false
	}
	for saved, email := range book {
		if strings.ToLower(strings.TrimSpace(saved)) == want {
			return email, true
		}
	}
	return "", false
}

// FindMissing returns the requested names that have no saved email, in
// the order they were requested.
func FindMissing(names []string, book map[string]string) []string {
	var missing []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, ok := lookup(name, book); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Resolve maps the requested names to their saved emails, dropping any
// name that has no match.
func Resolve(names []string, book map[string]string) []Resolved {
	var resolved []Resolved
	for _, name := range names {
		if email, ok := lookup(name, book); ok {
			resolved = append(resolved, Resolved{Name: name, Email: email})
		}
	}
	return resolved
}
