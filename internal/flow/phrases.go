package flow

import (
	"regexp"
	"strings"
)

// Replies inside a pending flow are classified locally against fixed
// phrase sets; the classifier is never consulted for them. The sets are
// disjoint, so a reply matches at most one.

var confirmPhrases = map[string]bool{
	"yes":     true,
	"y":       true,
	"yeah":    true,
	"yep":     true,
	"sure":    true,
	"ok":      true,
	"okay":    true,
	"confirm": true,
	"delete":  true,
	"כן":      true,
	"בטח":     true,
	"אישור":   true,
	"מחק":     true,
}

var cancelPhrases = map[string]bool{
	"no":        true,
	"n":         true,
	"nope":      true,
	"cancel":    true,
	"stop":      true,
	"abort":     true,
	"nevermind": true,
	"לא":        true,
	"בטל":       true,
	"ביטול":     true,
	"עזוב":      true,
}

var skipPhrases = map[string]bool{
	"skip":       true,
	"without":    true,
	"no email":   true,
	"don't know": true,
	"dont know":  true,
	"דלג":        true,
	"בלי":        true,
	"אין לי":     true,
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func normalizePhrase(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(text, ".!?")
}

// IsConfirmation reports whether the reply is an explicit yes.
func IsConfirmation(text string) bool {
	return confirmPhrases[normalizePhrase(text)]
}

// IsCancellation reports whether the reply calls the whole thing off.
func IsCancellation(text string) bool {
	return cancelPhrases[normalizePhrase(text)]
}

// IsSkip reports whether the reply asks to proceed without the contact.
func IsSkip(text string) bool {
	return skipPhrases[normalizePhrase(text)]
}

// ExtractEmail returns the reply as an email address if that is what it
// is, or "" otherwise.
func ExtractEmail(text string) string {
	candidate := strings.TrimSpace(text)
	if emailPattern.MatchString(candidate) {
		return candidate
	}
	return ""
}
