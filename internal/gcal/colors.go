package gcal

import (
	"fmt"
	"strings"
)

// Google Calendar event colors, IDs "1" through "11".
const (
	ColorLavender  = "1"
	ColorSage      = "2"
	ColorGrape     = "3"
	ColorFlamingo  = "4"
	ColorBanana    = "5"
	ColorTangerine = "6"
	ColorPeacock   = "7"
	ColorGraphite  = "8"
	ColorBlueberry = "9"
	ColorBasil     = "10"
	ColorTomato    = "11"
)

// DefaultColorID is used when nothing else resolves.
const DefaultColorID = ColorPeacock

// canonicalColors maps Google's own color names to IDs.
var canonicalColors = map[string]string{
	"lavender":  ColorLavender,
	"sage":      ColorSage,
	"grape":     ColorGrape,
	"flamingo":  ColorFlamingo,
	"banana":    ColorBanana,
	"tangerine": ColorTangerine,
	"peacock":   ColorPeacock,
	"graphite":  ColorGraphite,
	"blueberry": ColorBlueberry,
	"basil":     ColorBasil,
	"tomato":    ColorTomato,
}

// colorAliases folds everyday color words, including the Hebrew names users
// actually type, onto canonical names.
var colorAliases = map[string]string{
	"red":          "tomato",
	"blue":         "blueberry",
	"green":        "basil",
	"light green":  "sage",
	"orange":       "tangerine",
	"yellow":       "banana",
	"purple":       "grape",
	"light purple": "lavender",
	"violet":       "grape",
	"pink":         "flamingo",
	"gray":         "graphite",
	"grey":         "graphite",
	"cyan":         "peacock",
	"turquoise":    "peacock",
	"teal":         "peacock",

	"אדום":  "tomato",
	"כחול":  "blueberry",
	"ירוק":  "basil",
	"כתום":  "tangerine",
	"צהוב":  "banana",
	"סגול":  "grape",
	"ורוד":  "flamingo",
	"אפור":  "graphite",
	"טורקיז": "peacock",
}

// categoryColorDefaults seeds new users' category preferences.
var categoryColorDefaults = map[string]string{
	"work":     ColorBlueberry,
	"meeting":  ColorPeacock,
	"personal": ColorBanana,
	"family":   ColorFlamingo,
	"health":   ColorBasil,
	"sport":    ColorTangerine,
	"study":    ColorGrape,
	"fun":      ColorTomato,
	"other":    ColorGraphite,
}

// CategoryColorDefaults returns a copy of the default category color map.
func CategoryColorDefaults() map[string]string {
	out := make(map[string]string, len(categoryColorDefaults))
	for k, v := range categoryColorDefaults {
		out[k] = v
	}
	return out
}

// ColorIDForName resolves a color word (canonical, alias, English or Hebrew)
// to a color ID.
func ColorIDForName(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if canonical, ok := colorAliases[key]; ok {
		key = canonical
	}
	id, ok := canonicalColors[key]
	return id, ok
}

// ColorNameForID returns the canonical name for a color ID, for display.
func ColorNameForID(id string) string {
	for name, colorID := range canonicalColors {
		if colorID == id {
			return name
		}
	}
	return ""
}

// ValidColorID reports whether the string is a Google color ID.
func ValidColorID(id string) bool {
	return ColorNameForID(id) != ""
}

// ResolveColor picks an event color. First non-empty source wins:
// explicit color name, payload color id, the user's per-category
// preference, then the system default.
func ResolveColor(explicitName, payloadColorID, category string, userColors map[string]string) string {
	if explicitName != "" {
		if id, ok := ColorIDForName(explicitName); ok {
			return id
		}
		fmt.Printf("Colors: unknown explicit color %q, falling through\n", explicitName)
	}

	if payloadColorID != "" && ValidColorID(payloadColorID) {
		return payloadColorID
	}

	if category != "" {
		if id, ok := userColors[category]; ok && ValidColorID(id) {
			return id
		}
	}

	return DefaultColorID
}
