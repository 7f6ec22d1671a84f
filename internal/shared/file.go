package shared

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest file or folder name SanitizeFileName produces, counted in runes.
const MaxNameLength = 200

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFileName replaces characters that are invalid in file and folder names with an underscore.
//
// Leading and trailing dots and spaces are removed and the result is truncated to [MaxNameLength] runes.
//
//	SanitizeFileName("AC/DC: Live")  // "AC_DC_ Live"
//	SanitizeFileName(" Track... ")   // "Track"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")

	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}
