// Package lang holds the language catalog offered by the client and the
// source/target pair the pipeline translates between.
package lang

import (
	"fmt"
	"regexp"
	"strings"
)

// Language is one selectable spoken language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var catalog = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi (हिंदी)"},
	{Code: "mr", Name: "Marathi (मराठी)"},
	{Code: "bn", Name: "Bengali (বাংলা)"},
	{Code: "gu", Name: "Gujarati (ગુજરાતી)"},
	{Code: "kn", Name: "Kannada (ಕನ್ನಡ)"},
	{Code: "ml", Name: "Malayalam (മലയാളം)"},
	{Code: "pa", Name: "Punjabi (ਪੰਜਾਬੀ)"},
	{Code: "ta", Name: "Tamil (தமிழ்)"},
	{Code: "te", Name: "Telugu (తెలుగు)"},
	{Code: "ur", Name: "Urdu (اردو)"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ru", Name: "Russian"},
	{Code: "ar", Name: "Arabic"},
}

var codePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// All returns a copy of the catalog in display order.
func All() []Language {
	return append([]Language(nil), catalog...)
}

// Lookup finds a catalog entry by code. Regional codes such as "en-US"
// resolve to their base language.
func Lookup(code string) (Language, bool) {
	base := Base(code)
	for _, l := range catalog {
		if l.Code == base {
			return l, true
		}
	}
	return Language{}, false
}

// Name returns the display name for code, or the code itself when unknown.
func Name(code string) string {
	if l, ok := Lookup(code); ok {
		return l.Name
	}
	return code
}

// Base strips the region suffix: "pt-BR" -> "pt".
func Base(code string) string {
	base, _, _ := strings.Cut(code, "-")
	return base
}

// Validate reports whether code looks like "xx" or "xx-YY".
func Validate(code string) error {
	if !codePattern.MatchString(code) {
		return fmt.Errorf("invalid language code %q", code)
	}
	return nil
}

// Index returns the catalog position of code, or -1.
func Index(code string) int {
	base := Base(code)
	for i, l := range catalog {
		if l.Code == base {
			return i
		}
	}
	return -1
}

// Cycle returns the catalog code offset by step from code, wrapping around.
func Cycle(code string, step int) string {
	i := Index(code)
	if i < 0 {
		return catalog[0].Code
	}
	n := len(catalog)
	return catalog[((i+step)%n+n)%n].Code
}
