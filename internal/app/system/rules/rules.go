// Package rules holds the registrant constraints shared by the registration
// form, the spreadsheet importer, and the spreadsheet template.
//
// Every surface that accepts registrant data validates against the values
// and predicates in this package; none of them keeps its own copy of the
// location list or the age floor.
package rules

import (
	"math"
	"strconv"
	"strings"
)

// MinAge is the eligibility floor for the whole system.
const MinAge = 12

// Group numbers written by the assignment operation.
const (
	MinGroup = 1
	MaxGroup = 5
)

// Canonical gender values.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// EventName titles exports and the dashboard.
const EventName = "Laguna District Family Camp"

// Locations is the ordered list of church locations a registrant may belong to.
// Order matters: the template dropdown and the registration form list them
// in this order.
var Locations = []string{
	"Alaminos",
	"Bae",
	"Bagong Kalsada",
	"Biñan",
	"Cabuyao",
	"Calamba",
	"Calauan",
	"Canlubang",
	"Carmona",
	"GMA",
	"Macabling",
	"Makiling",
	"Pagsanjan",
	"Pila",
	"Romblon",
	"San Pablo",
	"Silang",
	"Sta. Cruz",
	"Sta. Rosa",
	"Victoria",
}

// Genders lists the canonical gender values in display order.
var Genders = []string{GenderMale, GenderFemale}

var locationSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Locations))
	for _, l := range Locations {
		m[l] = struct{}{}
	}
	return m
}()

// IsNonEmptyName reports whether name has any non-space characters.
func IsNonEmptyName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// IsValidAge reports whether age meets the eligibility floor.
func IsValidAge(age int) bool {
	return age >= MinAge
}

// IsValidGroup reports whether n is an assignable group number.
func IsValidGroup(n int) bool {
	return n >= MinGroup && n <= MaxGroup
}

// NormalizeGender trims s and matches it case-insensitively against Genders,
// returning the canonical spelling.
func NormalizeGender(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, g := range Genders {
		if strings.EqualFold(s, g) {
			return g, true
		}
	}
	return "", false
}

// IsValidGender reports whether s names one of Genders, ignoring case and
// surrounding whitespace.
func IsValidGender(s string) bool {
	_, ok := NormalizeGender(s)
	return ok
}

// IsValidLocation reports whether s (after trimming) is exactly one of Locations.
// Matching is case-sensitive.
func IsValidLocation(s string) bool {
	_, ok := locationSet[strings.TrimSpace(s)]
	return ok
}

// AgeProblem classifies why a raw age value was rejected.
type AgeProblem int

const (
	AgeOK AgeProblem = iota
	AgeMissing
	AgeInvalidFormat
	AgeBelowMinimum
)

// ParseAge coerces a raw cell or form value into an age.
//
// Empty input and numeric zero are AgeMissing. Input that is not a whole
// number is AgeInvalidFormat. A whole number under MinAge is returned along
// with AgeBelowMinimum so callers can echo it.
func ParseAge(raw string) (int, AgeProblem) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, AgeMissing
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, AgeInvalidFormat
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, AgeInvalidFormat
	}
	age := int(f)
	if age == 0 {
		return 0, AgeMissing
	}
	if !IsValidAge(age) {
		return age, AgeBelowMinimum
	}
	return age, AgeOK
}
