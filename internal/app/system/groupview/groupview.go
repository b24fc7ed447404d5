// Package groupview projects a registrant list onto the tabs of the groups
// page: everyone, one numbered group, or those without a group.
package groupview

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/domain/models"
)

var ErrBadSelector = errors.New("groupview: selector must be all, unassigned or a group number")

type Kind int

const (
	KindAll Kind = iota
	KindGroup
	KindUnassigned
)

// Selector picks a subset of registrants.
type Selector struct {
	Kind  Kind
	Group int // set when Kind == KindGroup
}

var All = Selector{Kind: KindAll}
var Unassigned = Selector{Kind: KindUnassigned}

// ForGroup selects members of group n.
func ForGroup(n int) Selector { return Selector{Kind: KindGroup, Group: n} }

// ParseSelector accepts "all", "unassigned" or a group number. Empty means all.
func ParseSelector(s string) (Selector, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all":
		return All, nil
	case "unassigned", "none":
		return Unassigned, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !rules.IsValidGroup(n) {
		return All, ErrBadSelector
	}
	return ForGroup(n), nil
}

// String is the query value that ParseSelector reads back.
func (s Selector) String() string {
	switch s.Kind {
	case KindGroup:
		return strconv.Itoa(s.Group)
	case KindUnassigned:
		return "unassigned"
	default:
		return "all"
	}
}

// Label is the tab caption.
func (s Selector) Label() string {
	switch s.Kind {
	case KindGroup:
		return "Group " + strconv.Itoa(s.Group)
	case KindUnassigned:
		return "Unassigned"
	default:
		return "All"
	}
}

func (s Selector) Matches(r models.Registrant) bool {
	switch s.Kind {
	case KindGroup:
		return r.AssignedGroup != nil && *r.AssignedGroup == s.Group
	case KindUnassigned:
		return r.AssignedGroup == nil
	default:
		return true
	}
}

// Filter returns the matching registrants in their original order.
func Filter(records []models.Registrant, sel Selector) []models.Registrant {
	out := make([]models.Registrant, 0, len(records))
	for _, r := range records {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Tab is one entry in the groups page tab bar.
type Tab struct {
	Key    string
	Label  string
	Count  int
	Active bool
}

// Selectors lists every tab in display order.
func Selectors() []Selector {
	out := []Selector{All}
	for g := rules.MinGroup; g <= rules.MaxGroup; g++ {
		out = append(out, ForGroup(g))
	}
	return append(out, Unassigned)
}

// Tabs counts records per tab and marks the active one.
func Tabs(records []models.Registrant, active Selector) []Tab {
	sels := Selectors()
	tabs := make([]Tab, len(sels))
	for i, s := range sels {
		tabs[i] = Tab{Key: s.String(), Label: s.Label(), Active: s == active}
	}
	for _, r := range records {
		for i, s := range sels {
			if s.Matches(r) {
				tabs[i].Count++
			}
		}
	}
	return tabs
}
