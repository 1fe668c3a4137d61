// Package policy classifies declared authorization actions against the
// privilege baseline. An action carries one default setting per session
// context; anything not requiring administrator authentication and not
// explicitly tracked in the baseline is a finding.
package policy

import (
	"fmt"
	"strings"

	"polkit-audit/internal/privs"
)

// Context is one of the three session contexts a privilege request is
// evaluated under.
type Context int

const (
	AnySession Context = iota
	InactiveSession
	ActiveSession
)

// Contexts lists all session contexts in the canonical (any, inactive,
// active) order. Evaluation iterates this enumeration, never a map, so a
// missing setting is an explicit absent state rather than a lookup surprise.
var Contexts = [3]Context{AnySession, InactiveSession, ActiveSession}

// ElementName returns the descriptor element name for the context.
func (c Context) ElementName() string {
	switch c {
	case AnySession:
		return "allow_any"
	case InactiveSession:
		return "allow_inactive"
	case ActiveSession:
		return "allow_active"
	}
	return fmt.Sprintf("context(%d)", int(c))
}

// Setting is one declared default with an explicit presence marker.
type Setting struct {
	Value   string
	Present bool
}

// display renders the setting for detail strings; absent settings show as
// the conventional "??" placeholder.
func (s Setting) display() string {
	if !s.Present {
		return "??"
	}
	return s.Value
}

// Settings holds the three per-context defaults of one action.
type Settings struct {
	Any      Setting
	Inactive Setting
	Active   Setting
}

// Get returns the setting for a context.
func (s Settings) Get(c Context) Setting {
	switch c {
	case AnySession:
		return s.Any
	case InactiveSession:
		return s.Inactive
	case ActiveSession:
		return s.Active
	}
	return Setting{}
}

// Set records a value for a context, marking it present.
func (s *Settings) Set(c Context, value string) {
	switch c {
	case AnySession:
		s.Any = Setting{Value: value, Present: true}
	case InactiveSession:
		s.Inactive = Setting{Value: value, Present: true}
	case ActiveSession:
		s.Active = Setting{Value: value, Present: true}
	}
}

// Action is one declared authorization action: its id, whether the
// descriptor carried a defaults element at all, and the per-context
// settings.
type Action struct {
	ID          string
	HasDefaults bool
	Settings    Settings
}

// Describe renders the action with its settings in the fixed
// "id (any:inactive:active)" order used by finding detail texts.
func (a Action) Describe() string {
	return fmt.Sprintf("%s (%s:%s:%s)",
		a.ID,
		a.Settings.Any.display(),
		a.Settings.Inactive.display(),
		a.Settings.Active.display())
}

// Category is the classification of one action.
type Category int

const (
	// Unauthorized: at least one context grants the privilege without
	// administrator authentication (or the defaults element is missing
	// entirely).
	Unauthorized Category = iota
	// Untracked: every context requires administrator authentication, but
	// the action is not listed in the baseline.
	Untracked
	// CantAcquire: at least one context is 'no' or undefined, so admins
	// cannot self-elevate. Secondary, informational; may accompany either
	// of the two above.
	CantAcquire
)

func (c Category) String() string {
	switch c {
	case Unauthorized:
		return "unauthorized"
	case Untracked:
		return "untracked"
	case CantAcquire:
		return "cant-acquire"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Evaluate classifies one action. An action tracked in the baseline
// produces no categories: policy authors have already reviewed it.
// Otherwise exactly one of Unauthorized or Untracked is returned, possibly
// followed by CantAcquire.
func Evaluate(baseline privs.Baseline, action Action) []Category {
	if baseline.Tracked(action.ID) {
		return nil
	}

	foundUnauthorized := !action.HasDefaults
	foundNo := false
	foundUndef := false

	for _, ctx := range Contexts {
		setting := action.Settings.Get(ctx)
		switch {
		case !setting.Present:
			foundUndef = true
		case strings.HasPrefix(setting.Value, "auth_admin"):
			// requires administrator authentication, fine
		case setting.Value == "no":
			foundNo = true
		default:
			foundUnauthorized = true
		}
	}

	var categories []Category
	if foundUnauthorized {
		categories = append(categories, Unauthorized)
	} else {
		categories = append(categories, Untracked)
	}
	if foundNo || foundUndef {
		categories = append(categories, CantAcquire)
	}
	return categories
}
