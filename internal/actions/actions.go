// Package actions decodes polkit authorization-action descriptor files: XML
// documents declaring action ids and their per-session-context default
// settings. Decoding is the interface boundary; classification lives in the
// policy package.
package actions

import (
	"encoding/xml"
	"os"
	"strings"

	"polkit-audit/internal/policy"
)

type policyConfig struct {
	Actions []actionElem `xml:"action"`
}

type actionElem struct {
	ID       string        `xml:"id,attr"`
	Defaults *defaultsElem `xml:"defaults"`
}

// element values are pointers so that an absent element is distinguishable
// from an empty one
type defaultsElem struct {
	AllowAny      *string `xml:"allow_any"`
	AllowInactive *string `xml:"allow_inactive"`
	AllowActive   *string `xml:"allow_active"`
}

// DecodeFile parses one descriptor file and returns its declared actions.
// A malformed document is a per-file soft error: the caller reports it as a
// finding and keeps processing other files.
func DecodeFile(path string) ([]policy.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses descriptor XML content.
func Decode(data []byte) ([]policy.Action, error) {
	var doc policyConfig
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	actions := make([]policy.Action, 0, len(doc.Actions))
	for _, elem := range doc.Actions {
		action := policy.Action{ID: elem.ID}
		if elem.Defaults != nil {
			action.HasDefaults = true
			setIfPresent(&action.Settings, policy.AnySession, elem.Defaults.AllowAny)
			setIfPresent(&action.Settings, policy.InactiveSession, elem.Defaults.AllowInactive)
			setIfPresent(&action.Settings, policy.ActiveSession, elem.Defaults.AllowActive)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func setIfPresent(s *policy.Settings, ctx policy.Context, value *string) {
	if value != nil {
		s.Set(ctx, strings.TrimSpace(*value))
	}
}
