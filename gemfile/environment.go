package gemfile

import (
	"fmt"
	"strings"
)

// Environment parameterizes evaluation: the active Ruby version, the
// enabled/disabled group sets, and the active platform set
// (spec.md §3 "Environment").
type Environment struct {
	RubyVersion     string
	EnabledGroups   map[string]bool
	DisabledGroups  map[string]bool
	ActivePlatforms map[string]bool
}

// NewEnvironment builds an Environment for rubyVersion (e.g. "2.5.0"),
// with the default group enabled and the platform set auto-populated per
// spec.md §3: `ruby`, `mri`, `ruby_XY`, `mri_XY` where XY are the version's
// major and minor components concatenated.
func NewEnvironment(rubyVersion string) *Environment {
	env := &Environment{
		RubyVersion:     rubyVersion,
		EnabledGroups:   map[string]bool{"default": true},
		DisabledGroups:  map[string]bool{},
		ActivePlatforms: map[string]bool{"ruby": true, "mri": true},
	}
	if xy := rubyVersionXY(rubyVersion); xy != "" {
		env.ActivePlatforms["ruby_"+xy] = true
		env.ActivePlatforms["mri_"+xy] = true
	}
	return env
}

func rubyVersionXY(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s%s", parts[0], parts[1])
}

// EnableGroup / DisableGroup let a caller customize the default
// environment before evaluating a Gemfile (e.g. enabling `:test`).
func (e *Environment) EnableGroup(name string) { e.EnabledGroups[name] = true }
func (e *Environment) DisableGroup(name string) {
	delete(e.EnabledGroups, name)
	e.DisabledGroups[name] = true
}

// groupMatches implements spec.md §4.10's group match rule: an empty
// group list behaves as [default]; otherwise a group matches iff at
// least one name is enabled and none is disabled.
func (e *Environment) groupMatches(groups []string) bool {
	if len(groups) == 0 {
		groups = []string{"default"}
	}
	anyEnabled := false
	for _, g := range groups {
		if e.DisabledGroups[g] {
			return false
		}
		if e.EnabledGroups[g] {
			anyEnabled = true
		}
	}
	return anyEnabled
}

// platformMatches implements spec.md §4.10's platform match rule: an
// empty platform list matches; otherwise match iff any named platform is
// in the active set.
func (e *Environment) platformMatches(platforms []string) bool {
	if len(platforms) == 0 {
		return true
	}
	for _, p := range platforms {
		if e.ActivePlatforms[p] {
			return true
		}
	}
	return false
}
