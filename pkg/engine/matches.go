// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"maps"
	"slices"

	"github.com/yeetrun/argschema/pkg/contract"
	"tailscale.com/util/mak"
)

// Source is where a matched argument came from.
type Source uint8

const (
	FromArgs Source = iota + 1
	FromEnv
)

func (s Source) String() string {
	switch s {
	case FromArgs:
		return "args"
	case FromEnv:
		return "env"
	}
	return "unknown"
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Arg is the match state of one argument.
type Arg struct {
	Values      []string
	Occurrences int
	Source      Source
}

// Matches is the result of Command.Match.
type Matches struct {
	args   map[string]*Arg
	action string
	sub    *Matches
}

var _ contract.Matches = (*Matches)(nil)

// NewMatches returns an empty match result. Engines built on other flag
// parsers use it with Add and SetSubAction.
func NewMatches() *Matches {
	return &Matches{}
}

func (m *Matches) arg(name string, src Source) *Arg {
	a, ok := m.args[name]
	if !ok {
		a = &Arg{Source: src}
		mak.Set(&m.args, name, a)
	}
	return a
}

// Add records one occurrence of name, with value if it is non-nil.
func (m *Matches) Add(name string, value *string, src Source) {
	a := m.arg(name, src)
	a.Occurrences++
	if value != nil {
		a.Values = append(a.Values, *value)
	}
}

// SetSubAction records the matched sub-action.
func (m *Matches) SetSubAction(name string, sub *Matches) {
	m.action, m.sub = name, sub
}

// Lookup returns the match state of name.
func (m *Matches) Lookup(name string) (*Arg, bool) {
	a, ok := m.args[name]
	return a, ok
}

// Names returns the names of the matched arguments, sorted.
func (m *Matches) Names() []string {
	return slices.Sorted(maps.Keys(m.args))
}

func (m *Matches) IsPresent(name string) bool {
	_, ok := m.args[name]
	return ok
}

// ValueOf returns the last value given for name.
func (m *Matches) ValueOf(name string) (string, bool) {
	a, ok := m.args[name]
	if !ok || len(a.Values) == 0 {
		return "", false
	}
	return a.Values[len(a.Values)-1], true
}

func (m *Matches) ValuesOf(name string) ([]string, bool) {
	a, ok := m.args[name]
	if !ok {
		return nil, false
	}
	return a.Values, true
}

func (m *Matches) Occurrences(name string) int {
	if a, ok := m.args[name]; ok {
		return a.Occurrences
	}
	return 0
}

func (m *Matches) SubAction() (string, contract.Matches, bool) {
	if m.sub == nil {
		return "", nil, false
	}
	return m.action, m.sub, true
}

// Sub returns the matched sub-action and its matches.
func (m *Matches) Sub() (string, *Matches) {
	return m.action, m.sub
}

// Snapshot is a serializable copy of a match result.
type Snapshot struct {
	Args   map[string]ArgSnapshot `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`
	Action string                 `yaml:"action,omitempty" toml:"action,omitempty" json:"action,omitempty"`
	Sub    *Snapshot              `yaml:"sub,omitempty" toml:"sub,omitempty" json:"sub,omitempty"`
}

// ArgSnapshot is the serializable form of Arg.
type ArgSnapshot struct {
	Values      []string `yaml:"values,omitempty" toml:"values,omitempty" json:"values,omitempty"`
	Occurrences int      `yaml:"occurrences" toml:"occurrences" json:"occurrences"`
	Source      string   `yaml:"source" toml:"source" json:"source"`
}

// Snapshot returns a serializable copy of m.
func (m *Matches) Snapshot() *Snapshot {
	s := &Snapshot{Action: m.action}
	for name, a := range m.args {
		mak.Set(&s.Args, name, ArgSnapshot{
			Values:      slices.Clone(a.Values),
			Occurrences: a.Occurrences,
			Source:      a.Source.String(),
		})
	}
	if m.sub != nil {
		s.Sub = m.sub.Snapshot()
	}
	return s
}
