// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package casing converts identifiers between naming conventions and
// composes prefixed argument names for flattened schemas.
package casing

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casing is a naming convention.
type Casing int

const (
	// Default defers to the convention of the role the name is used for.
	Default Casing = iota
	Camel
	Kebab
	Pascal
	ScreamingSnake
	Snake
	// Lower and Upper join words without a separator ("variant0").
	Lower
	Upper
	Verbatim
)

var casingNames = [...]string{
	Default:        "default",
	Camel:          "camelCase",
	Kebab:          "kebab-case",
	Pascal:         "PascalCase",
	ScreamingSnake: "SCREAMING_SNAKE_CASE",
	Snake:          "snake_case",
	Lower:          "lower",
	Upper:          "UPPER",
	Verbatim:       "verbatim",
}

func (c Casing) String() string {
	if c < 0 || int(c) >= len(casingNames) {
		return fmt.Sprintf("Casing(%d)", int(c))
	}
	return casingNames[c]
}

// Parse returns the Casing named by s. Both the canonical spellings
// ("kebab-case") and the short ones ("kebab") are accepted.
func Parse(s string) (Casing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return Default, nil
	case "camelcase", "camel":
		return Camel, nil
	case "kebab-case", "kebab":
		return Kebab, nil
	case "pascalcase", "pascal":
		return Pascal, nil
	case "screaming_snake_case", "screaming-snake", "screaming_snake", "screamingsnake":
		return ScreamingSnake, nil
	case "snake_case", "snake":
		return Snake, nil
	case "lower", "lowercase":
		return Lower, nil
	case "upper", "uppercase":
		return Upper, nil
	case "verbatim", "identity":
		return Verbatim, nil
	}
	return Default, fmt.Errorf("unknown casing %q", s)
}

func (c Casing) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Casing) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Or returns c, or def if c is Default.
func (c Casing) Or(def Casing) Casing {
	if c == Default {
		return def
	}
	return c
}

// Policies holds the casings applied to the names of one argument.
type Policies struct {
	Name  Casing `toml:"name" yaml:"name"`   // canonical, long and positional names
	Env   Casing `toml:"env" yaml:"env"`     // environment variable names
	Value Casing `toml:"value" yaml:"value"` // value placeholders
}

// DefaultPolicies are used for any policy left at Default.
var DefaultPolicies = Policies{
	Name:  Kebab,
	Env:   ScreamingSnake,
	Value: ScreamingSnake,
}

// Or fills each Default policy in p from def.
func (p Policies) Or(def Policies) Policies {
	return Policies{
		Name:  p.Name.Or(def.Name),
		Env:   p.Env.Or(def.Env),
		Value: p.Value.Or(def.Value),
	}
}

// Cast converts s to casing c. Default behaves like Verbatim.
func Cast(s string, c Casing) string {
	switch c {
	case Default, Verbatim:
		return s
	}
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	// Casers carry state and are not safe for concurrent use.
	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)
	title := cases.Title(language.Und)
	out := make([]string, len(words))
	for i, w := range words {
		switch c {
		case Camel:
			if i == 0 {
				out[i] = lower.String(w)
			} else {
				out[i] = title.String(w)
			}
		case Pascal:
			out[i] = title.String(w)
		case Kebab, Snake, Lower:
			out[i] = lower.String(w)
		case ScreamingSnake, Upper:
			out[i] = upper.String(w)
		}
	}
	switch c {
	case Kebab:
		return strings.Join(out, "-")
	case Snake, ScreamingSnake:
		return strings.Join(out, "_")
	}
	return strings.Join(out, "")
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

// Words splits s into words. Words end at separators (_ - . and
// whitespace), at a lower-to-upper transition, before the last upper case
// letter of an acronym ("HTTPPort" is HTTP, Port) and between letters and
// digits.
func Words(s string) []string {
	rs := []rune(s)
	var words []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(rs[start:end]))
		}
		start = -1
	}
	for i, r := range rs {
		if isSeparator(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := rs[i-1]
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(r):
			flush(i)
			start = i
		case unicode.IsUpper(prev) && unicode.IsUpper(r) &&
			i+1 < len(rs) && unicode.IsLower(rs[i+1]):
			flush(i)
			start = i
		case unicode.IsDigit(prev) != unicode.IsDigit(r):
			flush(i)
			start = i
		}
	}
	flush(len(rs))
	return words
}
