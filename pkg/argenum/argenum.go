// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package argenum compiles value enumerations into a reversible mapping
// between Go values and their display strings.
package argenum

import (
	"fmt"
	"strings"

	"github.com/yeetrun/argschema/pkg/casing"
	"github.com/yeetrun/argschema/pkg/intern"
	"github.com/yeetrun/argschema/pkg/schema"
)

// DefaultCasing is the display casing of enums that do not pick one.
const DefaultCasing = casing.Lower

// Value is one matchable enum member.
type Value struct {
	Tag  any    `yaml:"-" toml:"-"`
	Name string `yaml:"name" toml:"name"`
	Help string `yaml:"help,omitempty" toml:"help,omitempty"`
}

// Enum is a compiled enumeration.
type Enum struct {
	ident  string
	values []Value // visible members, in declaration order
}

// PayloadError is returned for enum variants that carry fields.
type PayloadError struct {
	Enum    string
	Variant string
	Fields  []string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("arg enum %s: variant %s has fields %s; only unit variants are supported",
		e.Enum, e.Variant, strings.Join(e.Fields, ", "))
}

// InvalidValueError is returned by Match when no member matches.
type InvalidValueError struct {
	Input string
	Valid []string
}

func (e *InvalidValueError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("invalid value %q", e.Input)
	}
	return fmt.Sprintf("invalid value %q (possible values: %s)", e.Input, strings.Join(e.Valid, ", "))
}

// Compile compiles s. Display strings are interned in cache.
func Compile(s *schema.EnumSchema, cache *intern.Cache) (*Enum, error) {
	c := s.Casing.Or(DefaultCasing)
	e := &Enum{ident: s.Ident}
	for _, v := range s.Variants {
		if len(v.Fields) > 0 {
			return nil, &PayloadError{Enum: s.Ident, Variant: v.Ident, Fields: v.Fields}
		}
		if v.Hidden {
			continue
		}
		name := v.Name
		if name == "" {
			name = cache.Name(intern.RoleEnum, s.Ident, v.Ident, nil, c)
		}
		e.values = append(e.values, Value{Tag: v.Value, Name: name, Help: v.Help})
	}
	return e, nil
}

// Ident returns the enum's identifier.
func (e *Enum) Ident() string { return e.ident }

// AllValues returns the visible members in declaration order.
func (e *Enum) AllValues() []Value {
	out := make([]Value, len(e.values))
	copy(out, e.values)
	return out
}

// Names returns the display strings of AllValues.
func (e *Enum) Names() []string {
	out := make([]string, len(e.values))
	for i, v := range e.values {
		out[i] = v.Name
	}
	return out
}

// Match returns the tag of the first member whose display string equals
// input.
func (e *Enum) Match(input string, ignoreCase bool) (any, error) {
	for _, v := range e.values {
		if v.Name == input || ignoreCase && strings.EqualFold(v.Name, input) {
			return v.Tag, nil
		}
	}
	return nil, &InvalidValueError{Input: input, Valid: e.Names()}
}
