// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema holds the typed description of argument structs, subcommand
// unions and value enumerations. Records are built once, usually by a
// Loader from struct tags, and are read-only afterwards.
package schema

import (
	"reflect"

	"github.com/yeetrun/argschema/pkg/casing"
)

// Mode says whether an optional attribute was given, and how.
type Mode uint8

const (
	Absent   Mode = iota // attribute not given
	Inherit              // given without a value; derive it
	Explicit             // given with a value
)

// Override is an attribute that can be absent, requested with a derived
// value, or requested with an explicit value.
type Override[T any] struct {
	Mode  Mode
	Value T
}

// IsSet reports whether the attribute was given at all.
func (o Override[T]) IsSet() bool { return o.Mode != Absent }

// Inherited returns an Override in Inherit mode.
func Inherited[T any]() Override[T] { return Override[T]{Mode: Inherit} }

// Value returns an Override in Explicit mode holding v.
func Value[T any](v T) Override[T] { return Override[T]{Mode: Explicit, Value: v} }

// Meta is command metadata forwarded to the engine unchanged.
type Meta struct {
	Name        string `yaml:"name,omitempty" toml:"name,omitempty"`
	Version     string `yaml:"version,omitempty" toml:"version,omitempty"`
	Author      string `yaml:"author,omitempty" toml:"author,omitempty"`
	About       string `yaml:"about,omitempty" toml:"about,omitempty"`
	LongAbout   string `yaml:"long_about,omitempty" toml:"long_about,omitempty"`
	HelpHeading string `yaml:"help_heading,omitempty" toml:"help_heading,omitempty"`
}

// IsZero reports whether m carries no metadata.
func (m Meta) IsZero() bool { return m == Meta{} }

// ParseKind selects how argument text becomes a field value.
type ParseKind uint8

const (
	// ParseDefault picks ParseFlag for bool fields and ParseString otherwise.
	ParseDefault ParseKind = iota
	// ParseIdentity converts the text to the field type without failing.
	ParseIdentity
	// ParseString parses the text and may fail.
	ParseString
	// ParseBytes parses the raw bytes and may fail. It needs an explicit
	// function.
	ParseBytes
	// ParseCount stores the number of occurrences.
	ParseCount
	// ParseFlag stores whether the argument was given.
	ParseFlag
)

var parseKindNames = [...]string{
	ParseDefault:  "default",
	ParseIdentity: "identity",
	ParseString:   "str",
	ParseBytes:    "bytes",
	ParseCount:    "count",
	ParseFlag:     "flag",
}

func (k ParseKind) String() string {
	if int(k) < len(parseKindNames) {
		return parseKindNames[k]
	}
	return "unknown"
}

// ParseStrategy is a ParseKind plus an optional explicit function. A nil
// function means the conversion is derived from the field type.
type ParseStrategy struct {
	Kind  ParseKind
	Name  string                          // registered function name, for messages
	Func  func(string) (any, error)       // ParseIdentity, ParseString
	Bytes func([]byte) (any, error)       // ParseBytes
	Count func(n int) (any, error)        // ParseCount
	Flag  func(present bool) (any, error) // ParseFlag
}

// Explicit reports whether a conversion function was supplied.
func (p ParseStrategy) Explicit() bool {
	return p.Func != nil || p.Bytes != nil || p.Count != nil || p.Flag != nil
}

// FieldSchema describes one struct field.
type FieldSchema struct {
	Ident string       // Go field name
	Index []int        // reflect index path into the owning struct
	Type  reflect.Type // declared field type

	Name     string // overrides Ident as the argument name
	Help     string
	LongHelp string

	Short Override[string]
	Long  Override[string]
	Env   Override[string]

	Flatten    Override[string] // explicit value is the prefix label
	Subcommand bool
	Skip       Override[string] // explicit value is the default, in argument syntax
	ArgEnum    bool
	IgnoreCase bool
	Default    *string
	Parse      ParseStrategy

	// Policies are copied from the owning struct.
	Policies casing.Policies
}

// ArgName is the leaf name used to compose argument names.
func (f *FieldSchema) ArgName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Ident
}

// StructSchema describes an argument struct.
type StructSchema struct {
	Ident    string
	Type     reflect.Type
	Fields   []*FieldSchema
	Meta     Meta
	Policies casing.Policies

	// FlattenLabels, if set, are the only prefix labels this struct may be
	// flattened under.
	FlattenLabels []string
}

// VariantKind is the payload kind of a subcommand variant.
type VariantKind uint8

const (
	VariantEmpty    VariantKind = iota // *struct{}
	VariantNewtype                     // *NamedStruct
	VariantFields                      // *struct{ ... }
	VariantExternal                    // []string catch-all
)

func (k VariantKind) String() string {
	switch k {
	case VariantEmpty:
		return "empty"
	case VariantNewtype:
		return "newtype"
	case VariantFields:
		return "fields"
	case VariantExternal:
		return "external"
	}
	return "unknown"
}

// VariantSchema describes one subcommand variant. Variants are fields of
// the union struct; exactly one is set after a successful build.
type VariantSchema struct {
	Ident   string
	Index   int // field index in the union struct
	Type    reflect.Type
	Kind    VariantKind
	Name    string // display name override
	Meta    Meta
	Skip    bool
	Payload *StructSchema // VariantNewtype and VariantFields
}

// UnionSchema describes a subcommand union.
type UnionSchema struct {
	Ident    string
	Type     reflect.Type
	Variants []*VariantSchema
	Meta     Meta
	Casing   casing.Casing // display-name casing, Kebab when Default
}

// EnumVariant is one member of a value enumeration.
type EnumVariant struct {
	Ident  string
	Name   string // display string override
	Help   string
	Hidden bool
	Value  any      // the Go value this variant stands for
	Fields []string // payload field names; must be empty
}

// Enumerated is implemented by types usable as arg-enum fields.
type Enumerated interface {
	EnumVariants() []EnumVariant
}

// EnumCaser optionally overrides the display casing of an Enumerated type.
type EnumCaser interface {
	EnumCasing() casing.Casing
}

// EnumSchema describes a value enumeration.
type EnumSchema struct {
	Ident    string
	Type     reflect.Type
	Variants []EnumVariant
	Casing   casing.Casing // Lower when Default
}
