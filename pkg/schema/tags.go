// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/yeetrun/argschema/pkg/casing"
)

// Args is embedded in argument structs and subcommand unions to carry
// struct-level tags:
//
//	type Opts struct {
//	    schema.Args `name:"demo" about:"Demo tool" rename_all:"kebab-case"`
//	    Verbose bool `short:"" long:"" help:"Verbose output"`
//	}
//
// Struct-level tags: name, version, author, about, long_about,
// help_heading, flatten (comma separated accepted labels), rename_all,
// rename_all_env and rename_all_value.
type Args struct{}

var argsType = reflect.TypeFor[Args]()

// TagError reports an invalid struct tag.
type TagError struct {
	Type  reflect.Type
	Field string
	Key   string
	Err   error
}

func (e *TagError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: tag %q: %v", e.Type, e.Key, e.Err)
	}
	return fmt.Sprintf("%v.%s: tag %q: %v", e.Type, e.Field, e.Key, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// Loader builds schema records from Go types and their struct tags.
//
// Field tags:
//
//	name:"x"         argument name instead of the field name
//	help:"..."       short help
//	long_help:"..."  long help
//	short:"" / short:"n"
//	long:"" / long:"x"
//	env:"" / env:"X"
//	default:"v"      default value in argument syntax
//	flatten:"" / flatten:"label"
//	subcommand:""    field is a subcommand union
//	skip:"" / skip:"v"
//	arg_enum:""      field type implements Enumerated
//	ignore_case:""   arg_enum matching ignores case
//	parse:"kind" / parse:"kind=registered"
//
// Parse kinds are identity, str (try_str), bytes (try_os_str), count
// (from_occurrences) and flag (from_flag).
//
// A Loader is safe for concurrent use once configured.
type Loader struct {
	// Policies fill any casing a struct leaves unset. DefaultPolicies is
	// used for whatever remains.
	Policies casing.Policies

	// Parsers are the functions parse tags may name.
	Parsers map[string]ParseStrategy
}

func lookupOverride(tag reflect.StructTag, key string) Override[string] {
	v, ok := tag.Lookup(key)
	switch {
	case !ok:
		return Override[string]{}
	case v == "":
		return Inherited[string]()
	default:
		return Value(v)
	}
}

func hasTag(tag reflect.StructTag, key string) bool {
	_, ok := tag.Lookup(key)
	return ok
}

func typeIdent(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func structType(t reflect.Type) (reflect.Type, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v is not a struct", t)
	}
	return t, nil
}

func readMeta(tag reflect.StructTag) Meta {
	return Meta{
		Name:        tag.Get("name"),
		Version:     tag.Get("version"),
		Author:      tag.Get("author"),
		About:       tag.Get("about"),
		LongAbout:   tag.Get("long_about"),
		HelpHeading: tag.Get("help_heading"),
	}
}

func (l *Loader) policies(t reflect.Type, tag reflect.StructTag) (casing.Policies, error) {
	var p casing.Policies
	for _, k := range []struct {
		key string
		dst *casing.Casing
	}{
		{"rename_all", &p.Name},
		{"rename_all_env", &p.Env},
		{"rename_all_value", &p.Value},
	} {
		v, ok := tag.Lookup(k.key)
		if !ok {
			continue
		}
		c, err := casing.Parse(v)
		if err != nil {
			return p, &TagError{Type: t, Key: k.key, Err: err}
		}
		*k.dst = c
	}
	return p.Or(l.Policies).Or(casing.DefaultPolicies), nil
}

// Struct loads the argument struct t (or *t).
func (l *Loader) Struct(t reflect.Type) (*StructSchema, error) {
	t, err := structType(t)
	if err != nil {
		return nil, err
	}
	s := &StructSchema{
		Ident: typeIdent(t),
		Type:  t,
	}
	var structTag reflect.StructTag
	for i := range t.NumField() {
		if sf := t.Field(i); sf.Anonymous && sf.Type == argsType {
			structTag = sf.Tag
			break
		}
	}
	s.Meta = readMeta(structTag)
	if s.Policies, err = l.policies(t, structTag); err != nil {
		return nil, err
	}
	if labels, ok := structTag.Lookup("flatten"); ok {
		for _, label := range strings.Split(labels, ",") {
			if label = strings.TrimSpace(label); label != "" {
				s.FlattenLabels = append(s.FlattenLabels, label)
			}
		}
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == argsType || !sf.IsExported() {
			continue
		}
		f, err := l.field(t, sf)
		if err != nil {
			return nil, err
		}
		f.Policies = s.Policies
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func (l *Loader) field(t reflect.Type, sf reflect.StructField) (*FieldSchema, error) {
	tag := sf.Tag
	f := &FieldSchema{
		Ident:      sf.Name,
		Index:      sf.Index,
		Type:       sf.Type,
		Name:       tag.Get("name"),
		Help:       tag.Get("help"),
		LongHelp:   tag.Get("long_help"),
		Short:      lookupOverride(tag, "short"),
		Long:       lookupOverride(tag, "long"),
		Env:        lookupOverride(tag, "env"),
		Flatten:    lookupOverride(tag, "flatten"),
		Subcommand: hasTag(tag, "subcommand"),
		Skip:       lookupOverride(tag, "skip"),
		ArgEnum:    hasTag(tag, "arg_enum"),
		IgnoreCase: hasTag(tag, "ignore_case"),
	}
	if f.Short.Mode == Explicit && utf8.RuneCountInString(f.Short.Value) != 1 {
		return nil, &TagError{Type: t, Field: sf.Name, Key: "short", Err: fmt.Errorf("want a single character, got %q", f.Short.Value)}
	}
	if v, ok := tag.Lookup("default"); ok {
		f.Default = &v
	}
	if v, ok := tag.Lookup("parse"); ok {
		p, err := l.parseStrategy(v)
		if err != nil {
			return nil, &TagError{Type: t, Field: sf.Name, Key: "parse", Err: err}
		}
		f.Parse = p
	}
	return f, nil
}

func (l *Loader) parseStrategy(v string) (ParseStrategy, error) {
	kindName, fn, _ := strings.Cut(v, "=")
	var p ParseStrategy
	switch strings.TrimSpace(kindName) {
	case "identity", "from_str":
		p.Kind = ParseIdentity
	case "str", "try_str", "try_from_str":
		p.Kind = ParseString
	case "bytes", "try_os_str", "try_from_os_str":
		p.Kind = ParseBytes
	case "count", "from_occurrences":
		p.Kind = ParseCount
	case "flag", "from_flag":
		p.Kind = ParseFlag
	default:
		return p, fmt.Errorf("unknown parse kind %q", kindName)
	}
	if fn = strings.TrimSpace(fn); fn == "" {
		return p, nil
	}
	reg, ok := l.Parsers[fn]
	if !ok {
		return p, fmt.Errorf("no parser registered as %q", fn)
	}
	reg.Kind = p.Kind
	reg.Name = fn
	return reg, nil
}

// Union loads the subcommand union t (or *t). Each exported field is a
// variant:
//
//	type Command struct {
//	    schema.Args `rename_all:"kebab-case"`
//	    First    *FirstArgs                        // newtype
//	    Second   *struct{ Embedded *string }     `name:"2nd"`
//	    SkipMe   *struct{}                         `skip:""`
//	    External []string                          `external:""`
//	}
//
// Variant tags: name, skip, external, about, long_about, version, author
// and help_heading.
func (l *Loader) Union(t reflect.Type) (*UnionSchema, error) {
	t, err := structType(t)
	if err != nil {
		return nil, err
	}
	u := &UnionSchema{
		Ident: typeIdent(t),
		Type:  t,
	}
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == argsType {
			u.Meta = readMeta(sf.Tag)
			if v, ok := sf.Tag.Lookup("rename_all"); ok {
				c, err := casing.Parse(v)
				if err != nil {
					return nil, &TagError{Type: t, Key: "rename_all", Err: err}
				}
				u.Casing = c
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		v, err := l.variant(t, sf)
		if err != nil {
			return nil, err
		}
		u.Variants = append(u.Variants, v)
	}
	return u, nil
}

var stringsType = reflect.TypeFor[[]string]()

func (l *Loader) variant(t reflect.Type, sf reflect.StructField) (*VariantSchema, error) {
	v := &VariantSchema{
		Ident: sf.Name,
		Index: sf.Index[0],
		Type:  sf.Type,
		Name:  sf.Tag.Get("name"),
		Meta:  readMeta(sf.Tag),
		Skip:  hasTag(sf.Tag, "skip"),
	}
	// The name tag is the display name, not command metadata.
	v.Meta.Name = ""

	if hasTag(sf.Tag, "external") {
		if sf.Type != stringsType {
			return nil, &TagError{Type: t, Field: sf.Name, Key: "external", Err: fmt.Errorf("external variant must be []string, got %v", sf.Type)}
		}
		v.Kind = VariantExternal
		return v, nil
	}
	if sf.Type.Kind() != reflect.Pointer || sf.Type.Elem().Kind() != reflect.Struct {
		return nil, &TagError{Type: t, Field: sf.Name, Err: fmt.Errorf("variant must be a pointer to a struct, got %v", sf.Type)}
	}
	elem := sf.Type.Elem()
	switch {
	case elem.Name() != "":
		v.Kind = VariantNewtype
	case elem.NumField() == 0:
		v.Kind = VariantEmpty
		return v, nil
	default:
		v.Kind = VariantFields
	}
	payload, err := l.Struct(elem)
	if err != nil {
		return nil, err
	}
	if v.Kind == VariantFields {
		payload.Ident = sf.Name
	}
	v.Payload = payload
	return v, nil
}

// Enum loads the value enumeration t, which must implement Enumerated
// through its value or pointer receiver.
func (l *Loader) Enum(t reflect.Type) (*EnumSchema, error) {
	var e Enumerated
	if v, ok := reflect.Zero(t).Interface().(Enumerated); ok {
		e = v
	} else if v, ok := reflect.New(t).Interface().(Enumerated); ok {
		e = v
	} else {
		return nil, fmt.Errorf("%v does not implement schema.Enumerated", t)
	}
	s := &EnumSchema{
		Ident:    typeIdent(t),
		Type:     t,
		Variants: e.EnumVariants(),
	}
	if c, ok := e.(EnumCaser); ok {
		s.Casing = c.EnumCasing()
	}
	return s, nil
}
