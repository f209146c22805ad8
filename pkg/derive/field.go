// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derive

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/yeetrun/argschema/pkg/argenum"
	"github.com/yeetrun/argschema/pkg/casing"
	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/intern"
	"github.com/yeetrun/argschema/pkg/schema"
	"github.com/yeetrun/argschema/pkg/shape"
)

type fieldKind uint8

const (
	fieldLeaf fieldKind = iota
	fieldSkip
	fieldFlatten
	fieldSubcommand
)

// field is a compiled struct field.
type field struct {
	s     *schema.FieldSchema
	owner string // identifier of the owning struct
	kind  fieldKind

	// leaf
	shape    shape.Shape
	inner    reflect.Type
	strategy schema.ParseKind
	parse    parser // value-taking strategies
	short    rune
	enum     *argenum.Enum

	skip  func() (reflect.Value, error)
	label string // flatten
	args  *Args
	subs  *Subcommands
}

func (c *Compiler) compileField(s *schema.StructSchema, f *schema.FieldSchema, stack visiting) (*field, error) {
	fd := &field{s: f, owner: s.Ident}
	wrap := func(err error) error {
		return &DeclarationError{Schema: s.Ident, Field: f.Ident, Err: err}
	}
	var err error
	switch {
	case f.Subcommand:
		fd.kind = fieldSubcommand
		sh, _, err := shape.Resolve(f.Type)
		if err != nil {
			return nil, wrap(err)
		}
		if sh != shape.Scalar || f.Type.Kind() != reflect.Struct {
			return nil, wrap(fmt.Errorf("%w, got %v", ErrNotUnion, f.Type))
		}
		if fd.subs, err = c.subsFor(f.Type, stack); err != nil {
			return nil, err
		}
	case f.Skip.IsSet():
		fd.kind = fieldSkip
		if fd.skip, err = skipValue(f); err != nil {
			return nil, wrap(err)
		}
	case f.Flatten.IsSet():
		fd.kind = fieldFlatten
		if f.Type.Kind() != reflect.Struct {
			return nil, wrap(fmt.Errorf("%w, got %v", ErrNotStruct, f.Type))
		}
		if f.Flatten.Mode == schema.Explicit {
			fd.label = f.Flatten.Value
		}
		if fd.args, err = c.argsFor(f.Type, stack); err != nil {
			return nil, err
		}
	default:
		fd.kind = fieldLeaf
		if err := c.compileLeaf(fd); err != nil {
			return nil, wrap(err)
		}
	}
	return fd, nil
}

func (c *Compiler) compileLeaf(fd *field) error {
	f := fd.s
	sh, inner, err := shape.Resolve(f.Type)
	if err != nil {
		return err
	}
	kind := f.Parse.Kind
	if kind == schema.ParseDefault {
		kind = schema.ParseString
		if sh == shape.Bool {
			kind = schema.ParseFlag
		}
	}
	if sh == shape.Bool && kind != schema.ParseFlag {
		// A bool parsed from a value is an ordinary scalar.
		sh = shape.Scalar
	}
	fd.shape, fd.inner, fd.strategy = sh, inner, kind

	switch kind {
	case schema.ParseFlag, schema.ParseCount:
		if sh != shape.Scalar && sh != shape.Bool {
			return ErrFlagShape
		}
		if f.ArgEnum {
			return ErrArgEnumFlag
		}
		if !f.Short.IsSet() && !f.Long.IsSet() {
			return ErrFlagPositional
		}
		if kind == schema.ParseFlag && f.Parse.Flag == nil && inner.Kind() != reflect.Bool {
			return fmt.Errorf("flag field must be a bool or have a flag parser, got %v", f.Type)
		}
		if kind == schema.ParseCount && f.Parse.Count == nil && !isInteger(inner) {
			return fmt.Errorf("count field must be an integer or have a count parser, got %v", f.Type)
		}
	default:
		if f.ArgEnum {
			e, err := c.Enum(inner)
			if err != nil {
				return err
			}
			for _, v := range e.AllValues() {
				if _, err := assign(v.Tag, inner); err != nil {
					return fmt.Errorf("arg enum %s: %w", e.Ident(), err)
				}
			}
			fd.enum = e
			ignoreCase := f.IgnoreCase
			fd.parse = func(s string) (reflect.Value, error) {
				tag, err := e.Match(s, ignoreCase)
				if err != nil {
					return reflect.Value{}, err
				}
				return assign(tag, inner)
			}
		} else {
			p := f.Parse
			p.Kind = kind
			if fd.parse, err = newParser(p, inner); err != nil {
				return err
			}
		}
		if f.Default != nil {
			if _, err := fd.parse(*f.Default); err != nil {
				return fmt.Errorf("invalid default %q: %w", *f.Default, err)
			}
		}
	}

	switch f.Short.Mode {
	case schema.Explicit:
		r, _ := utf8.DecodeRuneInString(f.Short.Value)
		if r == utf8.RuneError {
			return ErrEmptyShort
		}
		fd.short = r
	case schema.Inherit:
		name := casing.Cast(f.ArgName(), f.Policies.Or(casing.DefaultPolicies).Name)
		r, _ := utf8.DecodeRuneInString(name)
		if r == utf8.RuneError {
			return ErrEmptyShort
		}
		fd.short = r
	}
	return nil
}

func isInteger(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// skipValue returns a constructor for a skipped field's value: the parsed
// explicit default, or the zero value.
func skipValue(f *schema.FieldSchema) (func() (reflect.Value, error), error) {
	if f.Skip.Mode != schema.Explicit {
		return func() (reflect.Value, error) { return reflect.Zero(f.Type), nil }, nil
	}
	sh, inner, err := shape.Resolve(f.Type)
	if err != nil {
		return nil, err
	}
	var p parser
	if sh == shape.Bool {
		p, err = textParser(inner)
	} else {
		sp := f.Parse
		if sp.Kind == schema.ParseDefault || sp.Kind == schema.ParseFlag || sp.Kind == schema.ParseCount {
			sp.Kind = schema.ParseString
		}
		p, err = newParser(sp, inner)
	}
	if err != nil {
		return nil, err
	}
	text := f.Skip.Value
	if _, err := p(text); err != nil {
		return nil, fmt.Errorf("invalid skip default %q: %w", text, err)
	}
	return func() (reflect.Value, error) {
		v, err := p(text)
		if err != nil {
			return reflect.Value{}, err
		}
		return wrapShape(sh, f.Type, v), nil
	}, nil
}

// wrapShape places a single inner value into a value of type t.
func wrapShape(sh shape.Shape, t reflect.Type, v reflect.Value) reflect.Value {
	switch sh {
	case shape.Optional:
		return ptrTo(t, v)
	case shape.OptionalOptional:
		return ptrTo(t, ptrTo(t.Elem(), v))
	case shape.Repeated:
		return reflect.Append(reflect.MakeSlice(t, 0, 1), v)
	case shape.OptionalRepeated:
		return ptrTo(t, reflect.Append(reflect.MakeSlice(t.Elem(), 0, 1), v))
	}
	return v
}

// ptrTo returns a new pointer of type t holding v.
func ptrTo(t reflect.Type, v reflect.Value) reflect.Value {
	p := reflect.New(t.Elem())
	p.Elem().Set(v)
	return p
}

// argNames are the composed names of a leaf field under one prefix.
type argNames struct {
	name, long, env, value string
}

func (fd *field) names(cache *intern.Cache, p casing.Prefix) argNames {
	f := fd.s
	pol := f.Policies.Or(casing.DefaultPolicies)
	leaf := f.ArgName()
	n := argNames{
		name: cache.Name(intern.RoleName, fd.owner, leaf, p, pol.Name),
	}
	switch f.Long.Mode {
	case schema.Inherit:
		n.long = cache.Name(intern.RoleLong, fd.owner, leaf, p, pol.Name)
	case schema.Explicit:
		n.long = cache.Name(intern.RoleLong, fd.owner, f.Long.Value, p, pol.Name)
	}
	switch f.Env.Mode {
	case schema.Inherit:
		n.env = cache.Name(intern.RoleEnv, fd.owner, leaf, p, pol.Env)
	case schema.Explicit:
		n.env = cache.Name(intern.RoleEnv, fd.owner, f.Env.Value, p, pol.Env)
	}
	n.value = cache.Name(intern.RoleValue, fd.owner, leaf, p, pol.Value)
	return n
}

// descriptor returns the argument descriptor of a leaf field.
func (fd *field) descriptor(cache *intern.Cache, p casing.Prefix, heading string, forUpdate bool) *contract.ArgumentDescriptor {
	f := fd.s
	n := fd.names(cache, p)
	d := &contract.ArgumentDescriptor{
		Name:       n.name,
		Short:      fd.short,
		Long:       n.long,
		Env:        n.env,
		ValueName:  n.value,
		Help:       f.Help,
		LongHelp:   f.LongHelp,
		Heading:    heading,
		Default:    f.Default,
		IgnoreCase: f.IgnoreCase,
	}
	switch fd.strategy {
	case schema.ParseFlag:
	case schema.ParseCount:
		d.Occurrences = true
	default:
		d.TakesValue = true
	}
	switch fd.shape {
	case shape.Scalar, shape.Bool:
		d.Cardinality = contract.Single
		d.Required = d.TakesValue && f.Default == nil
	case shape.Optional:
		d.Cardinality = contract.OptionalSingle
	case shape.OptionalOptional:
		d.Cardinality = contract.OptionalOptional
	case shape.Repeated:
		d.Cardinality = contract.Repeated
	case shape.OptionalRepeated:
		d.Cardinality = contract.OptionalRepeated
	}
	if forUpdate {
		d.Required = false
	}
	switch {
	case fd.enum != nil:
		d.PossibleValues = fd.enum.AllValues()
	case fd.parse != nil:
		parse := fd.parse
		d.Validate = func(s string) error {
			_, err := parse(s)
			return err
		}
	}
	return d
}

// parseValue parses s and reports failures against the argument name.
func (fd *field) parseValue(name, s string) (reflect.Value, error) {
	v, err := fd.parse(s)
	if err != nil {
		return reflect.Value{}, &ValueError{Arg: name, Value: s, Err: err}
	}
	return v, nil
}

// build extracts a leaf field's value from m.
func (fd *field) build(m contract.Matches, name string) (reflect.Value, error) {
	f := fd.s
	t := f.Type
	switch fd.strategy {
	case schema.ParseFlag:
		present := m.IsPresent(name)
		if f.Parse.Flag != nil {
			v, err := f.Parse.Flag(present)
			if err != nil {
				return reflect.Value{}, &ValueError{Arg: name, Value: strconv.FormatBool(present), Err: err}
			}
			return assign(v, t)
		}
		return reflect.ValueOf(present).Convert(t), nil
	case schema.ParseCount:
		n := m.Occurrences(name)
		if f.Parse.Count != nil {
			v, err := f.Parse.Count(n)
			if err != nil {
				return reflect.Value{}, &ValueError{Arg: name, Value: strconv.Itoa(n), Err: err}
			}
			return assign(v, t)
		}
		return reflect.ValueOf(n).Convert(t), nil
	}

	switch fd.shape {
	case shape.Optional:
		s, ok := m.ValueOf(name)
		if !ok {
			return reflect.Zero(t), nil
		}
		v, err := fd.parseValue(name, s)
		if err != nil {
			return reflect.Value{}, err
		}
		return ptrTo(t, v), nil

	case shape.OptionalOptional:
		if !m.IsPresent(name) {
			return reflect.Zero(t), nil
		}
		s, ok := m.ValueOf(name)
		if !ok {
			return ptrTo(t, reflect.Zero(t.Elem())), nil
		}
		v, err := fd.parseValue(name, s)
		if err != nil {
			return reflect.Value{}, err
		}
		return ptrTo(t, ptrTo(t.Elem(), v)), nil

	case shape.Repeated:
		vals, _ := m.ValuesOf(name)
		return fd.buildSlice(t, name, vals)

	case shape.OptionalRepeated:
		vals, ok := m.ValuesOf(name)
		if !ok {
			return reflect.Zero(t), nil
		}
		sv, err := fd.buildSlice(t.Elem(), name, vals)
		if err != nil {
			return reflect.Value{}, err
		}
		return ptrTo(t, sv), nil
	}

	s, ok := m.ValueOf(name)
	if !ok {
		if f.Default == nil {
			return reflect.Value{}, &MissingValueError{Arg: name}
		}
		s = *f.Default
	}
	return fd.parseValue(name, s)
}

func (fd *field) buildSlice(t reflect.Type, name string, vals []string) (reflect.Value, error) {
	out := reflect.MakeSlice(t, 0, len(vals))
	for _, s := range vals {
		v, err := fd.parseValue(name, s)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, v)
	}
	return out, nil
}
