// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package derive compiles schema records into argument contracts and the
// routines that build and update Go values from match results.
//
// A Compiler turns a *schema.StructSchema into *Args and a
// *schema.UnionSchema into *Subcommands. Both expose the same four
// operations:
//
//	Augment(c, prefix)            register arguments with an engine contract
//	AugmentForUpdate(c, prefix)   same, with nothing required
//	Build(m, prefix)              construct a new value from a match result
//	Update(dst, m, prefix)        overwrite dst with what m mentions
//
// Compiled values are immutable and safe for concurrent use.
package derive

import (
	"reflect"
	"slices"

	"github.com/yeetrun/argschema/pkg/argenum"
	"github.com/yeetrun/argschema/pkg/intern"
	"github.com/yeetrun/argschema/pkg/schema"
	"tailscale.com/syncs"
	"tailscale.com/types/logger"
)

// Compiler compiles schemas and memoizes the results per Go type.
type Compiler struct {
	// Cache interns composed names. If nil, intern.Shared is used.
	Cache *intern.Cache
	// Loader reads schemas from struct tags. If nil, a zero Loader is used.
	Loader *schema.Loader
	// Logf, if set, receives one line per compiled schema.
	Logf logger.Logf

	args  syncs.Map[reflect.Type, *Args]
	subs  syncs.Map[reflect.Type, *Subcommands]
	enums syncs.Map[reflect.Type, *argenum.Enum]
}

// NewCompiler returns a Compiler with its own name cache.
func NewCompiler(l *schema.Loader) *Compiler {
	return &Compiler{
		Cache:  intern.New(),
		Loader: l,
	}
}

func (c *Compiler) cache() *intern.Cache {
	if c.Cache == nil {
		return intern.Shared()
	}
	return c.Cache
}

func (c *Compiler) loader() *schema.Loader {
	if c.Loader == nil {
		return new(schema.Loader)
	}
	return c.Loader
}

func (c *Compiler) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

// visiting is the chain of types being compiled, outermost first.
type visiting []reflect.Type

func (v visiting) enter(t reflect.Type, ident string) (visiting, error) {
	if slices.Contains(v, t) {
		return nil, &DeclarationError{Schema: ident, Err: ErrRecursive}
	}
	return append(slices.Clip(v), t), nil
}

// Args returns the compiled argument struct for t, loading its schema
// from struct tags.
func (c *Compiler) Args(t reflect.Type) (*Args, error) {
	return c.argsFor(t, nil)
}

// Subcommands returns the compiled subcommand union for t, loading its
// schema from struct tags.
func (c *Compiler) Subcommands(t reflect.Type) (*Subcommands, error) {
	return c.subsFor(t, nil)
}

// Enum returns the compiled value enumeration for t.
func (c *Compiler) Enum(t reflect.Type) (*argenum.Enum, error) {
	if e, ok := c.enums.Load(t); ok {
		return e, nil
	}
	s, err := c.loader().Enum(t)
	if err != nil {
		return nil, err
	}
	e, err := argenum.Compile(s, c.cache())
	if err != nil {
		return nil, err
	}
	e, _ = c.enums.LoadOrStore(t, e)
	return e, nil
}

// CompileStruct compiles s without consulting the per-type memo.
func (c *Compiler) CompileStruct(s *schema.StructSchema) (*Args, error) {
	return c.compileStruct(s, nil)
}

// CompileUnion compiles u without consulting the per-type memo.
func (c *Compiler) CompileUnion(u *schema.UnionSchema) (*Subcommands, error) {
	return c.compileUnion(u, nil)
}

func (c *Compiler) argsFor(t reflect.Type, stack visiting) (*Args, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if a, ok := c.args.Load(t); ok {
		return a, nil
	}
	s, err := c.loader().Struct(t)
	if err != nil {
		return nil, &DeclarationError{Schema: t.String(), Err: err}
	}
	return c.structArgs(s, stack)
}

// structArgs compiles s and memoizes it under its type.
func (c *Compiler) structArgs(s *schema.StructSchema, stack visiting) (*Args, error) {
	if a, ok := c.args.Load(s.Type); ok {
		return a, nil
	}
	a, err := c.compileStruct(s, stack)
	if err != nil {
		return nil, err
	}
	a, _ = c.args.LoadOrStore(s.Type, a)
	return a, nil
}

func (c *Compiler) subsFor(t reflect.Type, stack visiting) (*Subcommands, error) {
	if sc, ok := c.subs.Load(t); ok {
		return sc, nil
	}
	u, err := c.loader().Union(t)
	if err != nil {
		return nil, &DeclarationError{Schema: t.String(), Err: err}
	}
	sc, err := c.compileUnion(u, stack)
	if err != nil {
		return nil, err
	}
	sc, _ = c.subs.LoadOrStore(t, sc)
	return sc, nil
}

func (c *Compiler) compileStruct(s *schema.StructSchema, stack visiting) (*Args, error) {
	stack, err := stack.enter(s.Type, s.Ident)
	if err != nil {
		return nil, err
	}
	a := &Args{
		cache:  c.cache(),
		schema: s,
	}
	for _, f := range s.Fields {
		fd, err := c.compileField(s, f, stack)
		if err != nil {
			return nil, err
		}
		a.fields = append(a.fields, fd)
	}
	c.logf("derive: compiled %s (%d fields)", s.Ident, len(a.fields))
	return a, nil
}

func (c *Compiler) compileUnion(u *schema.UnionSchema, stack visiting) (*Subcommands, error) {
	stack, err := stack.enter(u.Type, u.Ident)
	if err != nil {
		return nil, err
	}
	sc, err := newSubcommands(c, u, stack)
	if err != nil {
		return nil, err
	}
	c.logf("derive: compiled %s (%d variants)", u.Ident, len(sc.variants))
	return sc, nil
}
