// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derive

import (
	"fmt"
	"reflect"

	"github.com/yeetrun/argschema/pkg/casing"
	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/intern"
	"github.com/yeetrun/argschema/pkg/schema"
	"tailscale.com/util/set"
)

// Subcommands is a compiled subcommand union. The union is a struct whose
// fields are the variants; a built value has exactly one variant set.
type Subcommands struct {
	schema   *schema.UnionSchema
	variants []*variant // in declaration order, skipped ones included
	external *variant
}

type variant struct {
	s    *schema.VariantSchema
	name string // display name
	args *Args  // VariantNewtype and VariantFields
}

// named reports whether v is dispatched by its display name.
func (v *variant) named() bool {
	return !v.s.Skip && v.s.Kind != schema.VariantExternal
}

func newSubcommands(c *Compiler, u *schema.UnionSchema, stack visiting) (*Subcommands, error) {
	sc := &Subcommands{schema: u}
	cs := u.Casing.Or(casing.Kebab)
	seen := make(set.Set[string])
	for _, vs := range u.Variants {
		wrap := func(err error) error {
			return &DeclarationError{Schema: u.Ident, Field: vs.Ident, Err: err}
		}
		v := &variant{s: vs, name: vs.Name}
		if v.name == "" {
			v.name = c.cache().Name(intern.RoleVariant, u.Ident, vs.Ident, nil, cs)
		}
		sc.variants = append(sc.variants, v)
		if vs.Skip {
			continue
		}
		switch vs.Kind {
		case schema.VariantExternal:
			if sc.external != nil {
				return nil, wrap(fmt.Errorf("%w: %s and %s", ErrMultipleExternal, sc.external.s.Ident, vs.Ident))
			}
			sc.external = v
			continue
		case schema.VariantNewtype:
			a, err := c.structArgs(vs.Payload, stack)
			if err != nil {
				return nil, err
			}
			v.args = a
		case schema.VariantFields:
			a, err := c.compileStruct(vs.Payload, stack)
			if err != nil {
				return nil, err
			}
			v.args = a
		}
		if seen.Contains(v.name) {
			return nil, wrap(fmt.Errorf("%w %q", ErrDuplicateVariant, v.name))
		}
		seen.Add(v.name)
	}
	return sc, nil
}

// Schema returns the schema sc was compiled from.
func (sc *Subcommands) Schema() *schema.UnionSchema { return sc.schema }

// Names returns the display names of the dispatchable variants.
func (sc *Subcommands) Names() []string {
	var out []string
	for _, v := range sc.variants {
		if v.named() {
			out = append(out, v.name)
		}
	}
	return out
}

// HasAction reports whether name selects a variant by name. Skipped and
// external variants never do.
func (sc *Subcommands) HasAction(name string) bool {
	return sc.lookup(name) != nil
}

func (sc *Subcommands) lookup(name string) *variant {
	for _, v := range sc.variants {
		if v.named() && v.name == name {
			return v
		}
	}
	return nil
}

// skipped reports whether name is the display name of a skipped variant.
// Such names are reserved: they reach neither their variant nor the
// external one.
func (sc *Subcommands) skipped(name string) bool {
	for _, v := range sc.variants {
		if v.s.Skip && v.name == name {
			return true
		}
	}
	return false
}

// Augment registers one sub-action per visible variant with c. Variant
// payloads always start at the root prefix; p is accepted for symmetry
// with Args.
func (sc *Subcommands) Augment(c contract.Contract, p casing.Prefix) error {
	return sc.augment(c, p, false)
}

// AugmentForUpdate is like Augment but registers payload arguments as not
// required.
func (sc *Subcommands) AugmentForUpdate(c contract.Contract, p casing.Prefix) error {
	return sc.augment(c, p, true)
}

func (sc *Subcommands) augment(c contract.Contract, _ casing.Prefix, forUpdate bool) error {
	for _, v := range sc.variants {
		if v.s.Skip {
			continue
		}
		spec := contract.ActionSpec{Name: v.name, Meta: v.s.Meta}
		build := func(contract.Contract) error { return nil }
		switch v.s.Kind {
		case schema.VariantNewtype, schema.VariantFields:
			a := v.args
			build = func(sub contract.Contract) error {
				return a.augment(sub, nil, forUpdate, true)
			}
		case schema.VariantExternal:
			spec.External = true
			c.AllowExternalSubActions()
		}
		if err := c.WithSubAction(spec, build); err != nil {
			return err
		}
	}
	return nil
}

// Build returns a new union value with the variant selected by m's
// sub-action set.
func (sc *Subcommands) Build(m contract.Matches, _ casing.Prefix) (reflect.Value, error) {
	name, sub, ok := m.SubAction()
	if !ok {
		return reflect.Value{}, ErrMissingSubcommand
	}
	v := reflect.New(sc.schema.Type).Elem()
	if err := sc.set(v, name, sub); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (sc *Subcommands) set(dst reflect.Value, name string, sub contract.Matches) error {
	if v := sc.lookup(name); v != nil {
		fv := dst.Field(v.s.Index)
		switch v.s.Kind {
		case schema.VariantEmpty:
			fv.Set(reflect.New(v.s.Type.Elem()))
		case schema.VariantNewtype, schema.VariantFields:
			pv, err := v.args.Build(sub, nil)
			if err != nil {
				return err
			}
			fv.Set(ptrTo(v.s.Type, pv))
		}
		return nil
	}
	if sc.external == nil || sc.skipped(name) {
		return &UnrecognizedSubcommandError{Name: name}
	}
	var rest []string
	if sub != nil {
		rest, _ = sub.ValuesOf(contract.ExternalArgs)
	}
	args := make([]string, 0, 1+len(rest))
	args = append(args, name)
	args = append(args, rest...)
	dst.Field(sc.external.s.Index).Set(reflect.ValueOf(args))
	return nil
}

// current returns the variant set in v, or nil.
func (sc *Subcommands) current(v reflect.Value) *variant {
	for _, vr := range sc.variants {
		if !v.Field(vr.s.Index).IsNil() {
			return vr
		}
	}
	return nil
}

// Current returns the display name of the variant set in v, which must be
// a value (or pointer to a value) of the union type. External variants
// report the captured action name.
func (sc *Subcommands) Current(v reflect.Value) (string, bool) {
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	vr := sc.current(v)
	if vr == nil {
		return "", false
	}
	if vr.s.Kind == schema.VariantExternal {
		args := v.Field(vr.s.Index)
		if args.Len() == 0 {
			return "", false
		}
		return args.Index(0).String(), true
	}
	return vr.name, true
}

// Update applies m to dst. If m selects the variant dst already holds,
// its payload is updated in place; otherwise dst is replaced by a newly
// built value. Without a sub-action Update does nothing.
func (sc *Subcommands) Update(dst reflect.Value, m contract.Matches, _ casing.Prefix) error {
	if dst.Kind() == reflect.Pointer {
		dst = dst.Elem()
	}
	if dst.Type() != sc.schema.Type || !dst.CanSet() {
		return fmt.Errorf("derive: Update of %s needs an addressable %v, got %v", sc.schema.Ident, sc.schema.Type, dst.Type())
	}
	name, sub, ok := m.SubAction()
	if !ok {
		return nil
	}
	if cur := sc.current(dst); cur != nil && cur.named() && cur.name == name {
		if cur.args == nil {
			return nil
		}
		return cur.args.Update(dst.Field(cur.s.Index), sub, nil)
	}
	fresh := reflect.New(sc.schema.Type).Elem()
	if err := sc.set(fresh, name, sub); err != nil {
		return err
	}
	dst.Set(fresh)
	return nil
}
