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
)

// Args is a compiled argument struct.
type Args struct {
	cache  *intern.Cache
	schema *schema.StructSchema
	fields []*field
}

// Schema returns the schema a was compiled from.
func (a *Args) Schema() *schema.StructSchema { return a.schema }

// Type returns the Go struct type a builds.
func (a *Args) Type() reflect.Type { return a.schema.Type }

// Augment registers a's arguments with c under prefix p.
func (a *Args) Augment(c contract.Contract, p casing.Prefix) error {
	return a.augment(c, p, false, true)
}

// AugmentForUpdate is like Augment but marks no argument or sub-action
// as required, for matching arguments that update an existing value.
func (a *Args) AugmentForUpdate(c contract.Contract, p casing.Prefix) error {
	return a.augment(c, p, true, true)
}

func (a *Args) declErr(field string, err error) error {
	return &DeclarationError{Schema: a.schema.Ident, Field: field, Err: err}
}

func (a *Args) augment(c contract.Contract, p casing.Prefix, forUpdate, top bool) error {
	if err := casing.Select(p, a.schema.Ident, a.schema.FlattenLabels); err != nil {
		return a.declErr("", err)
	}
	if top && !a.schema.Meta.IsZero() {
		c.WithMeta(a.schema.Meta)
	}
	if h := a.schema.Meta.HelpHeading; h != "" {
		c.WithHeading(h)
	}
	for _, fd := range a.fields {
		switch fd.kind {
		case fieldSkip:
		case fieldLeaf:
			c.WithArgument(fd.descriptor(a.cache, p, c.Heading(), forUpdate))
		case fieldFlatten:
			sub, err := casing.Attach(p, fd.label, fd.args.schema.Ident, fd.args.schema.FlattenLabels)
			if err != nil {
				return a.declErr(fd.s.Ident, err)
			}
			heading := c.Heading()
			err = fd.args.augment(c, sub, forUpdate, false)
			c.WithHeading(heading)
			if err != nil {
				return err
			}
		case fieldSubcommand:
			if err := fd.subs.augment(c, p, forUpdate); err != nil {
				return err
			}
			if !forUpdate {
				c.RequireSubAction()
			}
		}
	}
	return nil
}

// Build returns a new value of a's struct type populated from m.
func (a *Args) Build(m contract.Matches, p casing.Prefix) (reflect.Value, error) {
	v := reflect.New(a.schema.Type).Elem()
	if err := a.fill(v, m, p, false); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// Update overwrites the fields of dst that m mentions. dst must be a
// pointer to, or an addressable value of, a's struct type.
func (a *Args) Update(dst reflect.Value, m contract.Matches, p casing.Prefix) error {
	if dst.Kind() == reflect.Pointer {
		dst = dst.Elem()
	}
	if dst.Type() != a.schema.Type || !dst.CanSet() {
		return fmt.Errorf("derive: Update of %s needs an addressable %v, got %v", a.schema.Ident, a.schema.Type, dst.Type())
	}
	return a.fill(dst, m, p, true)
}

func (a *Args) fill(v reflect.Value, m contract.Matches, p casing.Prefix, update bool) error {
	if err := casing.Select(p, a.schema.Ident, a.schema.FlattenLabels); err != nil {
		return a.declErr("", err)
	}
	for _, fd := range a.fields {
		fv := v.FieldByIndex(fd.s.Index)
		switch fd.kind {
		case fieldSkip:
			if update {
				continue
			}
			sv, err := fd.skip()
			if err != nil {
				return a.declErr(fd.s.Ident, err)
			}
			fv.Set(sv)

		case fieldLeaf:
			name := fd.names(a.cache, p).name
			if update && !fd.mentioned(m, name) {
				continue
			}
			lv, err := fd.build(m, name)
			if err != nil {
				return err
			}
			fv.Set(lv)

		case fieldFlatten:
			sub, err := casing.Attach(p, fd.label, fd.args.schema.Ident, fd.args.schema.FlattenLabels)
			if err != nil {
				return a.declErr(fd.s.Ident, err)
			}
			if err := fd.args.fill(fv, m, sub, update); err != nil {
				return err
			}

		case fieldSubcommand:
			if update {
				if err := fd.subs.Update(fv, m, p); err != nil {
					return err
				}
				continue
			}
			sv, err := fd.subs.Build(m, p)
			if err != nil {
				return err
			}
			fv.Set(sv)
		}
	}
	return nil
}

// mentioned reports whether m says anything about the argument name.
func (fd *field) mentioned(m contract.Matches, name string) bool {
	if fd.strategy == schema.ParseCount {
		return m.Occurrences(name) > 0
	}
	return m.IsPresent(name)
}

// Descriptors returns the argument descriptors a registers under p, in
// registration order, including flattened ones. Sub-actions are not
// included.
func (a *Args) Descriptors(p casing.Prefix) ([]*contract.ArgumentDescriptor, error) {
	var rec recorder
	if err := a.augment(&rec, p, false, true); err != nil {
		return nil, err
	}
	return rec.args, nil
}

// recorder is a Contract that keeps the arguments and ignores the rest.
type recorder struct {
	args    []*contract.ArgumentDescriptor
	heading string
}

func (r *recorder) WithArgument(d *contract.ArgumentDescriptor) { r.args = append(r.args, d) }

func (r *recorder) WithSubAction(contract.ActionSpec, func(contract.Contract) error) error {
	return nil
}

func (r *recorder) WithHeading(h string) { r.heading = h }
func (r *recorder) Heading() string { return r.heading }
func (r *recorder) WithMeta(schema.Meta) {}
func (r *recorder) RequireSubAction() {}
func (r *recorder) AllowExternalSubActions() {}
