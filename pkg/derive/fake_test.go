// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derive

import (
	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/schema"
)

// fakeMatches is a hand-built match result. A key in values with a nil
// slice is an argument given without a value.
type fakeMatches struct {
	values map[string][]string
	counts map[string]int
	action string
	sub    *fakeMatches
}

func (f *fakeMatches) IsPresent(name string) bool {
	_, ok := f.values[name]
	return ok || f.counts[name] > 0
}

func (f *fakeMatches) ValueOf(name string) (string, bool) {
	vals := f.values[name]
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

func (f *fakeMatches) ValuesOf(name string) ([]string, bool) {
	vals, ok := f.values[name]
	return vals, ok
}

func (f *fakeMatches) Occurrences(name string) int {
	return f.counts[name]
}

func (f *fakeMatches) SubAction() (string, contract.Matches, bool) {
	if f.action == "" {
		return "", nil, false
	}
	if f.sub == nil {
		return f.action, &fakeMatches{}, true
	}
	return f.action, f.sub, true
}

// tree is a Contract that records everything registered with it.
type tree struct {
	Meta        schema.Meta
	Args        []*contract.ArgumentDescriptor
	Subs        []*subTree
	SubRequired bool
	External    bool
	heading     string
}

type subTree struct {
	Spec contract.ActionSpec
	Tree *tree
}

func (t *tree) WithArgument(d *contract.ArgumentDescriptor) { t.Args = append(t.Args, d) }

func (t *tree) WithSubAction(spec contract.ActionSpec, build func(contract.Contract) error) error {
	child := &tree{}
	if err := build(child); err != nil {
		return err
	}
	t.Subs = append(t.Subs, &subTree{Spec: spec, Tree: child})
	return nil
}

func (t *tree) WithHeading(h string)     { t.heading = h }
func (t *tree) Heading() string          { return t.heading }
func (t *tree) WithMeta(m schema.Meta)   { t.Meta = m }
func (t *tree) RequireSubAction()        { t.SubRequired = true }
func (t *tree) AllowExternalSubActions() { t.External = true }

func (t *tree) arg(name string) *contract.ArgumentDescriptor {
	for _, d := range t.Args {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (t *tree) sub(name string) *tree {
	for _, s := range t.Subs {
		if s.Spec.Name == name {
			return s.Tree
		}
	}
	return nil
}
