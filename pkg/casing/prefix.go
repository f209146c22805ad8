// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package casing

import (
	"fmt"
	"slices"
	"strings"
)

// Prefix is the namespace a flattened schema is attached under. The zero
// value is the unprefixed root namespace.
type Prefix []string

// String joins the fragments with "-".
func (p Prefix) String() string {
	return strings.Join(p, "-")
}

// Leaf returns the innermost fragment, or "" at the root.
func (p Prefix) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// With returns a new prefix with label appended. p is not modified.
func (p Prefix) With(label string) Prefix {
	out := make(Prefix, 0, len(p)+1)
	out = append(out, p...)
	return append(out, label)
}

// Compose builds the name of leaf under p. The prefix and the leaf are
// joined before casing so the whole name follows c.
func Compose(p Prefix, leaf string, c Casing) string {
	if len(p) == 0 {
		return Cast(leaf, c)
	}
	return Cast(p.String()+"_"+leaf, c)
}

// PrefixLabelError is returned when a schema that only accepts some
// attachment labels is attached under another one.
type PrefixLabelError struct {
	Target string   // schema being attached
	Prefix Prefix   // prefix it was attached under
	Labels []string // labels it accepts
}

func (e *PrefixLabelError) Error() string {
	return fmt.Sprintf("prefix %q not defined for %s (accepted: %s)",
		e.Prefix.String(), e.Target, strings.Join(e.Labels, ", "))
}

// Attach returns the prefix a flattened schema sees. An empty label keeps
// the ancestor prefix; otherwise the label is appended. The result is then
// checked against the target's declared labels with Select.
func Attach(ancestor Prefix, label string, target string, declared []string) (Prefix, error) {
	p := ancestor
	if label != "" {
		p = ancestor.With(label)
	}
	if err := Select(p, target, declared); err != nil {
		return nil, err
	}
	return p, nil
}

// Select checks that a schema declaring labels is entered with a prefix
// whose leaf is one of them. The root prefix is always accepted and yields
// unprefixed names.
func Select(p Prefix, target string, declared []string) error {
	if len(declared) == 0 || len(p) == 0 {
		return nil
	}
	if slices.Contains(declared, p.Leaf()) {
		return nil
	}
	return &PrefixLabelError{Target: target, Prefix: slices.Clone(p), Labels: declared}
}
