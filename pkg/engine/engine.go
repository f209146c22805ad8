// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine is a command-line matching engine for argument contracts.
//
// A Command implements contract.Contract: compiled schemas register their
// arguments and sub-actions with it, and Match then turns a command line
// into a *Matches that the schemas build values from.
//
// Matching follows these rules:
//   - Flag formats: --long, --long=value, --long value, -s, -svalue, -s value
//     and clusters of short flags (-abc)
//   - Arguments without a short or long alias are positional, in
//     registration order; a repeated positional takes all remaining ones
//   - "--" ends flag parsing; every later token is positional
//   - The first token naming a sub-action hands the rest of the line to it
//   - With external sub-actions allowed, an unknown action name and every
//     token after it are captured verbatim
//   - Arguments with an Env name fall back to that variable when absent
package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/schema"
	"tailscale.com/types/logger"
	"tailscale.com/util/mak"
)

// Command is one command of a command tree.
type Command struct {
	Name string
	Meta schema.Meta

	// LookupEnv resolves environment fallbacks. If nil, os.LookupEnv is
	// used. Sub-actions inherit it from their parent.
	LookupEnv func(string) (string, bool)

	// Logf, if set, receives debug lines about matching.
	Logf logger.Logf

	parent     *Command
	args       []*contract.ArgumentDescriptor
	byName     map[string]*contract.ArgumentDescriptor
	byLong     map[string]*contract.ArgumentDescriptor
	byShort    map[rune]*contract.ArgumentDescriptor
	positional []*contract.ArgumentDescriptor
	subs       []*Command

	heading       string
	subRequired   bool
	allowExternal bool
	external      bool // this is the external action of its parent

	err error // first definition problem
}

var _ contract.Contract = (*Command)(nil)

// New returns an empty root command.
func New(name string) *Command {
	return &Command{Name: name}
}

// Path returns the space separated names from the root to c.
func (c *Command) Path() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.Path() + " " + c.Name
}

// Parent returns the command c was registered under, or nil.
func (c *Command) Parent() *Command { return c.parent }

// Args returns the registered arguments in registration order.
func (c *Command) Args() []*contract.ArgumentDescriptor { return c.args }

// Subcommands returns the registered sub-actions in registration order.
func (c *Command) Subcommands() []*Command { return c.subs }

// Sub returns the named sub-action, or nil.
func (c *Command) Sub(name string) *Command {
	for _, s := range c.subs {
		if s.Name == name && !s.external {
			return s
		}
	}
	return nil
}

// Arg returns the argument with the given canonical name, or nil.
func (c *Command) Arg(name string) *contract.ArgumentDescriptor {
	return c.byName[name]
}

// External reports whether c is an external catch-all action.
func (c *Command) External() bool { return c.external }

// SubRequired reports whether a sub-action must be given.
func (c *Command) SubRequired() bool { return c.subRequired }

// AllowsExternal reports whether unknown action names are captured.
func (c *Command) AllowsExternal() bool { return c.allowExternal }

// Err returns the first definition problem recorded while arguments and
// sub-actions were registered.
func (c *Command) Err() error { return c.err }

func (c *Command) fail(format string, args ...any) {
	if c.err == nil {
		c.err = &DefinitionError{Command: c.Path(), Msg: fmt.Sprintf(format, args...)}
	}
}

func (c *Command) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

func (c *Command) lookupEnv(key string) (string, bool) {
	if c.LookupEnv != nil {
		return c.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

// WithArgument registers d. Name, long and short collisions are recorded
// and reported by Match.
func (c *Command) WithArgument(d *contract.ArgumentDescriptor) {
	if _, dup := c.byName[d.Name]; dup {
		c.fail("argument %q registered twice", d.Name)
		return
	}
	if d.Long != "" {
		if _, dup := c.byLong[d.Long]; dup {
			c.fail("flag --%s registered twice", d.Long)
			return
		}
		mak.Set(&c.byLong, d.Long, d)
	}
	if d.Short != 0 {
		if d.Short == '-' || d.Short == '=' {
			c.fail("invalid short flag %q", d.Short)
			return
		}
		if prev, dup := c.byShort[d.Short]; dup {
			c.fail("flag -%c used by both %s and %s", d.Short, prev.Name, d.Name)
			return
		}
		mak.Set(&c.byShort, d.Short, d)
	}
	if d.Positional() {
		if n := len(c.positional); n > 0 && c.positional[n-1].Cardinality.Multiple() {
			c.fail("positional %s follows repeated positional %s", d.Name, c.positional[n-1].Name)
			return
		}
		c.positional = append(c.positional, d)
	}
	mak.Set(&c.byName, d.Name, d)
	c.args = append(c.args, d)
}

// WithSubAction registers a sub-action and builds it.
func (c *Command) WithSubAction(spec contract.ActionSpec, build func(contract.Contract) error) error {
	for _, s := range c.subs {
		if s.Name == spec.Name {
			return &DefinitionError{Command: c.Path(), Msg: fmt.Sprintf("sub-action %q registered twice", spec.Name)}
		}
	}
	sub := &Command{
		Name:      spec.Name,
		Meta:      spec.Meta,
		LookupEnv: c.LookupEnv,
		Logf:      c.Logf,
		parent:    c,
		external:  spec.External,
	}
	if err := build(sub); err != nil {
		return err
	}
	if sub.err != nil {
		return sub.err
	}
	c.subs = append(c.subs, sub)
	return nil
}

func (c *Command) WithHeading(heading string) { c.heading = heading }

func (c *Command) Heading() string { return c.heading }

// WithMeta merges m into c.Meta; empty fields of m leave c.Meta alone.
func (c *Command) WithMeta(m schema.Meta) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Meta.Name, m.Name)
	set(&c.Meta.Version, m.Version)
	set(&c.Meta.Author, m.Author)
	set(&c.Meta.About, m.About)
	set(&c.Meta.LongAbout, m.LongAbout)
	set(&c.Meta.HelpHeading, m.HelpHeading)
}

func (c *Command) RequireSubAction() { c.subRequired = true }

func (c *Command) AllowExternalSubActions() { c.allowExternal = true }

// visibleSubs returns the names of the sub-actions that can be selected
// by name.
func (c *Command) visibleSubs() []string {
	var out []string
	for _, s := range c.subs {
		if !s.external {
			out = append(out, s.Name)
		}
	}
	return out
}

// display returns how d is shown in messages.
func display(d *contract.ArgumentDescriptor) string {
	switch {
	case d.Long != "":
		return "--" + d.Long
	case d.Short != 0:
		return "-" + string(d.Short)
	}
	v := d.ValueName
	if v == "" {
		v = strings.ToUpper(d.Name)
	}
	return "<" + v + ">"
}
