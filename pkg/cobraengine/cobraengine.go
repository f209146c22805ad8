// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cobraengine matches argument contracts with spf13/cobra and
// spf13/pflag.
//
// Differences from package engine:
//   - Positional arguments are only matched by the command that runs, not
//     by its ancestors
//   - Short aliases must be ASCII
//   - "help" is handled by cobra and cannot be a sub-action name
package cobraengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/engine"
	"github.com/yeetrun/argschema/pkg/schema"
)

// noValue marks an optional-value flag given without a value.
const noValue = "\x00"

const headingAnnotation = "argschema_heading"

// Command wraps a *cobra.Command and implements contract.Contract.
type Command struct {
	Cobra *cobra.Command

	// LookupEnv resolves environment fallbacks. If nil, os.LookupEnv is
	// used. Only the root's is consulted.
	LookupEnv func(string) (string, bool)

	parent        *Command
	args          []*contract.ArgumentDescriptor
	positional    []*contract.ArgumentDescriptor
	subs          []*Command
	heading       string
	subRequired   bool
	allowExternal bool
	external      bool

	result *engine.Matches // set on the root by a successful run
	err    error
}

var _ contract.Contract = (*Command)(nil)

// New returns a root command named name.
func New(name string) *Command {
	return newCommand(name, nil)
}

func newCommand(name string, parent *Command) *Command {
	c := &Command{parent: parent}
	c.Cobra = &cobra.Command{
		Use:              name,
		Args:             cobra.ArbitraryArgs,
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return c.run(args)
		},
	}
	c.Cobra.CompletionOptions.DisableDefaultCmd = true
	return c
}

// SetOutput directs help and version output to w.
func (c *Command) SetOutput(w io.Writer) {
	c.Cobra.SetOut(w)
	c.Cobra.SetErr(w)
}

func (c *Command) root() *Command {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

func (c *Command) path() string {
	return c.Cobra.CommandPath()
}

func (c *Command) fail(format string, args ...any) {
	if c.err == nil {
		c.err = &engine.DefinitionError{Command: c.path(), Msg: fmt.Sprintf(format, args...)}
	}
}

func flagName(d *contract.ArgumentDescriptor) string {
	if d.Long != "" {
		return d.Long
	}
	return d.Name
}

// WithArgument registers d as a flag of c, or as a positional argument if
// it has no alias. Flags are local to their command and must come before
// the name of a sub-action, so a sub-action may reuse an alias of one of
// its ancestors.
func (c *Command) WithArgument(d *contract.ArgumentDescriptor) {
	for _, prev := range c.args {
		if prev.Name == d.Name {
			c.fail("argument %q registered twice", d.Name)
			return
		}
	}
	if d.Positional() {
		if n := len(c.positional); n > 0 && c.positional[n-1].Cardinality.Multiple() {
			c.fail("positional %s follows repeated positional %s", d.Name, c.positional[n-1].Name)
			return
		}
		c.positional = append(c.positional, d)
		c.args = append(c.args, d)
		return
	}

	fs := c.Cobra.Flags()
	name := flagName(d)
	if fs.Lookup(name) != nil {
		c.fail("flag --%s registered twice", name)
		return
	}
	var short string
	if d.Short != 0 {
		if d.Short >= utf8.RuneSelf {
			c.fail("short flag %q is not ASCII", d.Short)
			return
		}
		short = string(d.Short)
		if fs.ShorthandLookup(short) != nil {
			c.fail("flag -%s registered twice", short)
			return
		}
	}

	usage := d.Help
	var def string
	if d.Default != nil {
		def = *d.Default
	}
	switch {
	case d.Occurrences:
		fs.CountP(name, short, usage)
	case !d.TakesValue:
		fs.BoolP(name, short, false, usage)
	case d.Cardinality.Multiple():
		fs.StringArrayP(name, short, nil, usage)
	default:
		fs.StringP(name, short, def, usage)
		if d.ValueOptional() {
			fs.Lookup(name).NoOptDefVal = noValue
		}
	}
	if c.heading != "" {
		_ = fs.SetAnnotation(name, headingAnnotation, []string{c.heading})
	}
	c.args = append(c.args, d)
}

// WithSubAction registers a cobra sub-command. External actions are kept
// aside; cobra never dispatches to them by name.
func (c *Command) WithSubAction(spec contract.ActionSpec, build func(contract.Contract) error) error {
	for _, s := range c.subs {
		if s.Cobra.Name() == spec.Name {
			return &engine.DefinitionError{Command: c.path(), Msg: fmt.Sprintf("sub-action %q registered twice", spec.Name)}
		}
	}
	sub := newCommand(spec.Name, c)
	sub.external = spec.External
	sub.WithMeta(spec.Meta)
	if err := build(sub); err != nil {
		return err
	}
	if sub.err != nil {
		return sub.err
	}
	c.subs = append(c.subs, sub)
	if !spec.External {
		c.Cobra.AddCommand(sub.Cobra)
	}
	return nil
}

func (c *Command) WithHeading(heading string) { c.heading = heading }

func (c *Command) Heading() string { return c.heading }

func (c *Command) WithMeta(m schema.Meta) {
	if m.About != "" {
		c.Cobra.Short = m.About
	}
	if m.LongAbout != "" {
		c.Cobra.Long = m.LongAbout
	}
	if m.Version != "" {
		c.Cobra.Version = m.Version
	}
}

func (c *Command) RequireSubAction() { c.subRequired = true }

// AllowExternalSubActions stops flag parsing at the first positional
// token so an external action receives its flags untouched.
func (c *Command) AllowExternalSubActions() {
	c.allowExternal = true
	c.Cobra.Flags().SetInterspersed(false)
}

func (c *Command) visibleSubs() []string {
	var out []string
	for _, s := range c.subs {
		if !s.external {
			out = append(out, s.Cobra.Name())
		}
	}
	return out
}

// Match executes the cobra command tree on args and returns what it
// matched. Help output requested with -h or --help is written by cobra
// and reported as engine.ErrHelp.
func (c *Command) Match(args []string) (*engine.Matches, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.reset()
	if args == nil {
		args = []string{}
	}
	c.Cobra.SetArgs(args)
	ran, err := c.Cobra.ExecuteC()
	if errors.Is(err, pflag.ErrHelp) {
		// -h before a sub-action name is seen by the parent's flag set,
		// which has no help flag of its own.
		_ = ran.Help()
		return nil, fmt.Errorf("%w: %s", engine.ErrHelp, ran.CommandPath())
	}
	if err != nil {
		return nil, err
	}
	if c.result == nil {
		return nil, fmt.Errorf("%w: %s", engine.ErrHelp, ran.CommandPath())
	}
	return c.result, nil
}

// reset clears flag state left by a previous Match.
func (c *Command) reset() {
	c.result = nil
	resetFlags(c.Cobra.Flags())
	for _, s := range c.subs {
		s.reset()
	}
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

// run is the RunE of every command. It builds the match chain from the
// root down to c.
func (c *Command) run(args []string) error {
	var chain []*Command
	for x := c; x != nil; x = x.parent {
		chain = append([]*Command{x}, chain...)
	}
	lookupEnv := c.root().LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	ms := make([]*engine.Matches, len(chain))
	for i, x := range chain {
		ms[i] = engine.NewMatches()
		if err := x.collect(ms[i]); err != nil {
			return err
		}
	}
	last := ms[len(ms)-1]
	if err := c.assign(last, args); err != nil {
		return err
	}
	for i, x := range chain {
		if i+1 < len(chain) {
			ms[i].SetSubAction(chain[i+1].Cobra.Name(), ms[i+1])
		}
		if err := x.finish(ms[i], lookupEnv); err != nil {
			return err
		}
	}
	c.root().result = ms[0]
	return nil
}

// collect reads c's flags into m.
func (c *Command) collect(m *engine.Matches) error {
	fs := c.Cobra.Flags()
	for _, d := range c.args {
		if d.Positional() {
			continue
		}
		name := flagName(d)
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch {
		case d.Occurrences:
			n, err := fs.GetCount(name)
			if err != nil {
				return err
			}
			for range n {
				m.Add(d.Name, nil, engine.FromArgs)
			}
		case !d.TakesValue:
			if v, _ := fs.GetBool(name); v {
				m.Add(d.Name, nil, engine.FromArgs)
			}
		case d.Cardinality.Multiple():
			vals, err := fs.GetStringArray(name)
			if err != nil {
				return err
			}
			for _, v := range vals {
				if err := c.add(m, d, v, "--"+name); err != nil {
					return err
				}
			}
		default:
			v := f.Value.String()
			if d.ValueOptional() && v == noValue {
				m.Add(d.Name, nil, engine.FromArgs)
				continue
			}
			if err := c.add(m, d, v, "--"+name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Command) add(m *engine.Matches, d *contract.ArgumentDescriptor, v, shown string) error {
	if err := engine.Check(d, v); err != nil {
		return &engine.FlagValueError{
			FlagName:   shown,
			ArgName:    d.Name,
			Value:      v,
			SubCommand: c.path(),
			UserMsg:    fmt.Sprintf("invalid value %q for %s: %v", v, shown, err),
			Err:        err,
		}
	}
	m.Add(d.Name, &v, engine.FromArgs)
	return nil
}

// assign distributes the positional tokens of the command that ran.
func (c *Command) assign(m *engine.Matches, args []string) error {
	pos := 0
	for i, arg := range args {
		if pos < len(c.positional) {
			d := c.positional[pos]
			if err := c.add(m, d, arg, "<"+d.Name+">"); err != nil {
				return err
			}
			if !d.Cardinality.Multiple() {
				pos++
			}
			continue
		}
		if c.allowExternal {
			ext := engine.NewMatches()
			rest := args[i+1:]
			for _, r := range rest {
				ext.Add(contract.ExternalArgs, &r, engine.FromArgs)
			}
			if len(rest) == 0 {
				ext.Add(contract.ExternalArgs, nil, engine.FromArgs)
			}
			m.SetSubAction(arg, ext)
			return nil
		}
		if len(c.subs) > 0 {
			return &engine.UnknownSubcommandError{Name: arg, SubCommand: c.path(), Valid: c.visibleSubs()}
		}
		return &engine.InvalidArgsError{
			Expected:   fmt.Sprintf("at most %d", len(c.positional)),
			Got:        len(args),
			SubCommand: c.path(),
		}
	}
	return nil
}

// finish applies environment fallbacks and checks requiredness.
func (c *Command) finish(m *engine.Matches, lookupEnv func(string) (string, bool)) error {
	for _, d := range c.args {
		if d.Env == "" || m.IsPresent(d.Name) {
			continue
		}
		v, ok := lookupEnv(d.Env)
		if !ok {
			continue
		}
		if !d.TakesValue {
			if b, err := strconv.ParseBool(v); err == nil && b {
				m.Add(d.Name, nil, engine.FromEnv)
			}
			continue
		}
		if err := engine.Check(d, v); err != nil {
			return &engine.FlagValueError{
				FlagName:   "$" + d.Env,
				ArgName:    d.Name,
				Value:      v,
				SubCommand: c.path(),
				UserMsg:    fmt.Sprintf("invalid value %q in $%s: %v", v, d.Env, err),
				Err:        err,
			}
		}
		m.Add(d.Name, &v, engine.FromEnv)
	}
	var missing []string
	for _, d := range c.args {
		if d.Required && !m.IsPresent(d.Name) {
			if d.Positional() {
				missing = append(missing, "<"+d.Name+">")
			} else {
				missing = append(missing, "--"+flagName(d))
			}
		}
	}
	if len(missing) > 0 {
		return &engine.MissingArgumentError{Args: missing, SubCommand: c.path()}
	}
	if c.subRequired {
		if _, _, ok := m.SubAction(); !ok {
			return &engine.MissingSubcommandError{SubCommand: c.path(), Valid: c.visibleSubs()}
		}
	}
	return nil
}
