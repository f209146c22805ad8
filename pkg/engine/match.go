// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yeetrun/argschema/pkg/contract"
)

// Match matches args, which should not include the program name, against
// c and its sub-actions.
func (c *Command) Match(args []string) (*Matches, error) {
	if c.err != nil {
		return nil, c.err
	}
	m, err := c.match(args)
	if err != nil {
		c.logf("engine: %s: %v", c.Path(), err)
		return nil, err
	}
	return m, nil
}

// matcher holds the state of matching one command's share of the line.
type matcher struct {
	c   *Command
	m   *Matches
	pos int // index of the next positional slot
	got int // positional values seen
}

func (c *Command) match(args []string) (*Matches, error) {
	st := &matcher{c: c, m: NewMatches()}
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			for _, rest := range args[i+1:] {
				if err := st.positional(rest); err != nil {
					return nil, err
				}
			}
			break
		}

		if arg == "-h" && c.byShort['h'] == nil || arg == "--help" && c.byLong["help"] == nil {
			return nil, &HelpError{Command: c}
		}

		if strings.HasPrefix(arg, "--") {
			consumed, err := st.long(arg[2:], args[i+1:])
			if err != nil {
				return nil, err
			}
			i += consumed
			continue
		}

		if len(arg) > 1 && arg[0] == '-' && !st.negativeNumber(arg) {
			consumed, err := st.short(arg[1:], args[i+1:])
			if err != nil {
				return nil, err
			}
			i += consumed
			continue
		}

		if sub := c.Sub(arg); sub != nil {
			sm, err := sub.match(args[i+1:])
			if err != nil {
				return nil, err
			}
			st.m.SetSubAction(arg, sm)
			break
		}
		if st.pos < len(c.positional) {
			if err := st.positional(arg); err != nil {
				return nil, err
			}
			continue
		}
		if c.allowExternal {
			ext := NewMatches()
			rest := make([]string, 0, len(args)-i-1)
			rest = append(rest, args[i+1:]...)
			ext.arg(contract.ExternalArgs, FromArgs).Values = rest
			st.m.SetSubAction(arg, ext)
			c.logf("engine: %s: external sub-action %q with %d tokens", c.Path(), arg, len(rest))
			break
		}
		if len(c.subs) > 0 {
			return nil, &UnknownSubcommandError{Name: arg, SubCommand: c.Path(), Valid: c.visibleSubs()}
		}
		return nil, &InvalidArgsError{
			Expected:   fmt.Sprintf("at most %d", len(c.positional)),
			Got:        st.got + 1,
			SubCommand: c.Path(),
		}
	}
	if err := st.finish(); err != nil {
		return nil, err
	}
	return st.m, nil
}

// negativeNumber reports whether arg is a negative number that should be
// treated as a value rather than a short flag cluster.
func (st *matcher) negativeNumber(arg string) bool {
	if !isNumeric(arg) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(arg[1:])
	return st.c.byShort[r] == nil
}

// takesNext reports whether next can be consumed as a flag value.
func (st *matcher) takesNext(next string) bool {
	return !strings.HasPrefix(next, "-") || next == "-" || st.negativeNumber(next)
}

// long handles "--name" or "--name=value". It returns how many tokens of
// rest it consumed.
func (st *matcher) long(flag string, rest []string) (int, error) {
	name, value, hasValue := strings.Cut(flag, "=")
	d := st.c.byLong[name]
	if d == nil {
		return 0, &InvalidFlagError{Flag: "--" + name, SubCommand: st.c.Path()}
	}
	if hasValue {
		return 0, st.value(d, &value)
	}
	return st.flag(d, rest)
}

// short handles a cluster of short flags. A value-taking flag ends the
// cluster and takes the remaining text, or the next token, as its value.
func (st *matcher) short(cluster string, rest []string) (int, error) {
	for i, r := range cluster {
		d := st.c.byShort[r]
		if d == nil {
			return 0, &InvalidFlagError{Flag: "-" + string(r), SubCommand: st.c.Path()}
		}
		if !d.TakesValue {
			after := cluster[i+utf8.RuneLen(r):]
			if strings.HasPrefix(after, "=") {
				return 0, st.reject(d, after[1:], "flag %s does not take a value", display(d))
			}
			st.m.Add(d.Name, nil, FromArgs)
			continue
		}
		value := cluster[i+utf8.RuneLen(r):]
		if value != "" {
			value = strings.TrimPrefix(value, "=")
			return 0, st.value(d, &value)
		}
		return st.flag(d, rest)
	}
	return 0, nil
}

// flag handles a flag given without an attached value.
func (st *matcher) flag(d *contract.ArgumentDescriptor, rest []string) (int, error) {
	if !d.TakesValue {
		st.m.Add(d.Name, nil, FromArgs)
		return 0, nil
	}
	if len(rest) > 0 && st.takesNext(rest[0]) {
		return 1, st.value(d, &rest[0])
	}
	if d.ValueOptional() {
		st.m.Add(d.Name, nil, FromArgs)
		return 0, nil
	}
	return 0, st.reject(d, "", "flag %s needs a value", display(d))
}

// value records one value for d after checking it.
func (st *matcher) value(d *contract.ArgumentDescriptor, v *string) error {
	if !d.TakesValue {
		return st.reject(d, *v, "flag %s does not take a value", display(d))
	}
	if err := Check(d, *v); err != nil {
		return &FlagValueError{
			FlagName:   display(d),
			ArgName:    d.Name,
			Value:      *v,
			SubCommand: st.c.Path(),
			UserMsg:    fmt.Sprintf("invalid value %q for %s: %v", *v, display(d), err),
			Err:        err,
		}
	}
	st.m.Add(d.Name, v, FromArgs)
	return nil
}

func (st *matcher) reject(d *contract.ArgumentDescriptor, value, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return &FlagValueError{
		FlagName:   display(d),
		ArgName:    d.Name,
		Value:      value,
		SubCommand: st.c.Path(),
		UserMsg:    msg,
		Err:        errors.New(msg),
	}
}

// positional assigns arg to the next positional slot.
func (st *matcher) positional(arg string) error {
	if st.pos >= len(st.c.positional) {
		return &InvalidArgsError{
			Expected:   fmt.Sprintf("at most %d", len(st.c.positional)),
			Got:        st.got + 1,
			SubCommand: st.c.Path(),
		}
	}
	d := st.c.positional[st.pos]
	if err := st.value(d, &arg); err != nil {
		return err
	}
	st.got++
	if !d.Cardinality.Multiple() {
		st.pos++
	}
	return nil
}

// finish applies environment fallbacks and checks requiredness.
func (st *matcher) finish() error {
	c := st.c
	for _, d := range c.args {
		if d.Env == "" || st.m.IsPresent(d.Name) {
			continue
		}
		v, ok := c.lookupEnv(d.Env)
		if !ok {
			continue
		}
		if !d.TakesValue {
			if b, err := strconv.ParseBool(v); err == nil && b {
				st.m.Add(d.Name, nil, FromEnv)
			}
			continue
		}
		if err := Check(d, v); err != nil {
			return &FlagValueError{
				FlagName:   "$" + d.Env,
				ArgName:    d.Name,
				Value:      v,
				SubCommand: c.Path(),
				UserMsg:    fmt.Sprintf("invalid value %q in $%s: %v", v, d.Env, err),
				Err:        err,
			}
		}
		st.m.Add(d.Name, &v, FromEnv)
	}

	var missing []string
	for _, d := range c.args {
		if d.Required && !st.m.IsPresent(d.Name) {
			missing = append(missing, display(d))
		}
	}
	if len(missing) > 0 {
		return &MissingArgumentError{Args: missing, SubCommand: c.Path()}
	}
	if c.subRequired && st.m.sub == nil {
		return &MissingSubcommandError{SubCommand: c.Path(), Valid: c.visibleSubs()}
	}
	return nil
}

// Check reports whether v is acceptable for d: one of its possible values,
// if it has any, and accepted by its validator.
func Check(d *contract.ArgumentDescriptor, v string) error {
	if len(d.PossibleValues) > 0 {
		ok := false
		names := make([]string, len(d.PossibleValues))
		for i, pv := range d.PossibleValues {
			names[i] = pv.Name
			if pv.Name == v || d.IgnoreCase && strings.EqualFold(pv.Name, v) {
				ok = true
			}
		}
		if !ok {
			return fmt.Errorf("possible values: %s", strings.Join(names, ", "))
		}
	}
	if d.Validate != nil {
		return d.Validate(v)
	}
	return nil
}

// isNumeric reports whether s is a number such as "10", "-10" or "-3.14".
func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		if len(s) == 1 {
			return false
		}
		start = 1
	}
	hasDigit := false
	hasDot := false
	for i := start; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			hasDigit = true
		case s[i] == '.' && !hasDot:
			hasDot = true
		default:
			return false
		}
	}
	return hasDigit
}
