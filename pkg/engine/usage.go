// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"strings"

	"github.com/yeetrun/argschema/pkg/contract"
)

// Usage renders the help text of c.
func (c *Command) Usage() string {
	var b strings.Builder

	about := c.Meta.LongAbout
	if about == "" {
		about = c.Meta.About
	}
	name := c.Path()
	if c.parent == nil && c.Meta.Name != "" {
		name = c.Meta.Name
	}
	if c.Meta.Version != "" {
		fmt.Fprintf(&b, "%s %s\n", name, c.Meta.Version)
	}
	if c.Meta.Author != "" {
		fmt.Fprintf(&b, "%s\n", c.Meta.Author)
	}
	if about != "" {
		b.WriteString(about)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	// Usage line
	b.WriteString("USAGE:\n")
	usage := "    " + name
	if len(c.args) > len(c.positional) {
		usage += " [OPTIONS]"
	}
	for _, d := range c.positional {
		usage += " " + positionalUsage(d)
	}
	switch {
	case len(c.subs) > 0 && c.subRequired:
		usage += " <SUBCOMMAND>"
	case len(c.subs) > 0:
		usage += " [SUBCOMMAND]"
	}
	b.WriteString(usage)
	b.WriteString("\n")

	if len(c.positional) > 0 {
		b.WriteString("\nARGUMENTS:\n")
		for _, d := range c.positional {
			writeEntry(&b, positionalUsage(d), d)
		}
	}

	// Options grouped by heading, in order of first appearance.
	var headings []string
	groups := map[string][]*contract.ArgumentDescriptor{}
	for _, d := range c.args {
		if d.Positional() {
			continue
		}
		h := d.Heading
		if _, ok := groups[h]; !ok {
			headings = append(headings, h)
		}
		groups[h] = append(groups[h], d)
	}
	for _, h := range headings {
		title := "OPTIONS"
		if h != "" {
			title = strings.ToUpper(h)
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, d := range groups[h] {
			writeEntry(&b, flagUsage(d), d)
		}
	}

	if names := c.visibleSubs(); len(names) > 0 {
		b.WriteString("\nSUBCOMMANDS:\n")
		for _, s := range c.subs {
			if s.external {
				continue
			}
			if s.Meta.About != "" {
				fmt.Fprintf(&b, "    %-20s %s\n", s.Name, s.Meta.About)
			} else {
				fmt.Fprintf(&b, "    %s\n", s.Name)
			}
		}
	}
	return b.String()
}

func valueName(d *contract.ArgumentDescriptor) string {
	if d.ValueName != "" {
		return d.ValueName
	}
	return strings.ToUpper(d.Name)
}

func positionalUsage(d *contract.ArgumentDescriptor) string {
	v := valueName(d)
	switch {
	case d.Cardinality.Multiple() && d.Required:
		return "<" + v + ">..."
	case d.Cardinality.Multiple():
		return "[" + v + "]..."
	case d.Required:
		return "<" + v + ">"
	}
	return "[" + v + "]"
}

func flagUsage(d *contract.ArgumentDescriptor) string {
	var s string
	switch {
	case d.Short != 0 && d.Long != "":
		s = fmt.Sprintf("-%c, --%s", d.Short, d.Long)
	case d.Short != 0:
		s = fmt.Sprintf("-%c", d.Short)
	default:
		s = "    --" + d.Long
	}
	if d.TakesValue {
		v := "<" + valueName(d) + ">"
		if d.ValueOptional() {
			v = "[" + valueName(d) + "]"
		}
		s += " " + v
		if d.Cardinality.Multiple() {
			s += "..."
		}
	}
	return s
}

func writeEntry(b *strings.Builder, left string, d *contract.ArgumentDescriptor) {
	help := d.Help
	var extra []string
	if d.Default != nil {
		extra = append(extra, fmt.Sprintf("default: %s", *d.Default))
	}
	if d.Env != "" {
		extra = append(extra, "env: "+d.Env)
	}
	if len(d.PossibleValues) > 0 {
		names := make([]string, len(d.PossibleValues))
		for i, v := range d.PossibleValues {
			names[i] = v.Name
		}
		extra = append(extra, "possible values: "+strings.Join(names, ", "))
	}
	if len(extra) > 0 {
		if help != "" {
			help += " "
		}
		help += "[" + strings.Join(extra, "; ") + "]"
	}
	if help == "" {
		fmt.Fprintf(b, "    %s\n", left)
		return
	}
	fmt.Fprintf(b, "    %-24s %s\n", left, help)
}
