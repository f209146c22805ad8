// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/yeetrun/argschema/pkg/argenum"
	"github.com/yeetrun/argschema/pkg/schema"
)

// Description is a serializable view of a command tree: what was
// registered, without the validators.
type Description struct {
	Name        string         `yaml:"name" toml:"name"`
	Meta        schema.Meta    `yaml:"meta,omitempty" toml:"meta,omitempty"`
	Args        []ArgDesc      `yaml:"args,omitempty" toml:"args,omitempty"`
	Subcommands []*Description `yaml:"subcommands,omitempty" toml:"subcommands,omitempty"`
	SubRequired bool           `yaml:"sub_required,omitempty" toml:"sub_required,omitempty"`
	External    bool           `yaml:"external,omitempty" toml:"external,omitempty"`
	// AllowExternal is set on commands that capture unknown action names.
	AllowExternal bool `yaml:"allow_external,omitempty" toml:"allow_external,omitempty"`
}

// ArgDesc is the serializable form of an argument descriptor.
type ArgDesc struct {
	Name           string          `yaml:"name" toml:"name"`
	Short          string          `yaml:"short,omitempty" toml:"short,omitempty"`
	Long           string          `yaml:"long,omitempty" toml:"long,omitempty"`
	Env            string          `yaml:"env,omitempty" toml:"env,omitempty"`
	Cardinality    string          `yaml:"cardinality" toml:"cardinality"`
	Required       bool            `yaml:"required,omitempty" toml:"required,omitempty"`
	TakesValue     bool            `yaml:"takes_value,omitempty" toml:"takes_value,omitempty"`
	Occurrences    bool            `yaml:"occurrences,omitempty" toml:"occurrences,omitempty"`
	ValueName      string          `yaml:"value_name,omitempty" toml:"value_name,omitempty"`
	Help           string          `yaml:"help,omitempty" toml:"help,omitempty"`
	Heading        string          `yaml:"heading,omitempty" toml:"heading,omitempty"`
	Default        *string         `yaml:"default,omitempty" toml:"default,omitempty"`
	PossibleValues []argenum.Value `yaml:"possible_values,omitempty" toml:"possible_values,omitempty"`
	IgnoreCase     bool            `yaml:"ignore_case,omitempty" toml:"ignore_case,omitempty"`
}

// Describe returns the description of c and its sub-actions.
func (c *Command) Describe() *Description {
	d := &Description{
		Name:          c.Name,
		Meta:          c.Meta,
		SubRequired:   c.subRequired,
		External:      c.external,
		AllowExternal: c.allowExternal,
	}
	for _, a := range c.args {
		ad := ArgDesc{
			Name:           a.Name,
			Long:           a.Long,
			Env:            a.Env,
			Cardinality:    a.Cardinality.String(),
			Required:       a.Required,
			TakesValue:     a.TakesValue,
			Occurrences:    a.Occurrences,
			ValueName:      a.ValueName,
			Help:           a.Help,
			Heading:        a.Heading,
			Default:        a.Default,
			PossibleValues: a.PossibleValues,
			IgnoreCase:     a.IgnoreCase,
		}
		if a.Short != 0 {
			ad.Short = string(a.Short)
		}
		d.Args = append(d.Args, ad)
	}
	for _, s := range c.subs {
		d.Subcommands = append(d.Subcommands, s.Describe())
	}
	return d
}
