// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/yeetrun/argschema/pkg/casing"
	"github.com/yeetrun/argschema/pkg/schema"
)

// pkgtool is the command line argdemo parses: a small package manager
// front end.
type pkgtool struct {
	schema.Args `name:"pkgtool" version:"0.3.0" about:"A package manager front end" yaml:"-" toml:"-" json:"-"`

	Verbose int        `short:"" long:"" parse:"count" help:"More output, repeat for more" yaml:"verbose" toml:"verbose" json:"verbose"`
	Color   colorMode  `long:"" arg_enum:"" ignore_case:"" default:"auto" help:"When to use color" yaml:"color" toml:"color" json:"color"`
	Cache   cacheOpts  `flatten:"cache" yaml:"cache" toml:"cache" json:"cache"`
	Cmd     pkgCommand `subcommand:"" yaml:"cmd" toml:"cmd" json:"cmd"`
}

type cacheOpts struct {
	schema.Args `flatten:"cache" help_heading:"Cache" yaml:"-" toml:"-" json:"-"`

	Dir  *string `long:"dir" env:"" help:"Cache directory" yaml:"dir,omitempty" toml:"dir,omitempty" json:"dir,omitempty"`
	Size *int    `long:"size" env:"" help:"Cache size in MiB" yaml:"size,omitempty" toml:"size,omitempty" json:"size,omitempty"`
}

type pkgCommand struct {
	Install *installArgs `about:"Install packages" yaml:"install,omitempty" toml:"install,omitempty" json:"install,omitempty"`
	Remove  *removeArgs  `about:"Remove packages" yaml:"remove,omitempty" toml:"remove,omitempty" json:"remove,omitempty"`
	Update  *struct{}    `about:"Refresh package lists" yaml:"update,omitempty" toml:"update,omitempty" json:"update,omitempty"`
	Plugin  []string     `external:"" yaml:"plugin,omitempty" toml:"plugin,omitempty" json:"plugin,omitempty"`
}

type installArgs struct {
	Retries   **int    `long:"" help:"Retry failed downloads, forever unless a count is given" yaml:"retries,omitempty" toml:"retries,omitempty" json:"retries,omitempty"`
	Reinstall bool     `short:"r" long:"" help:"Reinstall packages already present" yaml:"reinstall" toml:"reinstall" json:"reinstall"`
	Packages  []string `help:"Packages to install" yaml:"packages" toml:"packages" json:"packages"`
}

type removeArgs struct {
	Purge    bool     `long:"" help:"Also remove configuration" yaml:"purge" toml:"purge" json:"purge"`
	Packages []string `help:"Packages to remove" yaml:"packages" toml:"packages" json:"packages"`
}

type colorMode int

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

func (colorMode) EnumVariants() []schema.EnumVariant {
	return []schema.EnumVariant{
		{Ident: "Auto", Value: colorAuto, Help: "Color when writing to a terminal"},
		{Ident: "Always", Value: colorAlways},
		{Ident: "Never", Value: colorNever},
	}
}

func (m colorMode) MarshalText() ([]byte, error) {
	for _, v := range m.EnumVariants() {
		if v.Value == m {
			return []byte(casing.Cast(v.Ident, casing.Lower)), nil
		}
	}
	return nil, fmt.Errorf("unknown color mode %d", int(m))
}
