// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/argschema/pkg/casing"
	"tailscale.com/util/must"
)

const configName = "argdemo.toml"

// config is the optional argdemo.toml:
//
//	format = "toml"
//	engine = "cobra"
//
//	[casing]
//	name = "snake"
//	env = "SCREAMING_SNAKE_CASE"
//
//	[env]
//	CACHE_DIR = "/var/cache/pkgtool"
type config struct {
	Format string          `toml:"format"`
	Engine string          `toml:"engine"`
	Casing casing.Policies `toml:"casing"`
	// Env is consulted before the process environment for fallbacks.
	Env map[string]string `toml:"env"`
}

// loadConfig reads the config at path. An empty path means argdemo.toml
// in the working directory, which need not exist.
func loadConfig(path string) (*config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(must.Get(os.Getwd()), configName)
	}
	var cfg config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &config{}, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// apply lets command line flags override the file.
func (c *config) apply(f globalFlagsParsed) {
	if f.Format != "" {
		c.Format = f.Format
	}
	if f.Engine != "" {
		c.Engine = f.Engine
	}
}
