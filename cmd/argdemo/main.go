// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command argdemo parses a command line against a sample schema and
// prints what it matched and built. It is handy for checking how tags
// turn into flags:
//
//	argdemo -vv --cache-dir /tmp/c install --retries=3 pkg1 pkg2
//	argdemo --describe --format toml
//
// argdemo's own flags (--config, --format, --engine, --describe, --debug,
// --env-file and --save-env) are taken out of the line before the rest is
// parsed.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/shayne/yargs"
	"github.com/yeetrun/argschema/pkg/argschema"
	"github.com/yeetrun/argschema/pkg/cobraengine"
	"github.com/yeetrun/argschema/pkg/derive"
	"github.com/yeetrun/argschema/pkg/engine"
	"github.com/yeetrun/argschema/pkg/env"
	"github.com/yeetrun/argschema/pkg/schema"
	"tailscale.com/types/logger"
)

type globalFlagsParsed struct {
	Config   string `flag:"config" help:"Path to the config file (default ./argdemo.toml)"`
	Format   string `flag:"format" help:"Output format: yaml, toml or json"`
	Engine   string `flag:"engine" help:"Matching engine: builtin or cobra"`
	Describe bool   `flag:"describe" help:"Print the argument contract and exit"`
	Debug    bool   `flag:"debug" help:"Log schema compilation and matching"`
	EnvFile  string `flag:"env-file" help:"Read environment fallbacks from this file"`
	SaveEnv  string `flag:"save-env" help:"Write the matched arguments to this env file"`
}

func parseGlobalFlags(args []string) (globalFlagsParsed, []string, error) {
	result, err := yargs.ParseKnownFlags[globalFlagsParsed](args, yargs.KnownFlagsOptions{})
	if err != nil {
		return globalFlagsParsed{}, nil, err
	}
	return result.Flags, result.RemainingArgs, nil
}

var errorColor = color.New(color.FgRed, color.Bold)

func printCLIError(w io.Writer, err error) {
	if err == nil {
		return
	}
	errorColor.Fprint(w, "error: ")
	fmt.Fprintln(w, err)

	var valid []string
	var ue *engine.UnknownSubcommandError
	var me *engine.MissingSubcommandError
	switch {
	case errors.As(err, &ue):
		valid = ue.Valid
	case errors.As(err, &me):
		valid = me.Valid
	}
	if len(valid) > 0 {
		fmt.Fprintf(w, "valid subcommands: %s\n", strings.Join(valid, ", "))
	}
}

// result is what argdemo prints after a successful parse.
type result struct {
	Command string           `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty"`
	Value   pkgtool          `yaml:"value" toml:"value" json:"value"`
	Matches *engine.Snapshot `yaml:"matches" toml:"matches" json:"matches"`
}

// actionPath returns the space separated sub-actions m dispatched to.
func actionPath(m *engine.Matches) string {
	var path []string
	for {
		name, sub := m.Sub()
		if sub == nil {
			break
		}
		path = append(path, name)
		m = sub
	}
	return strings.Join(path, " ")
}

func newParser(cfg *config, flags globalFlagsParsed, lookupEnv func(string) (string, bool)) (*argschema.Parser[pkgtool], error) {
	var logf logger.Logf = logger.Discard
	if flags.Debug {
		logf = log.Printf
	}
	compiler := derive.NewCompiler(&schema.Loader{Policies: cfg.Casing})
	compiler.Logf = logf

	opts := argschema.Options{
		Name:      "pkgtool",
		Compiler:  compiler,
		LookupEnv: lookupEnv,
		Logf:      logf,
	}
	switch cfg.Engine {
	case "", "builtin":
	case "cobra":
		opts.NewEngine = func(name string) argschema.Engine {
			c := cobraengine.New(name)
			c.LookupEnv = lookupEnv
			return c
		}
	default:
		return nil, fmt.Errorf("unknown engine %q (want builtin or cobra)", cfg.Engine)
	}
	return argschema.New[pkgtool](opts)
}

// run is main without the exit, returning the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags, remaining, err := parseGlobalFlags(args)
	if err != nil {
		printCLIError(stderr, err)
		return 2
	}
	cfg, err := loadConfig(flags.Config)
	if err != nil {
		printCLIError(stderr, err)
		return 1
	}
	cfg.apply(flags)

	lookupEnv := env.Lookup(cfg.Env, os.LookupEnv)
	if flags.EnvFile != "" {
		vars, err := env.Load(flags.EnvFile)
		if err != nil {
			printCLIError(stderr, err)
			return 1
		}
		lookupEnv = env.Lookup(vars, lookupEnv)
	}

	p, err := newParser(cfg, flags, lookupEnv)
	if err != nil {
		printCLIError(stderr, err)
		return 1
	}

	if flags.Describe {
		d, ok := p.Engine().(interface{ Describe() *engine.Description })
		if !ok {
			printCLIError(stderr, fmt.Errorf("--describe is not supported by the %s engine", cfg.Engine))
			return 1
		}
		if err := encode(stdout, cfg.Format, d.Describe()); err != nil {
			printCLIError(stderr, err)
			return 1
		}
		return 0
	}

	v, m, err := p.ParseMatches(remaining)
	if err != nil {
		if errors.Is(err, engine.ErrHelp) {
			return argschema.Report(stdout, stderr, err)
		}
		printCLIError(stderr, err)
		return 2
	}
	if flags.SaveEnv != "" {
		descs, err := p.Descriptors()
		if err != nil {
			printCLIError(stderr, err)
			return 1
		}
		if err := env.Write(flags.SaveEnv, env.Vars(descs, m)); err != nil {
			printCLIError(stderr, err)
			return 1
		}
	}
	res := result{
		Command: actionPath(m),
		Value:   v,
		Matches: m.Snapshot(),
	}
	if err := encode(stdout, cfg.Format, res); err != nil {
		printCLIError(stderr, err)
		return 1
	}
	return 0
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("argdemo: ")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
