// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHelp is matched by a *HelpError, returned when -h or --help is given.
var ErrHelp = errors.New("help requested")

// HelpError is returned when help is requested. Command is the command
// whose help was asked for.
type HelpError struct {
	Command *Command
}

func (e *HelpError) Error() string {
	return fmt.Sprintf("help requested for %s", e.Command.Path())
}

func (e *HelpError) Is(target error) bool {
	return target == ErrHelp
}

// InvalidFlagError is returned when an unknown flag is encountered.
type InvalidFlagError struct {
	Flag       string
	SubCommand string // path of the command the flag was given to
}

func (e *InvalidFlagError) Error() string {
	return fmt.Sprintf("unknown flag: %s", e.Flag)
}

// InvalidArgsError is returned when more positional arguments are given
// than the command accepts.
type InvalidArgsError struct {
	Expected   string // "1", "at most 2"
	Got        int
	SubCommand string
}

func (e *InvalidArgsError) Error() string {
	if e.SubCommand != "" {
		return fmt.Sprintf("'%s' requires %s argument(s), got %d", e.SubCommand, e.Expected, e.Got)
	}
	return fmt.Sprintf("requires %s argument(s), got %d", e.Expected, e.Got)
}

// FlagValueError is returned when an argument's value is missing or
// rejected. UserMsg is the message shown to users; Err keeps the cause.
type FlagValueError struct {
	FlagName   string // as displayed, e.g. "--retries" or "<INPUT>"
	ArgName    string // canonical argument name
	Value      string
	SubCommand string
	UserMsg    string
	Err        error
}

func (e *FlagValueError) Error() string {
	return e.UserMsg
}

func (e *FlagValueError) Unwrap() error {
	return e.Err
}

// MissingArgumentError is returned when required arguments are absent.
type MissingArgumentError struct {
	Args       []string // as displayed
	SubCommand string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument(s): %s", strings.Join(e.Args, ", "))
}

// UnknownSubcommandError is returned for an action name that matches no
// sub-action when external sub-actions are not allowed.
type UnknownSubcommandError struct {
	Name       string
	SubCommand string
	Valid      []string
}

func (e *UnknownSubcommandError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("unknown command %q", e.Name)
	}
	return fmt.Sprintf("unknown command %q (available: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// MissingSubcommandError is returned when a command requires a sub-action
// and none was given.
type MissingSubcommandError struct {
	SubCommand string
	Valid      []string
}

func (e *MissingSubcommandError) Error() string {
	return fmt.Sprintf("'%s' requires a subcommand: %s", e.SubCommand, strings.Join(e.Valid, ", "))
}

// DefinitionError reports a contract that cannot be matched against, such
// as two arguments sharing a name.
type DefinitionError struct {
	Command string
	Msg     string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("engine: %s: %s", e.Command, e.Msg)
}
