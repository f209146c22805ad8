// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derive

import (
	"errors"
	"fmt"
)

// Declaration problems, wrapped in a *DeclarationError.
var (
	ErrNotUnion         = errors.New("subcommand field must be a union struct")
	ErrNotStruct        = errors.New("flatten field must be a struct")
	ErrEmptyShort       = errors.New("cannot derive a short alias from an empty name")
	ErrBytesParser      = errors.New("bytes parsing needs an explicit function")
	ErrIdentityParser   = errors.New("identity parsing needs a string-convertible type or an explicit function")
	ErrFlagShape        = errors.New("flag and count fields must be single-valued")
	ErrFlagPositional   = errors.New("flag and count fields need a short or long alias")
	ErrArgEnumFlag      = errors.New("arg_enum field must take a value")
	ErrRecursive        = errors.New("schema contains itself")
	ErrDuplicateVariant = errors.New("duplicate subcommand name")
	ErrMultipleExternal = errors.New("more than one external subcommand")
)

// ErrMissingSubcommand is returned when a required sub-action was not
// given.
var ErrMissingSubcommand = errors.New("a subcommand is required")

// DeclarationError reports a schema that cannot be compiled into a valid
// contract. It is fatal for the schema.
type DeclarationError struct {
	Schema string
	Field  string // empty for struct-level problems
	Err    error
}

func (e *DeclarationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("argschema: %s: %v", e.Schema, e.Err)
	}
	return fmt.Sprintf("argschema: %s.%s: %v", e.Schema, e.Field, e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// ValueError is returned when an argument's value cannot be parsed.
type ValueError struct {
	Arg   string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Arg, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// MissingValueError is returned when a required argument has no value.
// Engines enforce requiredness, so this means the contract and the match
// result disagree.
type MissingValueError struct {
	Arg string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("no value for required argument %s", e.Arg)
}

// UnrecognizedSubcommandError is returned when a sub-action name matches
// no variant and the union has no external variant.
type UnrecognizedSubcommandError struct {
	Name string
}

func (e *UnrecognizedSubcommandError) Error() string {
	return fmt.Sprintf("unrecognized subcommand %q", e.Name)
}
