// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package contract defines the interface between compiled schemas and an
// argument matching engine: the descriptors a schema registers and the
// match results it reads back.
package contract

import (
	"fmt"

	"github.com/yeetrun/argschema/pkg/argenum"
	"github.com/yeetrun/argschema/pkg/schema"
)

// ExternalArgs is the argument name under which the tokens following an
// external sub-action's name are reported by Matches.ValuesOf.
const ExternalArgs = ""

// Cardinality is how many values an argument takes.
type Cardinality int

const (
	Single           Cardinality = iota // exactly one value
	OptionalSingle                      // zero or one occurrence with a value
	OptionalOptional                    // may be given with or without a value
	Repeated                            // any number of values
	OptionalRepeated                    // any number of values; presence is tracked
)

func (c Cardinality) String() string {
	switch c {
	case Single:
		return "single"
	case OptionalSingle:
		return "optional-single"
	case OptionalOptional:
		return "optional-optional-single"
	case Repeated:
		return "repeated"
	case OptionalRepeated:
		return "optional-repeated"
	}
	return fmt.Sprintf("Cardinality(%d)", int(c))
}

// Multiple reports whether the argument may occur more than once.
func (c Cardinality) Multiple() bool {
	return c == Repeated || c == OptionalRepeated
}

// ArgumentDescriptor is one argument registered with a Contract.
type ArgumentDescriptor struct {
	Name  string // canonical id; Matches are queried by it
	Short rune   // 0 if none
	Long  string
	Env   string

	Cardinality Cardinality
	Required    bool
	TakesValue  bool
	Occurrences bool // counting flag: TakesValue is false and every use counts

	ValueName string
	Help      string
	LongHelp  string
	Heading   string
	Default   *string

	// Validate, if set, checks each value before it is accepted.
	Validate func(string) error

	// PossibleValues, if set, restrict the accepted values.
	PossibleValues []argenum.Value
	IgnoreCase     bool
}

// Positional reports whether d is matched by position rather than by flag.
func (d *ArgumentDescriptor) Positional() bool {
	return d.Short == 0 && d.Long == ""
}

// ValueOptional reports whether d may be given without a value.
func (d *ArgumentDescriptor) ValueOptional() bool {
	return d.Cardinality == OptionalOptional
}

// ActionSpec describes a sub-action.
type ActionSpec struct {
	Name string
	Meta schema.Meta

	// External marks the catch-all action that receives unrecognized
	// sub-action names and all of their trailing tokens.
	External bool
}

// Contract collects the arguments and sub-actions of one command.
type Contract interface {
	WithArgument(d *ArgumentDescriptor)
	// WithSubAction registers a sub-action and calls build with its
	// contract.
	WithSubAction(spec ActionSpec, build func(Contract) error) error
	WithHeading(heading string)
	Heading() string
	WithMeta(m schema.Meta)
	// RequireSubAction makes a sub-action mandatory.
	RequireSubAction()
	// AllowExternalSubActions makes unrecognized sub-action names match
	// the External action instead of failing.
	AllowExternalSubActions()
}

// Matches is the result of matching arguments against a Contract.
type Matches interface {
	IsPresent(name string) bool
	ValueOf(name string) (string, bool)
	// ValuesOf reports the values of name in order. ok is true if the
	// argument was given, even without values.
	ValuesOf(name string) (values []string, ok bool)
	Occurrences(name string) int
	// SubAction returns the matched sub-action, if any. For an external
	// action, sub reports the trailing raw tokens under ExternalArgs.
	SubAction() (name string, sub Matches, ok bool)
}
