// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package argschema parses command lines into tagged Go structs.
//
//	type options struct {
//		schema.Args `about:"Copies files"`
//		Verbose int    `short:"" parse:"count"`
//		Output  string `short:"o" long:"" default:"-"`
//		Input   []string
//	}
//
//	opts, err := argschema.Parse[options](os.Args[1:])
//
// Parse, New and Parser tie a derive.Compiler to a matching engine. The
// built-in engine is used unless Options.NewEngine says otherwise.
package argschema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/derive"
	"github.com/yeetrun/argschema/pkg/engine"
	"tailscale.com/types/lazy"
	"tailscale.com/types/logger"
)

// Engine is a contract that can match a command line.
type Engine interface {
	contract.Contract
	Match(args []string) (*engine.Matches, error)
}

// Options configure a Parser. The zero value is ready to use.
type Options struct {
	// Name is the program name shown in usage. It defaults to the base
	// name of os.Args[0].
	Name string

	// Compiler compiles the schema. If nil, the package default is used.
	Compiler *derive.Compiler

	// LookupEnv resolves environment fallbacks. If nil, os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Logf receives debug lines from the engine.
	Logf logger.Logf

	// NewEngine returns an empty engine for a root command. If nil, an
	// *engine.Command is used.
	NewEngine func(name string) Engine
}

var defaultCompiler lazy.SyncValue[*derive.Compiler]

// DefaultCompiler returns the compiler used when Options.Compiler is nil.
// It shares intern.Shared with every other default-configured compiler.
func DefaultCompiler() *derive.Compiler {
	return defaultCompiler.Get(func() *derive.Compiler {
		return &derive.Compiler{}
	})
}

// Parser parses command lines into values of T.
type Parser[T any] struct {
	opts Options
	args *derive.Args

	mu  sync.Mutex // guards matching on eng and upd
	eng Engine
	upd lazy.SyncValue[Engine]
}

// New compiles T and registers it with a fresh engine.
func New[T any](opts Options) (*Parser[T], error) {
	if opts.Name == "" {
		opts.Name = filepath.Base(os.Args[0])
	}
	if opts.Compiler == nil {
		opts.Compiler = DefaultCompiler()
	}
	a, err := opts.Compiler.Args(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	p := &Parser[T]{opts: opts, args: a}
	p.eng = p.newEngine()
	if err := a.Augment(p.eng, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser[T]) newEngine() Engine {
	if p.opts.NewEngine != nil {
		return p.opts.NewEngine(p.opts.Name)
	}
	c := engine.New(p.opts.Name)
	c.LookupEnv = p.opts.LookupEnv
	c.Logf = p.opts.Logf
	return c
}

// Engine returns the engine T was registered with.
func (p *Parser[T]) Engine() Engine { return p.eng }

// Parse matches args, which should not include the program name, and
// builds a new T from the result.
func (p *Parser[T]) Parse(args []string) (T, error) {
	v, _, err := p.ParseMatches(args)
	return v, err
}

// ParseMatches is like Parse but also returns what the engine matched.
func (p *Parser[T]) ParseMatches(args []string) (T, *engine.Matches, error) {
	var zero T
	p.mu.Lock()
	m, err := p.eng.Match(args)
	p.mu.Unlock()
	if err != nil {
		return zero, nil, err
	}
	v, err := p.args.Build(m, nil)
	if err != nil {
		return zero, m, err
	}
	return v.Interface().(T), m, nil
}

// Update matches args against a contract in which nothing is required and
// overwrites the parts of *dst that args mention.
func (p *Parser[T]) Update(dst *T, args []string) error {
	eng, err := p.upd.GetErr(func() (Engine, error) {
		e := p.newEngine()
		if err := p.args.AugmentForUpdate(e, nil); err != nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		return err
	}
	p.mu.Lock()
	m, err := eng.Match(args)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.args.Update(reflect.ValueOf(dst), m, nil)
}

// Descriptors returns the root-level arguments T registers.
func (p *Parser[T]) Descriptors() ([]*contract.ArgumentDescriptor, error) {
	return p.args.Descriptors(nil)
}

// Usage returns the help text of the root command, if the engine renders
// one.
func (p *Parser[T]) Usage() string {
	if u, ok := p.eng.(interface{ Usage() string }); ok {
		return u.Usage()
	}
	return ""
}

// Parse parses args into a new T with default options.
func Parse[T any](args []string) (T, error) {
	p, err := New[T](Options{})
	if err != nil {
		var zero T
		return zero, err
	}
	return p.Parse(args)
}

// Update parses args onto *dst with default options.
func Update[T any](dst *T, args []string) error {
	p, err := New[T](Options{})
	if err != nil {
		return err
	}
	return p.Update(dst, args)
}

// MustParse parses os.Args[1:] into a new T. On a help request it writes
// usage to stdout and exits 0; on any other error it writes the error to
// stderr and exits 2. A schema that fails to compile panics.
func MustParse[T any]() T {
	p, err := New[T](Options{})
	if err != nil {
		panic(err)
	}
	v, err := p.Parse(os.Args[1:])
	if err != nil {
		os.Exit(Report(os.Stdout, os.Stderr, err))
	}
	return v
}

// Report writes err the way a command-line program should and returns the
// exit code to use. Help requests go to stdout; everything else goes to
// stderr.
func Report(stdout, stderr io.Writer, err error) int {
	var he *engine.HelpError
	switch {
	case errors.As(err, &he):
		fmt.Fprint(stdout, he.Command.Usage())
		return 0
	case errors.Is(err, engine.ErrHelp):
		// The engine already printed its help.
		return 0
	}
	var de *derive.DeclarationError
	if errors.As(err, &de) {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 2
}
