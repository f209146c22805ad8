// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derive

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/schema"
	"tailscale.com/types/ptr"
)

type firstArgs struct {
	Arg *string `long:""`
}

type command struct {
	schema.Args `about:"Tool"`

	First  *firstArgs
	Second *struct {
		Embedded *string `long:""`
	} `name:"2nd" about:"Second command"`
	SkipMe   *struct{} `skip:""`
	Status   *struct{}
	External []string `external:""`
}

type root struct {
	Verbose bool    `short:""`
	Cmd     command `subcommand:""`
}

func TestDispatch(t *testing.T) {
	sc, err := NewCompiler(nil).Subcommands(reflect.TypeFor[command]())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"first", "2nd", "status"}, sc.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
	for name, want := range map[string]bool{"first": true, "2nd": true, "second": false, "skip-me": false, "external": false} {
		if got := sc.HasAction(name); got != want {
			t.Errorf("HasAction(%q) = %v, want %v", name, got, want)
		}
	}

	tests := []struct {
		name    string
		m       *fakeMatches
		want    command
		wantErr error
	}{
		{
			name: "newtype",
			m:    &fakeMatches{action: "first", sub: &fakeMatches{values: map[string][]string{"arg": {"thing"}}}},
			want: command{First: &firstArgs{Arg: ptr.To("thing")}},
		},
		{
			name: "fields",
			m:    &fakeMatches{action: "2nd", sub: &fakeMatches{values: map[string][]string{"embedded": {"yes"}}}},
			want: command{Second: &struct {
				Embedded *string `long:""`
			}{Embedded: ptr.To("yes")}},
		},
		{
			name: "empty",
			m:    &fakeMatches{action: "status"},
			want: command{Status: &struct{}{}},
		},
		{
			name: "external",
			m: &fakeMatches{action: "other", sub: &fakeMatches{values: map[string][]string{
				contract.ExternalArgs: {"--flag", "x"},
			}}},
			want: command{External: []string{"other", "--flag", "x"}},
		},
		{
			name:    "skipped",
			m:       &fakeMatches{action: "skip-me"},
			wantErr: &UnrecognizedSubcommandError{Name: "skip-me"},
		},
		{
			name:    "none",
			m:       &fakeMatches{},
			wantErr: ErrMissingSubcommand,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := sc.Build(tt.m, nil)
			if tt.wantErr != nil {
				if err == nil || err.Error() != tt.wantErr.Error() {
					t.Fatalf("Build error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, v.Interface().(command)); diff != "" {
				t.Errorf("Build mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type closedCommand struct {
	Start *struct{}
	Stop  *struct{}
}

func TestUnrecognized(t *testing.T) {
	sc, err := NewCompiler(nil).Subcommands(reflect.TypeFor[closedCommand]())
	if err != nil {
		t.Fatal(err)
	}
	_, err = sc.Build(&fakeMatches{action: "restart"}, nil)
	var ue *UnrecognizedSubcommandError
	if !errors.As(err, &ue) || ue.Name != "restart" {
		t.Errorf("Build error = %v, want unrecognized restart", err)
	}
}

func TestSubcommandAugment(t *testing.T) {
	a, err := NewCompiler(nil).Args(reflect.TypeFor[root]())
	if err != nil {
		t.Fatal(err)
	}
	tr := &tree{}
	if err := a.Augment(tr, nil); err != nil {
		t.Fatal(err)
	}
	if !tr.SubRequired {
		t.Errorf("sub-action not required")
	}
	if !tr.External {
		t.Errorf("external sub-actions not allowed")
	}
	var names []string
	for _, s := range tr.Subs {
		names = append(names, s.Spec.Name)
	}
	if diff := cmp.Diff([]string{"first", "2nd", "status", "external"}, names); diff != "" {
		t.Errorf("sub-actions (-want +got):\n%s", diff)
	}
	if tr.Subs[3].Spec.External != true {
		t.Errorf("external variant not flagged")
	}
	if got := tr.Subs[1].Spec.Meta.About; got != "Second command" {
		t.Errorf("2nd about = %q, want %q", got, "Second command")
	}
	if tr.sub("first").arg("arg") == nil {
		t.Errorf("first has no arg argument")
	}
	if tr.sub("2nd").arg("embedded") == nil {
		t.Errorf("2nd has no embedded argument")
	}

	upd := &tree{}
	if err := a.AugmentForUpdate(upd, nil); err != nil {
		t.Fatal(err)
	}
	if upd.SubRequired {
		t.Errorf("AugmentForUpdate requires a sub-action")
	}
}

func TestSubcommandUpdate(t *testing.T) {
	a, err := NewCompiler(nil).Args(reflect.TypeFor[root]())
	if err != nil {
		t.Fatal(err)
	}
	sc, err := NewCompiler(nil).Subcommands(reflect.TypeFor[command]())
	if err != nil {
		t.Fatal(err)
	}

	orig := &firstArgs{Arg: ptr.To("old")}
	dst := root{Cmd: command{First: orig}}

	// Same variant: updated in place.
	m := &fakeMatches{action: "first", sub: &fakeMatches{values: map[string][]string{"arg": {"new"}}}}
	if err := a.Update(reflect.ValueOf(&dst), m, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Cmd.First != orig || *orig.Arg != "new" {
		t.Errorf("in-place update: First = %p (%v), want %p with new", dst.Cmd.First, dst.Cmd.First.Arg, orig)
	}
	if name, ok := sc.Current(reflect.ValueOf(dst.Cmd)); !ok || name != "first" {
		t.Errorf("Current = %q, %v, want first", name, ok)
	}

	// Same variant, argument not mentioned: kept.
	if err := a.Update(reflect.ValueOf(&dst), &fakeMatches{action: "first"}, nil); err != nil {
		t.Fatal(err)
	}
	if *dst.Cmd.First.Arg != "new" {
		t.Errorf("unmentioned argument overwritten: %v", *dst.Cmd.First.Arg)
	}

	// No sub-action: nothing changes.
	if err := a.Update(reflect.ValueOf(&dst), &fakeMatches{counts: map[string]int{"verbose": 1}}, nil); err != nil {
		t.Fatal(err)
	}
	if !dst.Verbose || dst.Cmd.First != orig {
		t.Errorf("update without sub-action = %+v", dst)
	}

	// Other variant: replaced.
	m = &fakeMatches{action: "2nd", sub: &fakeMatches{values: map[string][]string{"embedded": {"yes"}}}}
	if err := a.Update(reflect.ValueOf(&dst), m, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Cmd.First != nil {
		t.Errorf("First still set after switching variants")
	}
	if dst.Cmd.Second == nil || *dst.Cmd.Second.Embedded != "yes" {
		t.Errorf("Second = %+v, want embedded yes", dst.Cmd.Second)
	}

	// External: replaced with the captured tokens.
	m = &fakeMatches{action: "misc", sub: &fakeMatches{values: map[string][]string{contract.ExternalArgs: {"a"}}}}
	if err := a.Update(reflect.ValueOf(&dst), m, nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(command{External: []string{"misc", "a"}}, dst.Cmd); diff != "" {
		t.Errorf("external update (-want +got):\n%s", diff)
	}
	if name, ok := sc.Current(reflect.ValueOf(&dst.Cmd)); !ok || name != "misc" {
		t.Errorf("Current = %q, %v, want misc", name, ok)
	}
}

type (
	dupNames struct {
		A *struct{} `name:"x"`
		B *struct{} `name:"x"`
	}
	twoExternals struct {
		A []string `external:""`
		B []string `external:""`
	}
	recUnion struct {
		Again *recArgs
	}
	recArgs struct {
		Cmd recUnion `subcommand:""`
	}
	skipShadow struct {
		A *struct{} `name:"x" skip:""`
		B *struct{} `name:"x"`
	}
)

func TestUnionDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want error
	}{
		{"duplicate", reflect.TypeFor[dupNames](), ErrDuplicateVariant},
		{"two-externals", reflect.TypeFor[twoExternals](), ErrMultipleExternal},
		{"recursive", reflect.TypeFor[recUnion](), ErrRecursive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompiler(nil).Subcommands(tt.typ)
			if !errors.Is(err, tt.want) {
				t.Errorf("Subcommands error = %v, want %v", err, tt.want)
			}
		})
	}

	// A skipped variant does not collide with a visible one.
	if _, err := NewCompiler(nil).Subcommands(reflect.TypeFor[skipShadow]()); err != nil {
		t.Errorf("skipShadow: %v", err)
	}
}
