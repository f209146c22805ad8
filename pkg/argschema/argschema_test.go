// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argschema

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/argschema/pkg/casing"
	"github.com/yeetrun/argschema/pkg/cobraengine"
	"github.com/yeetrun/argschema/pkg/derive"
	"github.com/yeetrun/argschema/pkg/engine"
	"github.com/yeetrun/argschema/pkg/schema"
	"tailscale.com/types/ptr"
)

type level int

func (level) EnumVariants() []schema.EnumVariant {
	return []schema.EnumVariant{
		{Ident: "Variant0", Value: level(0)},
		{Ident: "Variant1", Value: level(1)},
	}
}

type deploy struct {
	schema.Args `version:"1.2.0" about:"Ships a build"`
	Verbose     int    `short:"" parse:"count" help:"More output"`
	Retries     **int  `long:""`
	Level       level  `long:"" arg_enum:"" ignore_case:"" default:"variant0"`
	Target      string `help:"Where to ship"`
}

func newParser[T any](t *testing.T) *Parser[T] {
	t.Helper()
	p, err := New[T](Options{
		Name:      "tool",
		Compiler:  derive.NewCompiler(nil),
		LookupEnv: func(string) (string, bool) { return "", false },
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseRetries(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want **int
	}{
		{"absent", []string{"prod"}, nil},
		{"bare", []string{"prod", "--retries"}, ptr.To[*int](nil)},
		{"value", []string{"--retries", "3", "prod"}, ptr.To(ptr.To(3))},
		{"equals", []string{"--retries=3", "prod"}, ptr.To(ptr.To(3))},
	}
	p := newParser[deploy](t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got.Retries); diff != "" {
				t.Errorf("Retries mismatch (-want +got):\n%s", diff)
			}
			if got.Target != "prod" {
				t.Errorf("Target = %q, want prod", got.Target)
			}
		})
	}
}

func TestParseEnum(t *testing.T) {
	p := newParser[deploy](t)

	got, err := p.Parse([]string{"prod"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != 0 {
		t.Errorf("default Level = %d, want 0", got.Level)
	}

	got, err = p.Parse([]string{"--level", "VARIANT1", "prod"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != 1 {
		t.Errorf("Level = %d, want 1", got.Level)
	}

	_, err = p.Parse([]string{"--level", "Variant9", "prod"})
	var fe *engine.FlagValueError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want FlagValueError", err)
	}
	if fe.Value != "Variant9" {
		t.Errorf("Value = %q, want Variant9", fe.Value)
	}
}

func TestParseMissing(t *testing.T) {
	p := newParser[deploy](t)
	_, err := p.Parse([]string{"-vv"})
	var me *engine.MissingArgumentError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want MissingArgumentError", err)
	}
}

func TestUpdate(t *testing.T) {
	p := newParser[deploy](t)
	v, err := p.Parse([]string{"-v", "--level", "variant1", "prod"})
	if err != nil {
		t.Fatal(err)
	}
	// Target is required when parsing but not when updating.
	if err := p.Update(&v, []string{"--retries", "2"}); err != nil {
		t.Fatal(err)
	}
	want := deploy{
		Verbose: 1,
		Retries: ptr.To(ptr.To(2)),
		Level:   1,
		Target:  "prod",
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if err := p.Update(&v, []string{"staging"}); err != nil {
		t.Fatal(err)
	}
	if v.Target != "staging" || v.Verbose != 1 {
		t.Errorf("after update = %+v", v)
	}
}

type endpoint struct {
	schema.Args `flatten:"prefix0,prefix1"`
	Name        string `long:"" env:"" default:"localhost"`
}

type proxy struct {
	From endpoint `flatten:"prefix0"`
	To   endpoint `flatten:"prefix1"`
}

func TestFlattenLabels(t *testing.T) {
	p, err := New[proxy](Options{
		Name:     "proxy",
		Compiler: derive.NewCompiler(nil),
		LookupEnv: func(k string) (string, bool) {
			if k == "PREFIX_1_NAME" {
				return "b.example", true
			}
			return "", false
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Parse([]string{"--prefix-0-name", "a.example"})
	if err != nil {
		t.Fatal(err)
	}
	want := proxy{From: endpoint{Name: "a.example"}, To: endpoint{Name: "b.example"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

type misrouted struct {
	Via endpoint `flatten:"prefix2"`
}

func TestFlattenUnknownLabel(t *testing.T) {
	_, err := New[misrouted](Options{Compiler: derive.NewCompiler(nil)})
	var pe *casing.PrefixLabelError
	if !errors.As(err, &pe) {
		t.Fatalf("New error = %v, want PrefixLabelError", err)
	}
}

type firstArgs struct {
	Arg *string `long:""`
}

type action struct {
	First  *firstArgs
	Second *struct {
		Embedded *string `long:""`
	} `name:"2nd"`
	SkipMe   *struct{} `skip:""`
	External []string  `external:""`
}

type cli struct {
	Debug bool   `short:"d" long:""`
	Cmd   action `subcommand:""`
}

func TestDispatch(t *testing.T) {
	engines := map[string]func(string) Engine{
		"builtin": nil,
		"cobra":   func(name string) Engine { return cobraengine.New(name) },
	}
	tests := []struct {
		name    string
		args    []string
		want    action
		wantErr bool
	}{
		{
			name: "first",
			args: []string{"first", "--arg", "thing"},
			want: action{First: &firstArgs{Arg: ptr.To("thing")}},
		},
		{
			name: "2nd",
			args: []string{"2nd", "--embedded", "yes"},
			want: action{Second: &struct {
				Embedded *string `long:""`
			}{Embedded: ptr.To("yes")}},
		},
		{
			name: "external",
			args: []string{"lfs", "pull", "--all"},
			want: action{External: []string{"lfs", "pull", "--all"}},
		},
		{
			name:    "skip-me",
			args:    []string{"skip-me"},
			wantErr: true,
		},
	}
	for ename, newEngine := range engines {
		for _, tt := range tests {
			t.Run(ename+"/"+tt.name, func(t *testing.T) {
				p, err := New[cli](Options{Name: "vcs", NewEngine: newEngine})
				if err != nil {
					t.Fatal(err)
				}
				got, err := p.Parse(tt.args)
				if tt.wantErr {
					var ue *derive.UnrecognizedSubcommandError
					if !errors.As(err, &ue) || ue.Name != tt.name {
						t.Fatalf("error = %v, want UnrecognizedSubcommandError for %s", err, tt.name)
					}
					return
				}
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(tt.want, got.Cmd); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

type showArgs struct {
	Version bool `short:"v" long:""`
}

type showCommand struct {
	Show *showArgs
}

type viewer struct {
	Verbose bool        `short:"v" long:""`
	Cmd     showCommand `subcommand:""`
}

func TestReusedShortAlias(t *testing.T) {
	engines := map[string]func(string) Engine{
		"builtin": nil,
		"cobra":   func(name string) Engine { return cobraengine.New(name) },
	}
	tests := []struct {
		name string
		args []string
		want viewer
	}{
		{"action", []string{"show", "-v"}, viewer{Cmd: showCommand{Show: &showArgs{Version: true}}}},
		{"parent", []string{"-v", "show"}, viewer{Verbose: true, Cmd: showCommand{Show: &showArgs{}}}},
		{"both", []string{"-v", "show", "--version"}, viewer{Verbose: true, Cmd: showCommand{Show: &showArgs{Version: true}}}},
	}
	for ename, newEngine := range engines {
		for _, tt := range tests {
			t.Run(ename+"/"+tt.name, func(t *testing.T) {
				p, err := New[viewer](Options{
					Name:      "view",
					LookupEnv: func(string) (string, bool) { return "", false },
					NewEngine: newEngine,
				})
				if err != nil {
					t.Fatal(err)
				}
				got, err := p.Parse(tt.args)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestReport(t *testing.T) {
	p := newParser[deploy](t)
	_, err := p.Parse([]string{"--help"})
	var stdout, stderr bytes.Buffer
	if code := Report(&stdout, &stderr, err); code != 0 {
		t.Errorf("Report(help) = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "tool 1.2.0\n") || !strings.Contains(stdout.String(), "More output") {
		t.Errorf("usage = %q", stdout.String())
	}
	if stdout.String() != p.Usage() {
		t.Errorf("help output differs from Usage()")
	}

	stdout.Reset()
	_, err = p.Parse([]string{"--bogus", "prod"})
	if code := Report(&stdout, &stderr, err); code != 2 {
		t.Errorf("Report(unknown flag) = %d, want 2", code)
	}
	if want := "error: unknown flag: --bogus\n"; stderr.String() != want {
		t.Errorf("stderr = %q, want %q", stderr.String(), want)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
}

func TestDefaultCompiler(t *testing.T) {
	if DefaultCompiler() != DefaultCompiler() {
		t.Error("DefaultCompiler returned different compilers")
	}
	got, err := Parse[deploy]([]string{"-vvv", "prod"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", got.Verbose)
	}
}
