// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/argschema/pkg/contract"
	"github.com/yeetrun/argschema/pkg/engine"
)

func testCommand() *engine.Command {
	c := engine.New("tool")
	c.LookupEnv = func(string) (string, bool) { return "", false }
	c.WithArgument(&contract.ArgumentDescriptor{Name: "name", Long: "name", Env: "TOOL_NAME", TakesValue: true, Cardinality: contract.OptionalSingle})
	c.WithArgument(&contract.ArgumentDescriptor{Name: "dry-run", Long: "dry-run", Env: "TOOL_DRY_RUN", Cardinality: contract.Single})
	c.WithArgument(&contract.ArgumentDescriptor{Name: "verbose", Short: 'v', Env: "TOOL_VERBOSE", Occurrences: true, Cardinality: contract.Single})
	c.WithArgument(&contract.ArgumentDescriptor{Name: "tags", Long: "tag", Env: "TOOL_TAGS", TakesValue: true, Cardinality: contract.Repeated})
	c.WithArgument(&contract.ArgumentDescriptor{Name: "out", Long: "out", TakesValue: true, Cardinality: contract.OptionalSingle})
	return c
}

func TestVars(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]string
	}{
		{"empty", nil, map[string]string{}},
		{
			name: "values",
			args: []string{"--name", "a b", "--dry-run", "-vv", "--tag", "x", "--out", "o"},
			want: map[string]string{"TOOL_NAME": "a b", "TOOL_DRY_RUN": "true", "TOOL_TAGS": "x"},
		},
		{
			name: "repeated",
			args: []string{"--tag", "x", "--tag", "y"},
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCommand()
			m, err := c.Match(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			got := Vars(c.Args(), m)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Vars mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	c := testCommand()
	m, err := c.Match([]string{"--name", "quoted \"value\"", "--dry-run"})
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Join(t.TempDir(), "tool.env")
	if err := Write(name, Vars(c.Args(), m)); err != nil {
		t.Fatal(err)
	}

	vars, err := Load(name)
	if err != nil {
		t.Fatal(err)
	}
	replay := testCommand()
	replay.LookupEnv = Lookup(vars, nil)
	m2, err := replay.Match(nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m2.ValueOf("name"); v != `quoted "value"` {
		t.Errorf("name = %q, want %q", v, `quoted "value"`)
	}
	if !m2.IsPresent("dry-run") {
		t.Error("dry-run not replayed")
	}
	if a, _ := m2.Lookup("name"); a.Source != engine.FromEnv {
		t.Errorf("name source = %v, want env", a.Source)
	}
}

func TestWriteValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"plain", "hello"},
		{"number", "64"},
		{"leading-zero", "007"},
		{"space", "a b"},
		{"empty", ""},
		{"double-quotes", `quoted "value"`},
		{"leading-quote", `"x`},
		{"backslash", `C:\tools\bin`},
		{"single-quote", "it's"},
		{"dollar", "$HOME/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := filepath.Join(t.TempDir(), "v.env")
			if err := Write(name, map[string]string{"V": tt.value}); err != nil {
				t.Fatal(err)
			}
			got, err := Load(name)
			if err != nil {
				t.Fatal(err)
			}
			if got["V"] != tt.value {
				t.Errorf("V = %q, want %q", got["V"], tt.value)
			}
		})
	}
}

func TestWriteUnstorable(t *testing.T) {
	name := filepath.Join(t.TempDir(), "v.env")
	if err := Write(name, map[string]string{"V": `trailing\`}); err == nil {
		t.Errorf("Write of a value ending in a backslash succeeded")
	}
}

func TestLoadOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.env")
	b := filepath.Join(dir, "b.env")
	if err := os.WriteFile(a, []byte("X=1\nY=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("# override\nY=2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := Load(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"X": "1", "Y": "2"}, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
	if _, err := Load(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestLookup(t *testing.T) {
	next := func(k string) (string, bool) {
		if k == "B" {
			return "next", true
		}
		return "", false
	}
	l := Lookup(map[string]string{"A": "vars", "B": "vars"}, next)
	if v, ok := l("A"); !ok || v != "vars" {
		t.Errorf("A = %q, %v", v, ok)
	}
	if v, _ := l("B"); v != "vars" {
		t.Errorf("B = %q, want vars", v)
	}
	if _, ok := l("C"); ok {
		t.Error("C found")
	}
	if v, _ := Lookup(nil, next)("B"); v != "next" {
		t.Errorf("B via next = %q, want next", v)
	}
}
