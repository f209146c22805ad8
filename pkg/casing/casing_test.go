// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package casing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"name", []string{"name"}},
		{"HTTPPort", []string{"HTTP", "Port"}},
		{"httpPort", []string{"http", "Port"}},
		{"prefix0_name", []string{"prefix", "0", "name"}},
		{"Variant0", []string{"Variant", "0"}},
		{"SkipMe", []string{"Skip", "Me"}},
		{"  dashed--and.dotted ", []string{"dashed", "and", "dotted"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Words(tt.in)); diff != "" {
				t.Errorf("Words(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestCast(t *testing.T) {
	tests := []struct {
		in   string
		c    Casing
		want string
	}{
		{"retry_count", Camel, "retryCount"},
		{"retry_count", Kebab, "retry-count"},
		{"retry_count", Pascal, "RetryCount"},
		{"retry_count", ScreamingSnake, "RETRY_COUNT"},
		{"RetryCount", Snake, "retry_count"},
		{"Variant0", Lower, "variant0"},
		{"Variant0", Upper, "VARIANT0"},
		{"Weird_Name", Verbatim, "Weird_Name"},
		{"Weird_Name", Default, "Weird_Name"},
		{"HTTPPort", Kebab, "http-port"},
		{"HTTPPort", Camel, "httpPort"},
		{"SkipMe", Kebab, "skip-me"},
		{"prefix0_name", Kebab, "prefix-0-name"},
		{"prefix0_name", ScreamingSnake, "PREFIX_0_NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.in+"/"+tt.c.String(), func(t *testing.T) {
			if got := Cast(tt.in, tt.c); got != tt.want {
				t.Errorf("Cast(%q, %v) = %q, want %q", tt.in, tt.c, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	for c := Default; c <= Verbatim; c++ {
		got, err := Parse(c.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.String(), err)
		}
		if got != c {
			t.Errorf("Parse(%q) = %v, want %v", c.String(), got, c)
		}
	}
	if _, err := Parse("shouting"); err == nil {
		t.Error("Parse(shouting) succeeded, want error")
	}

	var c Casing
	if err := c.UnmarshalText([]byte("kebab")); err != nil || c != Kebab {
		t.Errorf("UnmarshalText(kebab) = %v, %v", c, err)
	}
}

func TestPoliciesOr(t *testing.T) {
	got := Policies{Env: Snake}.Or(DefaultPolicies)
	want := Policies{Name: Kebab, Env: Snake, Value: ScreamingSnake}
	if got != want {
		t.Errorf("Or = %+v, want %+v", got, want)
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		prefix Prefix
		leaf   string
		c      Casing
		want   string
	}{
		{nil, "name", Kebab, "name"},
		{Prefix{"prefix0"}, "name", Kebab, "prefix-0-name"},
		{Prefix{"prefix1"}, "name", ScreamingSnake, "PREFIX_1_NAME"},
		{Prefix{"db", "primary"}, "hostName", Kebab, "db-primary-host-name"},
		{Prefix{"db"}, "host", Verbatim, "db_host"},
		{Prefix{"d", "b"}, "host", Verbatim, "d-b_host"},
		{Prefix{"d"}, "b_host", Verbatim, "d_b_host"},
	}
	for _, tt := range tests {
		if got := Compose(tt.prefix, tt.leaf, tt.c); got != tt.want {
			t.Errorf("Compose(%q, %q, %v) = %q, want %q", tt.prefix, tt.leaf, tt.c, got, tt.want)
		}
		if again := Compose(tt.prefix, tt.leaf, tt.c); again != tt.want {
			t.Errorf("Compose not deterministic: %q then %q", tt.want, again)
		}
	}
}

func TestAttach(t *testing.T) {
	labels := []string{"prefix0", "prefix1"}
	tests := []struct {
		name     string
		ancestor Prefix
		label    string
		declared []string
		want     Prefix
		wantErr  bool
	}{
		{"inherit keeps ancestor", Prefix{"a"}, "", nil, Prefix{"a"}, false},
		{"label appends", Prefix{"a"}, "b", nil, Prefix{"a", "b"}, false},
		{"declared label", nil, "prefix0", labels, Prefix{"prefix0"}, false},
		{"declared label from ancestor", Prefix{"prefix1"}, "", labels, Prefix{"prefix1"}, false},
		{"root falls through", nil, "", labels, nil, false},
		{"undeclared label", nil, "prefix2", labels, nil, true},
		{"undeclared ancestor", Prefix{"other"}, "", labels, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Attach(tt.ancestor, tt.label, "Test", tt.declared)
			if tt.wantErr {
				var lErr *PrefixLabelError
				if !errors.As(err, &lErr) {
					t.Fatalf("Attach error = %v, want *PrefixLabelError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Attach: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Attach mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithDoesNotAlias(t *testing.T) {
	base := make(Prefix, 1, 4)
	base[0] = "a"
	x := base.With("x")
	y := base.With("y")
	if x.String() != "a-x" || y.String() != "a-y" {
		t.Errorf("With aliased: x=%q y=%q", x, y)
	}
}
