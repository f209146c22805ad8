// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env converts between matched arguments and environment files,
// so a command line can be saved and replayed through env fallbacks.
package env

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/yeetrun/argschema/pkg/contract"
)

// Vars returns the environment form of the arguments in m that have an
// Env name. Flags that are present become "true". Value arguments are
// included only when they hold exactly one value, since a fallback can
// supply no more than that.
func Vars(args []*contract.ArgumentDescriptor, m contract.Matches) map[string]string {
	vars := make(map[string]string)
	for _, d := range args {
		if d.Env == "" || !m.IsPresent(d.Name) {
			continue
		}
		if !d.TakesValue {
			if !d.Occurrences {
				vars[d.Env] = "true"
			}
			continue
		}
		vals, ok := m.ValuesOf(d.Name)
		if !ok || len(vals) != 1 {
			continue
		}
		vars[d.Env] = vals[0]
	}
	return vars
}

// Write writes vars to the environment file name. Every value is written
// in a form that Load reads back unchanged; values with no such form are
// an error.
func Write(name string, vars map[string]string) error {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		line, err := render(k, vars[k])
		if err != nil {
			return fmt.Errorf("failed to write env file: %w", err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(name, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

// render returns the line for key=value. godotenv's double-quoted form
// loses quotes at either end of a value, so single quotes, which are read
// literally, are tried next.
func render(key, value string) (string, error) {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return "", err
	}
	for _, l := range []string{line, key + "='" + value + "'"} {
		got, err := godotenv.Unmarshal(l)
		if err == nil && len(got) == 1 && got[key] == value {
			return l, nil
		}
	}
	return "", fmt.Errorf("value of %s cannot be stored: %q", key, value)
}

// Load reads the environment files names, later files winning.
func Load(names ...string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, name := range names {
		m, err := godotenv.Read(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		maps.Copy(vars, m)
	}
	return vars, nil
}

// Lookup returns a lookup function that consults vars before next.
// A nil next ends the chain.
func Lookup(vars map[string]string, next func(string) (string, bool)) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := vars[key]; ok {
			return v, true
		}
		if next == nil {
			return "", false
		}
		return next(key)
	}
}
