// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package intern memoizes composed argument names so every lookup for the
// same schema, role, prefix and casing returns the same string.
package intern

import (
	"fmt"

	"github.com/yeetrun/argschema/pkg/casing"
	"tailscale.com/syncs"
	"tailscale.com/types/lazy"
)

// Role is what a composed name is used for.
type Role uint8

const (
	RoleName    Role = iota // canonical argument id
	RoleLong                // --long alias
	RoleEnv                 // environment variable
	RoleValue               // value placeholder
	RoleVariant             // subcommand display name
	RoleEnum                // arg-enum display string
)

func (r Role) String() string {
	switch r {
	case RoleName:
		return "name"
	case RoleLong:
		return "long"
	case RoleEnv:
		return "env"
	case RoleValue:
		return "value"
	case RoleVariant:
		return "variant"
	case RoleEnum:
		return "enum"
	}
	return fmt.Sprintf("Role(%d)", r)
}

// Key identifies one composed name.
type Key struct {
	Role   Role
	Schema string // owning schema identifier
	Name   string // raw leaf name
	Prefix string // joined prefix fragments
	Casing casing.Casing
}

// Cache is a concurrency-safe name cache. Entries are never evicted; names
// derive from immutable schema data. The zero value is ready to use.
type Cache struct {
	m syncs.Map[Key, string]
}

// New returns an empty Cache.
func New() *Cache {
	return new(Cache)
}

// Name returns the composed name for (role, schema, name, prefix, c),
// computing it on first use.
func (c *Cache) Name(role Role, schema, name string, p casing.Prefix, cs casing.Casing) string {
	k := Key{Role: role, Schema: schema, Name: name, Prefix: p.String(), Casing: cs}
	v, _ := c.m.LoadOrInit(k, func() string {
		return casing.Compose(p, name, cs)
	})
	return v
}

// Lookup returns the cached value for k, if any.
func (c *Cache) Lookup(k Key) (string, bool) {
	return c.m.Load(k)
}

// Len reports the number of cached names.
func (c *Cache) Len() int {
	return c.m.Len()
}

var shared lazy.SyncValue[*Cache]

// Shared returns the process-wide cache used by callers that do not bring
// their own.
func Shared() *Cache {
	return shared.Get(New)
}
