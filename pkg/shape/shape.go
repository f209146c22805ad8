// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shape classifies the optional/repeated nesting of a field type.
//
// A pointer is an Optional wrapper and a slice is a Repeated wrapper. Only
// five nestings are accepted:
//
//	T      Scalar
//	*T     Optional
//	**T    OptionalOptional
//	[]T    Repeated
//	*[]T   OptionalRepeated
//
// A field declared as a plain bool is always Bool.
package shape

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
)

// Shape is the wrapper-nesting classification of a field type.
type Shape int

const (
	Scalar Shape = iota
	Bool
	Optional
	OptionalOptional
	Repeated
	OptionalRepeated
)

var shapeNames = [...]string{
	Scalar:           "scalar",
	Bool:             "bool",
	Optional:         "optional",
	OptionalOptional: "optional-optional",
	Repeated:         "repeated",
	OptionalRepeated: "optional-repeated",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// Multiple reports whether s holds any number of values.
func (s Shape) Multiple() bool {
	return s == Repeated || s == OptionalRepeated
}

// MaxPeel bounds the number of wrappers Resolve removes before giving up.
// It only matters for self-referential types such as `type loop *loop`.
const MaxPeel = 100

// MalformedTypeError is returned when a type's wrapper sequence is not one
// of the accepted shapes.
type MalformedTypeError struct {
	Type     reflect.Type
	Wrappers string // peeled wrapper kinds, outermost first, e.g. "[][]"
}

func (e *MalformedTypeError) Error() string {
	if len(e.Wrappers) >= MaxPeel {
		return fmt.Sprintf("malformed type %v: more than %d nested wrappers", e.Type, MaxPeel)
	}
	return fmt.Sprintf("malformed type %v: unsupported wrapper nesting %q", e.Type, e.Wrappers)
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// leaf reports whether t parses itself from text and must not be peeled.
// net.IP is the canonical case: a []byte that is a single value.
func leaf(t reflect.Type) bool {
	return t.Implements(textUnmarshalerType) && t.Kind() != reflect.Pointer ||
		t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// Resolve classifies t and returns its innermost type.
func Resolve(t reflect.Type) (Shape, reflect.Type, error) {
	if t == nil {
		return 0, nil, fmt.Errorf("shape: nil type")
	}
	if t.Kind() == reflect.Bool {
		return Bool, t, nil
	}
	var wrappers strings.Builder
	inner := t
	for range MaxPeel {
		if leaf(inner) {
			break
		}
		switch inner.Kind() {
		case reflect.Pointer:
			wrappers.WriteByte('*')
		case reflect.Slice:
			wrappers.WriteString("[]")
		default:
			return classify(t, inner, wrappers.String())
		}
		inner = inner.Elem()
	}
	if k := inner.Kind(); (k == reflect.Pointer || k == reflect.Slice) && !leaf(inner) {
		return 0, nil, &MalformedTypeError{Type: t, Wrappers: wrappers.String()}
	}
	return classify(t, inner, wrappers.String())
}

func classify(t, inner reflect.Type, wrappers string) (Shape, reflect.Type, error) {
	switch wrappers {
	case "":
		return Scalar, inner, nil
	case "*":
		return Optional, inner, nil
	case "**":
		return OptionalOptional, inner, nil
	case "[]":
		return Repeated, inner, nil
	case "*[]":
		return OptionalRepeated, inner, nil
	}
	return 0, nil, &MalformedTypeError{Type: t, Wrappers: wrappers}
}
