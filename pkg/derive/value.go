// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derive

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/yeetrun/argschema/pkg/schema"
)

// parser converts one argument value into a value of the field's innermost
// type.
type parser func(s string) (reflect.Value, error)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	durationType        = reflect.TypeFor[time.Duration]()
	urlType             = reflect.TypeFor[url.URL]()
	stringType          = reflect.TypeFor[string]()
	intType             = reflect.TypeFor[int]()
)

// textParser returns the default fallible parser for t.
func textParser(t reflect.Type) (parser, error) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(s string) (reflect.Value, error) {
			v := reflect.New(t)
			if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, err
			}
			return v.Elem(), nil
		}, nil
	}

	switch t {
	case durationType:
		return func(s string) (reflect.Value, error) {
			d, err := time.ParseDuration(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid duration %q: %w", s, err)
			}
			return reflect.ValueOf(d), nil
		}, nil
	case urlType:
		return func(s string) (reflect.Value, error) {
			u, err := url.Parse(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid URL %q: %w", s, err)
			}
			return reflect.ValueOf(*u), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return func(s string) (reflect.Value, error) {
			return reflect.ValueOf(s).Convert(t), nil
		}, nil

	case reflect.Bool:
		return func(s string) (reflect.Value, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid bool value %q: %w", s, err)
			}
			return reflect.ValueOf(b).Convert(t), nil
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(s string) (reflect.Value, error) {
			i, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid int value %q: %w", s, err)
			}
			v := reflect.New(t).Elem()
			v.SetInt(i)
			return v, nil
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(s string) (reflect.Value, error) {
			u, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid uint value %q: %w", s, err)
			}
			v := reflect.New(t).Elem()
			v.SetUint(u)
			return v, nil
		}, nil

	case reflect.Float32, reflect.Float64:
		return func(s string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid float value %q: %w", s, err)
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v, nil
		}, nil

	default:
		return nil, fmt.Errorf("unsupported field type %s", t)
	}
}

// identityParser converts the text without failing.
func identityParser(t reflect.Type) (parser, error) {
	if !stringType.ConvertibleTo(t) {
		return nil, fmt.Errorf("%w: %v", ErrIdentityParser, t)
	}
	return func(s string) (reflect.Value, error) {
		return reflect.ValueOf(s).Convert(t), nil
	}, nil
}

// assign converts the result of an explicit parse function to t.
func assign(v any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return reflect.Zero(t), nil
	case rv.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	case rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("parser returned %v, want %v", rv.Type(), t)
}

// newParser returns the parser for a value-taking field whose innermost
// type is t.
func newParser(p schema.ParseStrategy, t reflect.Type) (parser, error) {
	switch p.Kind {
	case schema.ParseIdentity:
		if p.Func == nil {
			return identityParser(t)
		}
		fallthrough
	case schema.ParseString:
		if p.Func == nil {
			return textParser(t)
		}
		fn := p.Func
		return func(s string) (reflect.Value, error) {
			v, err := fn(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return assign(v, t)
		}, nil
	case schema.ParseBytes:
		if p.Bytes == nil {
			return nil, ErrBytesParser
		}
		fn := p.Bytes
		return func(s string) (reflect.Value, error) {
			v, err := fn([]byte(s))
			if err != nil {
				return reflect.Value{}, err
			}
			return assign(v, t)
		}, nil
	}
	return nil, fmt.Errorf("parse kind %v does not take a value", p.Kind)
}
