// SPDX-License-Identifier: MIT

// Package model holds the canonical entities shared by providers, the cache,
// and the optimizer: titles, availability, the service catalog, and the
// optimization request/response pair.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TitleIDKind discriminates the two id spaces a TitleID can carry.
type TitleIDKind int

const (
	// TitleIDImdb is an externally stable IMDB identifier (tt\d+).
	TitleIDImdb TitleIDKind = iota
	// TitleIDNative is a provider-proprietary numeric identifier.
	TitleIDNative
)

// TitleID is a discriminated union over the two id spaces providers use.
// It is comparable (usable as a map key) and its String form is the
// canonical cache-key fragment for both id spaces.
type TitleID struct {
	Kind   TitleIDKind
	Imdb   string
	Native uint64
}

// Imdb constructs an externally stable IMDB-id TitleID.
func Imdb(id string) TitleID {
	return TitleID{Kind: TitleIDImdb, Imdb: id}
}

// Native constructs a provider-native numeric TitleID.
func Native(id uint64) TitleID {
	return TitleID{Kind: TitleIDNative, Native: id}
}

// IsImdb reports whether this id is in the IMDB id space.
func (t TitleID) IsImdb() bool { return t.Kind == TitleIDImdb }

// IsNative reports whether this id is in the provider-native id space.
func (t TitleID) IsNative() bool { return t.Kind == TitleIDNative }

// String renders the id's inner value — used as the cache-key fragment
// everywhere a TitleID needs to become a string.
func (t TitleID) String() string {
	switch t.Kind {
	case TitleIDImdb:
		return t.Imdb
	case TitleIDNative:
		return strconv.FormatUint(t.Native, 10)
	default:
		return ""
	}
}

type titleIDWire struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders the id as a discriminated object: {"kind":"imdb","value":"tt123"}
// or {"kind":"native","value":123}.
func (t TitleID) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TitleIDImdb:
		value, err := json.Marshal(t.Imdb)
		if err != nil {
			return nil, err
		}
		return json.Marshal(titleIDWire{Kind: "imdb", Value: value})
	case TitleIDNative:
		value, err := json.Marshal(t.Native)
		if err != nil {
			return nil, err
		}
		return json.Marshal(titleIDWire{Kind: "native", Value: value})
	default:
		return nil, fmt.Errorf("model: unknown TitleID kind %d", t.Kind)
	}
}

// UnmarshalJSON parses the discriminated object form produced by MarshalJSON.
func (t *TitleID) UnmarshalJSON(data []byte) error {
	var wire titleIDWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Kind {
	case "imdb":
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("model: imdb TitleID value: %w", err)
		}
		*t = Imdb(s)
		return nil
	case "native":
		var n uint64
		if err := json.Unmarshal(wire.Value, &n); err != nil {
			return fmt.Errorf("model: native TitleID value: %w", err)
		}
		*t = Native(n)
		return nil
	default:
		return fmt.Errorf("model: unknown TitleID kind %q", wire.Kind)
	}
}
