// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "strings"

// HeaderField is a single name/value pair in a [Headers] multimap.
type HeaderField struct {
	Name  string
	Value string
}

// Headers is an ordered, case-insensitive multimap of HTTP header fields.
//
// net/http.Header is a map[string][]string: it canonicalizes names and, by
// being a Go map, makes no promise about iteration order. Spec §3 requires
// insertion order and duplicate values to be preserved on the wire, so
// Headers is a thin ordered slice instead, with case-insensitive lookup
// helpers layered on top.
type Headers []HeaderField

// Add appends a header field, preserving any existing field with the same
// name (case-insensitive).
func (h *Headers) Add(name, value string) {
	*h = append(*h, HeaderField{Name: name, Value: value})
}

// Set replaces every existing field with the given name (case-insensitive)
// with a single field carrying value.
func (h *Headers) Set(name, value string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	out = append(out, HeaderField{Name: name, Value: value})
	*h = out
}

// Get returns the first value for name (case-insensitive), or "" if absent.
func (h Headers) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value for name (case-insensitive), in insertion order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Clone returns an independent copy of h.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	copy(out, h)
	return out
}
