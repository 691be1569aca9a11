package form

import (
	"fmt"
	"net/url"
	"strings"
)

// Count returns the number of entries in f. When recursive is set,
// entries of nested collections are counted as well.
func Count(f Form, recursive bool) int {
	n := len(f)
	if !recursive {
		return n
	}

	for _, p := range f {
		if nested, ok := p.Value.(Form); ok {
			n += Count(nested, true)
		}
	}

	return n
}

// IsNested reports whether v holds at least one non-empty nested
// collection. Values that can't be normalized are not nested.
func IsNested(v any) bool {
	f, err := Normalize(v)
	if err != nil {
		return false
	}

	return Count(f, false) != Count(f, true)
}

// Encode renders f as a query string joined by sep. Nested collections use
// bracket notation (parent[child]) and empty collections are omitted.
func Encode(f Form, sep string) string {
	var parts []string
	encodeInto(&parts, f, "")
	return strings.Join(parts, sep)
}

func encodeInto(parts *[]string, f Form, prefix string) {
	for _, p := range f {
		key := p.Key
		if prefix != "" {
			key = prefix + "[" + p.Key + "]"
		}

		switch v := p.Value.(type) {
		case string:
			*parts = append(*parts, url.QueryEscape(key)+"="+url.QueryEscape(v))
		case Form:
			encodeInto(parts, v, key)
		}
	}
}

// BuildURL appends params to base as a query string. A string is appended
// verbatim, a mapping is encoded in order. Empty params leave base as is.
func BuildURL(base string, params any) (string, error) {
	switch p := params.(type) {
	case nil:
		return base, nil
	case string:
		if p == "" {
			return base, nil
		}
		return base + "?" + p, nil
	}

	f, err := Normalize(params)
	if err != nil {
		return "", fmt.Errorf("building query: %w", err)
	}

	qs := Encode(f, "&")
	if qs == "" {
		return base, nil
	}

	return base + "?" + qs, nil
}

// BuildBody encodes data as an application/x-www-form-urlencoded body.
//
// Strings and byte slices pass through untouched. A flat mapping is encoded
// field by field, with empty collections sent as empty strings. A nested
// mapping is flattened into key[]=value segments, one per leaf in
// depth-first order, where a leaf inside a collection takes the key of the
// collection holding it.
func BuildBody(data any) (string, error) {
	switch d := data.(type) {
	case nil:
		return "", nil
	case string:
		return d, nil
	case []byte:
		return string(d), nil
	}

	f, err := Normalize(data)
	if err != nil {
		return "", fmt.Errorf("building body: %w", err)
	}

	if Count(f, false) != Count(f, true) {
		return multiQuery(f, "", false), nil
	}

	flat := make(Form, len(f))
	for i, p := range f {
		if _, ok := p.Value.(Form); ok {
			p.Value = ""
		}
		flat[i] = p
	}

	return Encode(flat, "&"), nil
}

func multiQuery(f Form, key string, inherit bool) string {
	parts := make([]string, 0, len(f))
	for _, p := range f {
		switch v := p.Value.(type) {
		case string:
			name := p.Key
			if inherit {
				name = key
			}
			parts = append(parts, url.QueryEscape(name)+"="+rawEscape(v))
		case Form:
			if s := multiQuery(v, p.Key+"[]", true); s != "" {
				parts = append(parts, s)
			}
		}
	}

	return strings.Join(parts, "&")
}

// rawEscape percent-encodes s per RFC 3986, spaces included.
func rawEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
