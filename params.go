package factory

import (
	"strings"
)

// Params maps a URI parameter name to its values in the order they appeared.
// Every key present has at least one value.
//
// Keys and values are kept exactly as written in the URI. Percent-encoded
// sequences are not decoded; a provider that wants a decoded value must
// decode it itself.
type Params map[string][]string

// ParseParams parses s, the part of a driver URI after the '?', into Params.
// Segments are separated by '&' and split on their first '='. A segment
// without '=' makes the whole string invalid; an empty string is a single
// empty segment and is rejected the same way.
func ParseParams(s string) (Params, error) {
	p := make(Params)
	for _, seg := range strings.Split(s, "&") {
		i := strings.IndexByte(seg, '=')
		if i < 0 {
			return nil, &MalformedURIError{URI: s, Reason: "invalid parameter format: " + seg}
		}
		p.Add(seg[:i], seg[i+1:])
	}
	return p, nil
}

// ParseQuery strips scheme from uri and parses the remaining "?k=v&..."
// section.
func ParseQuery(uri, scheme string) (Params, error) {
	if !strings.HasPrefix(uri, scheme) {
		return nil, &MalformedURIError{URI: uri, Reason: "expected scheme " + scheme}
	}
	rest := uri[len(scheme):]
	if !strings.HasPrefix(rest, "?") {
		return nil, &MalformedURIError{URI: uri, Reason: "missing '?' after " + scheme}
	}
	p, err := ParseParams(rest[1:])
	if err != nil {
		return nil, &MalformedURIError{URI: uri, Reason: err.(*MalformedURIError).Reason}
	}
	return p, nil
}

// SplitScheme splits a driver URI into its scheme, including the trailing
// colon, and the remainder.
func SplitScheme(uri string) (scheme, rest string, err error) {
	i := strings.IndexByte(uri, ':')
	if i <= 0 {
		return "", "", &MalformedURIError{URI: uri, Reason: "missing scheme"}
	}
	return uri[:i+1], uri[i+1:], nil
}

// Add appends value to the values of key.
func (p Params) Add(key, value string) {
	p[key] = append(p[key], value)
}

// Get returns the first value of key, or "" if it is absent.
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Set replaces the values of key with value. It is used only to backfill
// values the caller did not supply.
func (p Params) Set(key, value string) {
	p[key] = []string{value}
}
