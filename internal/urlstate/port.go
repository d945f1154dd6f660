// Package urlstate reads and writes slices of view state kept in a URL query.
//
// The URL of the active navigation entry is the single source of truth for
// filter, pagination, sort and tab state. Every setter returns the href of the
// next entry and leaves the parameters owned by other slices untouched.
package urlstate

import (
	"net/url"
	"strings"
)

// Port is the read/write view of the active navigation entry.
type Port interface {
	// Query returns a copy of the current query values.
	Query() url.Values
	// Href returns the URL of an entry holding values.
	Href(values url.Values) string
}

// Location is a Port backed by a request path and query.
type Location struct {
	Path   string
	Values url.Values
}

// FromURL builds a Location from a request URL.
func FromURL(u *url.URL) Location {
	if u == nil {
		return Location{Path: "/"}
	}
	return Location{Path: u.Path, Values: u.Query()}
}

func (l Location) Query() url.Values {
	return cloneValues(l.Values)
}

func (l Location) Href(values url.Values) string {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		path = "/"
	}
	encoded := values.Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

// WithPath returns a Location for another path carrying the same query.
func (l Location) WithPath(path string) Location {
	return Location{Path: path, Values: cloneValues(l.Values)}
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
