package urlstate

import (
	"net/url"
	"slices"
	"sort"
	"strings"
)

const (
	searchParamPrefix = "s["
	searchParamSuffix = "]"
)

// SearchFilter maps a search field to the values it is constrained to. An
// absent field carries no constraint.
type SearchFilter map[string][]string

// ReadSearchFilter returns the filter encoded as s[Field]=value parameters.
func ReadSearchFilter(port Port) SearchFilter {
	filter := SearchFilter{}
	for key, values := range port.Query() {
		field, ok := searchField(key)
		if !ok {
			continue
		}
		for _, value := range values {
			filter.Add(field, value)
		}
	}
	return filter
}

// SetSearchFilter returns the href carrying filter. The page resets to 1.
func SetSearchFilter(port Port, filter SearchFilter) string {
	values := port.Query()
	for key := range values {
		if _, ok := searchField(key); ok {
			values.Del(key)
		}
	}
	for field, fieldValues := range filter.normalized() {
		key := searchParamPrefix + field + searchParamSuffix
		for _, value := range fieldValues {
			values.Add(key, value)
		}
	}
	values.Del(pageParam)
	return port.Href(values)
}

// Add appends value to field, skipping blanks and duplicates.
func (f SearchFilter) Add(field, value string) {
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)
	if field == "" || value == "" {
		return
	}
	if slices.Contains(f[field], value) {
		return
	}
	f[field] = append(f[field], value)
}

// Values returns the values field is constrained to.
func (f SearchFilter) Values(field string) []string {
	return f[field]
}

// Has reports whether field carries a constraint.
func (f SearchFilter) Has(field string) bool {
	return len(f.normalized()[field]) > 0
}

// HasSearchApplied reports whether any field carries a constraint.
func (f SearchFilter) HasSearchApplied() bool {
	return len(f.normalized()) > 0
}

// Clone returns a deep copy of f.
func (f SearchFilter) Clone() SearchFilter {
	out := make(SearchFilter, len(f))
	for field, values := range f {
		out[field] = append([]string(nil), values...)
	}
	return out
}

// QueryString serializes f in the backend search grammar,
// Field1:v1,v2+Field2:v3, with fields sorted.
func (f SearchFilter) QueryString() string {
	normalized := f.normalized()
	fields := make([]string, 0, len(normalized))
	for field := range normalized {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+":"+strings.Join(normalized[field], ","))
	}
	return strings.Join(parts, "+")
}

func (f SearchFilter) normalized() SearchFilter {
	out := SearchFilter{}
	for field, values := range f {
		for _, value := range values {
			out.Add(field, value)
		}
	}
	return out
}

func searchField(key string) (string, bool) {
	if !strings.HasPrefix(key, searchParamPrefix) || !strings.HasSuffix(key, searchParamSuffix) {
		return "", false
	}
	field := strings.TrimSpace(key[len(searchParamPrefix) : len(key)-len(searchParamSuffix)])
	if field == "" {
		return "", false
	}
	return field, true
}

// SearchFilterFromValues parses Field=value pairs, as typed on a command line.
func SearchFilterFromValues(pairs []string) SearchFilter {
	filter := SearchFilter{}
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		for _, v := range strings.Split(value, ",") {
			filter.Add(field, v)
		}
	}
	return filter
}

// SearchFilterFromForm reads a filter submitted as s[Field] form fields.
func SearchFilterFromForm(form url.Values) SearchFilter {
	return ReadSearchFilter(Location{Values: form})
}

// RetainedOnSearch returns the parameters a filter change keeps: everything
// except the search parameters and the page.
func RetainedOnSearch(port Port) url.Values {
	values := port.Query()
	for key := range values {
		if _, ok := searchField(key); ok {
			values.Del(key)
		}
	}
	values.Del(pageParam)
	return values
}
