package runtime

import (
	"net/url"
	"strings"
)

// FormValues is an ordered name/value collection used for form submission.
// Names match case-insensitively; the spelling of the first Set wins.
type FormValues struct {
	keys   []string
	values map[string]string
	index  map[string]string
}

func NewFormValues() FormValues {
	return FormValues{
		values: make(map[string]string),
		index:  make(map[string]string),
	}
}

// Set replaces the value stored under name, appending the name if it is new.
func (v *FormValues) Set(name, value string) {
	if v.values == nil {
		*v = NewFormValues()
	}
	key, ok := v.index[strings.ToLower(name)]
	if !ok {
		key = name
		v.index[strings.ToLower(name)] = key
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

func (v FormValues) Get(name string) (string, bool) {
	key, ok := v.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return v.values[key], true
}

// Keys returns the field names in insertion order.
func (v FormValues) Keys() []string {
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

func (v FormValues) Len() int {
	return len(v.keys)
}

func (v FormValues) Clone() FormValues {
	clone := NewFormValues()
	for _, k := range v.keys {
		clone.Set(k, v.values[k])
	}
	return clone
}

// Encode renders the values as application/x-www-form-urlencoded in insertion order.
func (v FormValues) Encode() string {
	var sb strings.Builder
	for i, k := range v.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v.values[k]))
	}
	return sb.String()
}
