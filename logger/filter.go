package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values in log output
	DefaultMaskValue = "***"

	// DefaultMaxDepth bounds recursion into nested maps and slices
	DefaultMaxDepth = 8
)

// FilterConfig defines which field names are masked in log output.
type FilterConfig struct {
	// SensitiveFields are matched case-insensitively as substrings of field names
	SensitiveFields []string
	// MaskValue replaces masked values (default: "***")
	MaskValue string
}

// DefaultFilterConfig masks credentials carried by the API under test:
// login passwords, bearer/auth tokens and Authorization headers.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "access_token", "refresh_token",
			"authorization", "auth_token",
			"credential", "cookie",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values whose keys look sensitive.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config selects DefaultFilterConfig.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key is sensitive. URLs keep their structure
// and only lose the userinfo password.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if value == "" {
		return value
	}
	if isURL(value) {
		value = f.maskURL(value)
	}
	if f.isSensitiveField(key) {
		if isURL(value) {
			return value
		}
		return f.config.MaskValue
	}
	return value
}

// FilterValue masks sensitive entries of v, recursing into maps, header sets and slices.
func (f *SensitiveDataFilter) FilterValue(key string, v any) any {
	return f.filter(key, v, DefaultMaxDepth)
}

// FilterFields masks every sensitive entry of fields.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = f.FilterValue(k, v)
	}
	return filtered
}

func (f *SensitiveDataFilter) filter(key string, v any, depth int) any {
	if v == nil {
		return nil
	}
	if f.isSensitiveField(key) {
		if s, ok := v.(string); ok {
			return f.FilterString(key, s)
		}
		return f.config.MaskValue
	}
	if depth <= 0 {
		return v
	}

	switch typed := v.(type) {
	case string:
		return f.FilterString(key, typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = f.filter(k, inner, depth-1)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(typed))
		for k, inner := range typed {
			out[k] = f.FilterString(k, inner)
		}
		return out
	case http.Header:
		out := make(http.Header, len(typed))
		for k, values := range typed {
			if f.isSensitiveField(k) {
				out[k] = []string{f.config.MaskValue}
				continue
			}
			out[k] = values
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = f.filter(key, inner, depth-1)
		}
		return out
	case json.RawMessage:
		return json.RawMessage(f.FilterJSON(typed))
	case []byte:
		return string(f.FilterJSON(typed))
	default:
		return f.filterEncoded(key, v, depth)
	}
}

// FilterJSON masks sensitive keys inside a JSON object or array. Any other
// input, including truncated JSON, is returned unchanged.
func (f *SensitiveDataFilter) FilterJSON(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return raw
	}
	v, ok := decodeJSON(trimmed)
	if !ok {
		return raw
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f.filter("", v, DefaultMaxDepth)); err != nil {
		return raw
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// filterEncoded masks structs and other composite types through their JSON form.
func (f *SensitiveDataFilter) filterEncoded(key string, v any, depth int) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
	default:
		return v
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return f.config.MaskValue
	}
	decoded, ok := decodeJSON(raw)
	if !ok {
		return f.config.MaskValue
	}
	return f.filter(key, decoded, depth)
}

func decodeJSON(raw []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return nil, false
	}
	return v, true
}

func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

func isURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// maskURL replaces the userinfo password and any sensitive query values while
// preserving the rest of the URL.
func (f *SensitiveDataFilter) maskURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return f.config.MaskValue
	}

	changed := false
	userinfo := ""
	if parsed.User != nil {
		userinfo = parsed.User.String()
		if _, hasPassword := parsed.User.Password(); hasPassword {
			userinfo = parsed.User.Username() + ":" + f.config.MaskValue
			changed = true
		}
	}

	query := parsed.RawQuery
	if query != "" {
		pairs := strings.Split(query, "&")
		for i, pair := range pairs {
			key, _, found := strings.Cut(pair, "=")
			if unescaped, err := url.QueryUnescape(key); err == nil {
				key = unescaped
			}
			if found && f.isSensitiveField(key) {
				pairs[i] = key + "=" + f.config.MaskValue
				changed = true
			}
		}
		query = strings.Join(pairs, "&")
	}

	if !changed {
		return raw
	}

	var b strings.Builder
	b.WriteString(parsed.Scheme)
	b.WriteString("://")
	if userinfo != "" {
		b.WriteString(userinfo)
		b.WriteByte('@')
	}
	b.WriteString(parsed.Host)
	b.WriteString(parsed.EscapedPath())
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if parsed.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(parsed.EscapedFragment())
	}
	return b.String()
}
