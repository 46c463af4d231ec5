package integrations

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// EscapeName percent-encodes a package name as a single path segment, so a
// scoped name "@scope/pkg" becomes "@scope%2Fpkg".
func EscapeName(name string) string {
	return url.PathEscape(name)
}

// EscapeNamePath encodes name for URL schemes that keep the scope separator,
// e.g. "/browse/depended/@scope/pkg".
func EscapeNamePath(name string) string {
	return strings.ReplaceAll(url.PathEscape(name), "%2F", "/")
}

// StringMap is a name→string mapping that tolerates malformed upstream JSON.
// Non-object values decode to an empty map and non-string entries are
// dropped, so one odd manifest never fails a whole document.
type StringMap map[string]string

func (m *StringMap) UnmarshalJSON(data []byte) error {
	*m = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(StringMap, len(raw))
	for k, v := range raw {
		var s string
		if len(v) > 0 && v[0] == '"' && json.Unmarshal(v, &s) == nil {
			out[k] = s
		}
	}
	*m = out
	return nil
}
