package npm

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/matzehuels/blastradius/pkg/integrations"
)

// Metadata is the subset of a registry document blastradius reads.
type Metadata struct {
	Name     string                 `json:"name"`
	DistTags integrations.StringMap `json:"dist-tags"`
	Versions Manifests              `json:"versions"`
	Time     integrations.StringMap `json:"time"` // version, "created" or "modified" → ISO timestamp
}

// Manifest is the dependency-relevant part of one published version.
type Manifest struct {
	Version          string                 `json:"version"`
	Dependencies     integrations.StringMap `json:"dependencies,omitempty"`
	PeerDependencies integrations.StringMap `json:"peerDependencies,omitempty"`
	DevDependencies  integrations.StringMap `json:"devDependencies,omitempty"`
}

// Manifests maps a version string to its manifest. Entries that are not JSON
// objects are dropped.
type Manifests map[string]Manifest

func (m *Manifests) UnmarshalJSON(data []byte) error {
	*m = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(Manifests, len(raw))
	for v, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) == 0 || msg[0] != '{' {
			continue
		}
		var man Manifest
		if json.Unmarshal(msg, &man) == nil {
			out[v] = man
		}
	}
	*m = out
	return nil
}

// Latest returns the version tagged "latest", or "".
func (m *Metadata) Latest() string {
	if m == nil {
		return ""
	}
	return m.DistTags["latest"]
}

// Modified returns the document's last-modified timestamp as published, or "".
func (m *Metadata) Modified() string {
	if m == nil {
		return ""
	}
	return m.Time["modified"]
}

// PublishedAt returns the publish time recorded for version.
func (m *Metadata) PublishedAt(version string) (time.Time, bool) {
	if m == nil {
		return time.Time{}, false
	}
	return ParseTime(m.Time[version])
}

// ParseTime parses a registry timestamp ("2021-03-04T05:06:07.890Z").
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
