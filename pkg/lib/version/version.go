// Package version holds semantic versions carried by JSON and YAML
// documents.
package version

import (
	"encoding/json"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
)

// DocumentVersion is a semantic version serialized as a string. Decoding is
// tolerant: "v1.2", "1.2" and bare numbers such as 1 are accepted.
type DocumentVersion struct {
	semver.Version
}

// MarshalJSON implements the encoding/json.Marshaler interface.
func (v DocumentVersion) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON implements the encoding/json.Unmarshaler interface.
func (v *DocumentVersion) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Errorf("version must be a string or a number, got %s", data)
		}
		s = n.String()
	}
	parsed, err := semver.ParseTolerant(s)
	if err != nil {
		return errors.Wrapf(err, "parsing version %q", s)
	}
	v.Version = parsed
	return nil
}
