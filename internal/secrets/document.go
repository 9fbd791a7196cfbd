// Package secrets defines the key-value document that moves between the
// two secret backends, along with its YAML wire forms.
package secrets

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	gskerrors "github.com/systmms/gsksync/internal/errors"
)

// Document is the decoded content of one secret: a flat map of string
// keys to string values. It is the in-memory hand-off between a read from
// one backend and a write to the other; no file round-trip is required.
type Document map[string]string

// Keys returns the document's keys in sorted order. All flattening into
// CLI arguments goes through this so repeated invocations are
// deterministic.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two documents hold identical content.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns a copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ParseYAML decodes a YAML stream into a Document. Multi-document
// streams are accepted; entries from later documents override earlier
// ones. Scalar values of any YAML type coerce to their string rendering;
// nested sequences or mappings are rejected because neither backend can
// represent them as a secret entry.
func ParseYAML(data []byte) (Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	doc := Document{}
	sawAny := false

	for {
		var raw map[string]interface{}
		err := dec.Decode(&raw)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, gskerrors.UserError{
				Message:    "Invalid YAML in secret document",
				Suggestion: "Check for indentation errors and missing quotes",
				Err:        err,
			}
		}
		sawAny = true
		for k, v := range raw {
			s, err := coerceScalar(v)
			if err != nil {
				return nil, gskerrors.UserError{
					Message:    fmt.Sprintf("Unsupported value for key '%s'", k),
					Details:    err.Error(),
					Suggestion: "Secret entries must be flat key: value pairs",
				}
			}
			doc[k] = s
		}
	}

	if !sawAny {
		return nil, gskerrors.UserError{
			Message:    "Secret document is empty",
			Suggestion: "Provide at least one key: value pair",
		}
	}
	return doc, nil
}

// EncodeYAML renders a document as YAML with keys in sorted order.
// This is the normalized form printed to the operator, written as a
// debug artifact, and uploaded as Secret Manager version payloads.
func EncodeYAML(d Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]string(d)); err != nil {
		return nil, fmt.Errorf("encoding secret document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding secret document: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBase64Map builds a Document from a base64-encoded data map, the
// form Kubernetes stores secret payloads in.
func DecodeBase64Map(data map[string]string) (Document, error) {
	doc := make(Document, len(data))
	for k, v := range data {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, gskerrors.UserError{
				Message:    fmt.Sprintf("Malformed base64 payload for key '%s'", k),
				Suggestion: "The cluster secret may have been edited by hand; inspect it with 'kubectl get secret -o yaml'",
				Err:        err,
			}
		}
		doc[k] = string(decoded)
	}
	return doc, nil
}

// coerceScalar renders a decoded YAML value as a string. Numbers and
// booleans keep their literal YAML rendering.
func coerceScalar(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("value of type %T is not a scalar", v)
	}
}
