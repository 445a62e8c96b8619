package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nao1215/estatewatch/internal/model"
)

// Envelope keys. Both must be present for a payload to be accepted.
const (
	dataKey      = "Data"
	exceptionKey = "Exception"

	// pageMethodKey is the single key ASP.NET page methods wrap
	// their return value in.
	pageMethodKey = "d"
)

// maxEnvelopeDepth bounds how many wrapping layers are unwrapped.
const maxEnvelopeDepth = 4

// Envelope is the decoded outer response structure of a results page.
type Envelope struct {
	// Data is the unescaped HTML fragment.
	Data string

	// Exception is the raw JSON value of the Exception field.
	// It is usually null.
	Exception json.RawMessage
}

// DecodeEnvelope decodes a results payload into an Envelope.
//
// The payload must be a JSON object carrying both the "Data" and "Exception"
// keys, with "Data" a JSON string. A payload that is itself a JSON string,
// or an object of the form {"d": ...}, is unwrapped first.
func DecodeEnvelope(payload []byte) (*Envelope, error) {
	raw := bytes.TrimSpace(payload)

	for range maxEnvelopeDepth {
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: empty envelope", model.ErrParse)
		}

		// The envelope may arrive JSON-encoded as a string
		if raw[0] == '"' {
			var inner string
			if err := json.Unmarshal(raw, &inner); err != nil {
				return nil, fmt.Errorf("%w: failed to decode envelope string: %w", model.ErrParse, err)
			}
			raw = bytes.TrimSpace([]byte(inner))
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: failed to decode envelope: %w", model.ErrParse, err)
		}

		data, hasData := fields[dataKey]
		exception, hasException := fields[exceptionKey]

		if !hasData && !hasException {
			if wrapped, ok := fields[pageMethodKey]; ok && len(fields) == 1 {
				raw = bytes.TrimSpace(wrapped)
				continue
			}
		}

		if !hasData {
			return nil, fmt.Errorf("%w: envelope has no %q field", model.ErrParse, dataKey)
		}
		if !hasException {
			return nil, fmt.Errorf("%w: envelope has no %q field", model.ErrParse, exceptionKey)
		}

		return decodeData(data, exception)
	}

	return nil, fmt.Errorf("%w: envelope nested deeper than %d levels", model.ErrParse, maxEnvelopeDepth)
}

// decodeData decodes the Data field, which must be a JSON string.
func decodeData(data, exception json.RawMessage) (*Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return nil, fmt.Errorf("%w: %q field is not a string", model.ErrParse, dataKey)
	}

	var fragment string
	if err := json.Unmarshal(trimmed, &fragment); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %q field: %w", model.ErrParse, dataKey, err)
	}

	return &Envelope{
		Data:      fragment,
		Exception: exception,
	}, nil
}
