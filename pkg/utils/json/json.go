// Package json wraps the JSON codec used across the planner.
// sonic is selected on amd64/arm64; every other architecture gets encoding/json.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// RawMessage is re-exported so callers never import encoding/json directly.
type RawMessage = stdjson.RawMessage

// Encoder is satisfied by both sonic and encoding/json encoders.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder is satisfied by both sonic and encoding/json decoders.
type Decoder interface {
	Decode(v interface{}) error
}

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v interface{}) ([]byte, error)
	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v interface{}) error
	// NewEncoder returns an encoder writing to w.
	NewEncoder func(w io.Writer) Encoder
	// NewDecoder returns a decoder reading from r.
	NewDecoder func(r io.Reader) Decoder

	usingSonic bool
)

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		// Escape HTML and keep map key order stable so cache keys and
		// oracle payloads are reproducible.
		api := sonic.Config{
			EscapeHTML:       true,
			SortMapKeys:      true,
			CompactMarshaler: true,
			CopyString:       true,
			ValidateString:   true,
		}.Froze()
		Marshal = api.Marshal
		Unmarshal = api.Unmarshal
		NewEncoder = func(w io.Writer) Encoder { return api.NewEncoder(w) }
		NewDecoder = func(r io.Reader) Decoder { return api.NewDecoder(r) }
		usingSonic = true
		return
	}

	Marshal = stdjson.Marshal
	Unmarshal = stdjson.Unmarshal
	NewEncoder = func(w io.Writer) Encoder { return stdjson.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return stdjson.NewDecoder(r) }
}

// Valid reports whether data is a syntactically valid JSON document.
func Valid(data []byte) bool {
	if usingSonic {
		return sonic.Valid(data)
	}
	return stdjson.Valid(data)
}

// MarshalString is Marshal returning a string, handy for prompt payloads.
func MarshalString(v interface{}) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsUsingSonic reports whether sonic backs this package.
func IsUsingSonic() bool {
	return usingSonic
}
