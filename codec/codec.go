// Package codec encodes component values for log output.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

func Encode(v any) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrapf(err, "encode %T", v)
	}
	return bz, nil
}

// EncodeOrNull encodes v, falling back to JSON null when v cannot be encoded.
func EncodeOrNull(v any) []byte {
	bz, err := Encode(v)
	if err != nil {
		return []byte("null")
	}
	return bz
}
