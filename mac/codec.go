package mac

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrUndecodable is returned by Decode when the input is not a valid encoded
// macaroon. It deliberately carries no further detail, since the wire codec
// is opaque to clients.
var ErrUndecodable = errors.New("undecodable macaroon")

// Encode renders a macaroon to its wire form: canonical JSON, then
// standard-alphabet Base64.
func Encode(m *Macaroon) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode is the inverse of Encode. It returns ErrUndecodable on any parse
// failure, never a lower-level base64/json error, since the codec is opaque
// to clients.
func Decode(encoded string) (*Macaroon, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrUndecodable
	}
	var m Macaroon
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrUndecodable
	}
	if m.ID == "" || m.Signature == "" {
		return nil, ErrUndecodable
	}
	return &m, nil
}
