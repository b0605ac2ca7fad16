package protocol

import (
	"encoding/json"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// NormalizeEncoding maps a requested encoding to a supported one. Unknown
// values fall back to JSON.
func NormalizeEncoding(enc string) string {
	if strings.EqualFold(strings.TrimSpace(enc), EncodingMsgpack) {
		return EncodingMsgpack
	}
	return EncodingJSON
}

// EncodeState serializes a STATE frame. binary reports whether the frame
// must be sent as a binary websocket message.
func EncodeState(enc string, m *StateMsg) (b []byte, binary bool, err error) {
	if NormalizeEncoding(enc) == EncodingMsgpack {
		b, err = msgpack.Marshal(m)
		return b, true, err
	}
	b, err = json.Marshal(m)
	return b, false, err
}

func DecodeState(b []byte, binary bool) (StateMsg, error) {
	var m StateMsg
	if binary {
		err := msgpack.Unmarshal(b, &m)
		return m, err
	}
	err := json.Unmarshal(b, &m)
	return m, err
}
