package service

import (
	"encoding/json"
	"strconv"
)

// ByteCode is class file content. It is encoded in JSON as an array of
// signed bytes, the way browser clients expect it, and decodes from
// either that form or a base64 string.
type ByteCode []byte

func (b ByteCode) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+4*len(b))
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendInt(out, int64(int8(v)), 10)
	}
	return append(out, ']'), nil
}

func (b *ByteCode) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw []byte
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*b = raw
		return nil
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	*b = out
	return nil
}
