package checksum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/crc32"
)

// Field is the record key that carries the checksum. The name is kept for
// wire compatibility; the algorithm is CRC-32/IEEE (zlib, gzip), not CRC-32C.
const Field = "crc32c"

// Sum returns the 8-digit lowercase hex CRC-32 of data.
func Sum(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}

// Compute returns the checksum of v's canonical form with the checksum
// field removed. An existing checksum on v is never part of the input.
func Compute(v any) (string, error) {
	body, err := Body(v)
	if err != nil {
		return "", err
	}
	return Sum(body), nil
}

// Body returns the canonical bytes the checksum is computed over.
func Body(v any) ([]byte, error) {
	tree, err := decodeTree(v)
	if err != nil {
		return nil, err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("checksum: record must be a JSON object, got %T", tree)
	}
	delete(obj, Field)
	var buf bytes.Buffer
	if err := writeValue(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Strip returns line re-encoded canonically without the checksum field.
func Strip(line []byte) ([]byte, error) {
	return Body(line)
}

// Verification is the outcome of checking one serialized record.
type Verification struct {
	Valid    bool
	Expected string // checksum recomputed from the fields
	Actual   string // checksum carried by the record
}

// VerifyLine recomputes the checksum of a serialized record and compares it
// with the value the record carries.
func VerifyLine(line []byte) (Verification, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(line, &probe); err != nil {
		return Verification{}, fmt.Errorf("checksum: parse record: %w", err)
	}
	var actual string
	if raw, ok := probe[Field]; ok {
		if err := json.Unmarshal(raw, &actual); err != nil {
			return Verification{}, fmt.Errorf("checksum: %s is not a string: %w", Field, err)
		}
	}
	expected, err := Compute(line)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Valid:    actual != "" && actual == expected,
		Expected: expected,
		Actual:   actual,
	}, nil
}
