// Package encoding holds the wire codec for dense per-cell value runs.
// Distance-field slices quantize into small integer buckets with long
// runs of equal values (whole regions at the clamp, solid obstacle
// interiors at zero), so run-length pairs compress them well.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRuns encodes a row-major sequence of bucket values into
// base64(varint pairs), the pairs being (value, run_len) repeated.
func EncodeRuns(vals []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(vals); {
		v := vals[i]
		run := 1
		for i+run < len(vals) && vals[i+run] == v {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRuns is the inverse of EncodeRuns. maxLen bounds the decoded
// length so a corrupt run count cannot balloon the allocation.
func DecodeRuns(b64 string, maxLen int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad value varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad run varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("bucket value too large: %d", v)
		}
		if run == 0 || len(out)+int(run) > maxLen {
			return nil, fmt.Errorf("run of %d overflows max length %d", run, maxLen)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint16(v))
		}
	}
	return out, nil
}
