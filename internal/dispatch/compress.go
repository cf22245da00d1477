package dispatch

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// biggest is the maximum accepted size, in bytes, of a decompressed
// payload (spec.md §6's "Biggest" constant).
const biggest = 30000

// compressedPrefix marks a payload whose remainder is zlib-deflated.
const compressedPrefix = "ABG:"

// comp deflates data with zlib, the wire format the client expects for the
// "ABG:" prefix.
func comp(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("dispatch: zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("dispatch: zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

// decomp inflates a zlib-compressed payload, rejecting anything whose
// decompressed size would exceed biggest bytes.
func decomp(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dispatch: zlib reader: %w", err)
	}
	defer r.Close()

	limited := io.LimitReader(r, biggest+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("dispatch: zlib inflate: %w", err)
	}
	if len(out) > biggest {
		return nil, fmt.Errorf("dispatch: decompressed payload exceeds %d bytes", biggest)
	}
	return out, nil
}
