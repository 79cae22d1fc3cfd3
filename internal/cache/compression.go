package cache

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

const defaultCompressionThreshold = 1024 // Compress payloads larger than 1KB

// Compressor gzips payloads above Threshold bytes
type Compressor struct {
	Threshold int
}

// Compress compresses data when it is larger than the threshold
func (c Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) <= c.Threshold {
		return data, nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates gzipped data and returns anything else unchanged
func (c Compressor) Decompress(data []byte) ([]byte, error) {
	// gzip magic number
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out, nil
}
