package cache

import "errors"

var (
	// ErrInvalidKey is returned when a key is empty
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidValue is returned when an entry cannot be stored or decoded
	ErrInvalidValue = errors.New("invalid cache value")

	// ErrUnknownBackend is returned by New for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrCompression is returned when an entry payload cannot be compressed
	ErrCompression = errors.New("compression failed")

	// ErrDecompression is returned when a stored payload cannot be decompressed
	ErrDecompression = errors.New("decompression failed")
)
