// Package codec transcodes HTTP response bodies between their wire
// content-encoding and plain bytes. Whatever encoding decoded a body is the
// encoding used to re-encode it, so clients always receive the encoding
// they negotiated with the backend.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

type Encoding string

const (
	Identity Encoding = "identity"
	Gzip     Encoding = "gzip"
	Deflate  Encoding = "deflate"
	Zstd     Encoding = "zstd"

	// Unknown marks a Content-Encoding value this package cannot transcode.
	// Bodies carrying it must be passed through untouched.
	Unknown Encoding = "unknown"
)

// Parse maps a Content-Encoding header value to an Encoding. An absent or
// empty value means identity; anything unrecognized becomes Unknown.
func Parse(value string) Encoding {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "identity":
		return Identity
	case "gzip":
		return Gzip
	case "deflate":
		return Deflate
	case "zstd":
		return Zstd
	default:
		return Unknown
	}
}

// Transcodable reports whether bodies with this encoding can be decoded to
// plain bytes and re-encoded.
func (e Encoding) Transcodable() bool {
	return e != Unknown
}

// Decode decompresses data according to enc. Identity and Unknown return the
// input unchanged. Deflate tries the zlib container first and falls back to
// a raw flate stream, since both appear in the wild.
func Decode(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip.NewReader: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip read: %w", err)
		}
		return out, nil
	case Deflate:
		if out, err := decodeZlib(data); err == nil {
			return out, nil
		}
		return decodeRawFlate(data)
	case Zstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd.NewReader: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// Encode compresses data according to enc with default settings. Identity
// and Unknown return the input unchanged.
func Encode(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case Gzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case Deflate:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("zlib write: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zlib close: %w", err)
		}
		return buf.Bytes(), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd.NewWriter: %w", err)
		}
		out := enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("zstd close: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

func decodeZlib(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib.NewReader: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zlib read: %w", err)
	}
	return out, nil
}

func decodeRawFlate(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("flate read: %w", err)
	}
	return out, nil
}
