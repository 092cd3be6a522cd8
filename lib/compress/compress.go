// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a body compression algorithm.
type Codec uint8

const (
	// Identity sends the encoded body as is. No compression header is
	// set on the request.
	Identity Codec = iota

	// LZ4 is LZ4 block format without frame headers. The receiver
	// sizes its output buffer from x-log-bodyrawsize.
	LZ4

	// Deflate is zlib-framed DEFLATE (RFC 1950).
	Deflate

	// Zstd is a single zstd frame.
	Zstd
)

// ErrCorrupt wraps every compression and decompression failure.
var ErrCorrupt = errors.New("compress: corrupt data")

// MaxRawSize is the largest uncompressed body the ingestion service
// accepts in one PutLogs call. Decompress refuses to size an output
// buffer beyond it.
const MaxRawSize = 10 << 20

// String returns the codec name used in configuration.
func (c Codec) String() string {
	switch c {
	case Identity:
		return "identity"
	case LZ4:
		return "lz4"
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// Header returns the x-log-compresstype value for the codec, or "" for
// Identity (the header is omitted).
func (c Codec) Header() string {
	if c == Identity {
		return ""
	}
	return c.String()
}

// Parse parses a codec name. The empty string and "none" mean Identity.
func Parse(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none", "identity":
		return Identity, nil
	case "lz4":
		return LZ4, nil
	case "deflate":
		return Deflate, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression codec %q", name)
	}
}

// ParseHeader maps an x-log-compresstype header value back to a codec.
// A missing header means Identity.
func ParseHeader(value string) (Codec, error) {
	if value == "" {
		return Identity, nil
	}
	codec, err := Parse(value)
	if err != nil || codec == Identity {
		return 0, fmt.Errorf("unsupported x-log-compresstype %q", value)
	}
	return codec, nil
}

// Switches mirrors how codecs are enabled in configuration: one switch
// per algorithm. At most one may be on.
type Switches struct {
	LZ4     bool
	Deflate bool
	Zstd    bool
}

// ErrConflict is returned by Select when more than one codec is enabled.
var ErrConflict = errors.New("at most one of lz4, deflate, zstd may be enabled")

// Select returns the single codec the switches enable, Identity when
// none is on, or ErrConflict.
func Select(switches Switches) (Codec, error) {
	var enabled []Codec
	if switches.LZ4 {
		enabled = append(enabled, LZ4)
	}
	if switches.Deflate {
		enabled = append(enabled, Deflate)
	}
	if switches.Zstd {
		enabled = append(enabled, Zstd)
	}
	switch len(enabled) {
	case 0:
		return Identity, nil
	case 1:
		return enabled[0], nil
	default:
		names := make([]string, len(enabled))
		for i, codec := range enabled {
			names[i] = codec.String()
		}
		return 0, fmt.Errorf("%w (enabled: %s)", ErrConflict, strings.Join(names, ", "))
	}
}

// Compressor compresses request bodies with one fixed codec. It is safe
// for concurrent use.
type Compressor struct {
	codec Codec
	level int
}

// New returns a Compressor for codec. level applies to Deflate only:
// 1 (fastest) through 9 (smallest), 0 for the library default; values
// above 9 are clamped.
func New(codec Codec, level int) (*Compressor, error) {
	switch codec {
	case Identity, LZ4, Deflate, Zstd:
	default:
		return nil, fmt.Errorf("unsupported codec %s", codec)
	}
	if level < 0 {
		return nil, fmt.Errorf("deflate level must not be negative, got %d", level)
	}
	if level == 0 {
		level = zlib.DefaultCompression
	} else if level > zlib.BestCompression {
		level = zlib.BestCompression
	}
	return &Compressor{codec: codec, level: level}, nil
}

// Codec returns the compressor's codec.
func (c *Compressor) Codec() Codec {
	return c.codec
}

// Compress returns the compressed form of data. For Identity the input
// is returned unchanged (no copy). Any failure wraps ErrCorrupt; the
// caller must drop the batch rather than fall back to an uncompressed
// body.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	switch c.codec {
	case Identity:
		return data, nil
	case LZ4:
		return compressLZ4(data)
	case Deflate:
		return compressDeflate(data, c.level)
	case Zstd:
		return zstdEncoder().EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("%w: unsupported codec %s", ErrCorrupt, c.codec)
	}
}

// Decompress reverses Compress. rawSize is the x-log-bodyrawsize value;
// the output must match it exactly. A rawSize outside [0, MaxRawSize]
// is rejected before anything is allocated.
func Decompress(codec Codec, data []byte, rawSize int) ([]byte, error) {
	if rawSize < 0 || rawSize > MaxRawSize {
		return nil, fmt.Errorf("%w: raw size %d outside [0, %d]", ErrCorrupt, rawSize, MaxRawSize)
	}
	var (
		output []byte
		err    error
	)
	switch codec {
	case Identity:
		output = data
	case LZ4:
		output = make([]byte, rawSize)
		var read int
		read, err = lz4.UncompressBlock(data, output)
		output = output[:max(read, 0)]
	case Deflate:
		var reader io.ReadCloser
		reader, err = zlib.NewReader(bytes.NewReader(data))
		if err == nil {
			output, err = io.ReadAll(io.LimitReader(reader, int64(rawSize)+1))
			reader.Close()
		}
	case Zstd:
		output, err = zstdDecoder().DecodeAll(data, make([]byte, 0, rawSize))
	default:
		return nil, fmt.Errorf("%w: unsupported codec %s", ErrCorrupt, codec)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s decompress: %v", ErrCorrupt, codec, err)
	}
	if len(output) != rawSize {
		return nil, fmt.Errorf("%w: %s decompress: got %d bytes, expected %d", ErrCorrupt, codec, len(output), rawSize)
	}
	return output, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	// A destination of CompressBlockBound bytes always receives a valid
	// block, literal-only when the input does not compress.
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 compress: %v", ErrCorrupt, err)
	}
	if written == 0 && len(data) > 0 {
		return nil, fmt.Errorf("%w: lz4 compress produced no output for %d bytes", ErrCorrupt, len(data))
	}
	return destination[:written], nil
}

func compressDeflate(data []byte, level int) ([]byte, error) {
	var buffer bytes.Buffer
	buffer.Grow(len(data)/2 + 64)
	writer, err := zlib.NewWriterLevel(&buffer, level)
	if err != nil {
		return nil, fmt.Errorf("%w: deflate writer: %v", ErrCorrupt, err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("%w: deflate write: %v", ErrCorrupt, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: deflate close: %v", ErrCorrupt, err)
	}
	return buffer.Bytes(), nil
}

// The zstd encoder and decoder are safe for concurrent use and costly to
// build, so they are created once, on first use.
var (
	zstdEncoder = sync.OnceValue(func() *zstd.Encoder {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic("compress: zstd encoder initialization failed: " + err.Error())
		}
		return encoder
	})
	zstdDecoder = sync.OnceValue(func() *zstd.Decoder {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			panic("compress: zstd decoder initialization failed: " + err.Error())
		}
		return decoder
	})
)
