// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package artifactcopy

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the on-the-fly compression applied to copied
// files. Compressed destinations carry the matching suffix after the
// run-qualified name, so a reader can tell the format from the name.
type Compression uint8

const (
	// CompressionNone copies bytes verbatim.
	CompressionNone Compression = 0

	// CompressionLZ4 writes LZ4 frames (suffix ".lz4"). Fast default
	// when copies cross a slow network share.
	CompressionLZ4 Compression = 1

	// CompressionZstd writes zstd at the default level (suffix
	// ".zst"). Better ratios for the CSV and DBF outputs that make
	// up most of a model run.
	CompressionZstd Compression = 2
)

// String returns the human-readable name of a compression mode.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression mode from its string
// representation.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression mode: %q", name)
	}
}

// suffix is the filename suffix appended to compressed destinations.
func (c Compression) suffix() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// nopWriteCloser adapts a bare writer for the uncompressed path.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// newWriter wraps w in the selected compressor. The returned closer
// flushes the compression frame; the caller still closes w itself.
func (c Compression) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("unsupported compression mode: %d", uint8(c))
	}
}
