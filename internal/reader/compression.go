package reader

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

// Open opens a log file and undoes its compression
func Open(ref types.LogFileRef) (io.ReadCloser, error) {
	file, err := os.Open(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := decompressor(ref.Compression, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func decompressor(compression types.Compression, file *os.File) (io.ReadCloser, error) {
	switch compression {
	case types.CompressionNone, "":
		return file, nil
	case types.CompressionGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("gzip reader creation failed: %w", err)
		}
		return &stackedReader{Reader: gz, closers: []io.Closer{gz, file}}, nil
	case types.CompressionSnappy:
		return &stackedReader{Reader: snappy.NewReader(file), closers: []io.Closer{file}}, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", compression)
	}
}

// stackedReader reads from the outermost decoder and closes every layer
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
