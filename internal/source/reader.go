package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/churn/internal/model"
)

// Reader decodes records from a byte stream in one of the registered
// formats. It serves both batch and stream mode: Stream emits the decoded
// records and then closes the channel.
type Reader struct {
	r      io.Reader
	closer io.Closer
	decode Decoder
}

// NewReader wraps r with the decoder for format.
func NewReader(r io.Reader, format string) (*Reader, error) {
	d, err := Get(format)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, decode: d}, nil
}

// Open reads from the file at path, or from stdin when path is "-" or empty.
func Open(path, format string) (*Reader, error) {
	d, err := Get(format)
	if err != nil {
		return nil, err
	}
	if path == "" || path == "-" {
		return &Reader{r: os.Stdin, decode: d}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return &Reader{r: f, closer: f, decode: d}, nil
}

// Query decodes the whole input.
func (s *Reader) Query(ctx context.Context) ([]model.FeatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.decode(s.r)
}

// Stream decodes the whole input and emits it record by record.
func (s *Reader) Stream(ctx context.Context) (<-chan model.FeatureRecord, error) {
	records, err := s.Query(ctx)
	if err != nil {
		return nil, err
	}
	ch := make(chan model.FeatureRecord, 64)
	go func() {
		defer close(ch)
		for _, rec := range records {
			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Close releases the underlying file, if any.
func (s *Reader) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
