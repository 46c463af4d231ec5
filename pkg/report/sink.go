package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"sync"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("sink closed")

// Sink receives records. Implementations are safe for concurrent use and
// append each record atomically.
type Sink interface {
	Write(ctx context.Context, r Record) error
	Close() error
}

// CSVSink writes records as CSV with a header row. Each record is flushed
// as soon as it is written.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	closed bool
}

// NewCSVSink writes the header to w immediately. If w is an io.Closer it is
// closed by Close, or right away when the header cannot be written; wrap it
// with [KeepOpen] to prevent that.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	err := s.w.Write(Columns)
	if err == nil {
		s.w.Flush()
		err = s.w.Error()
	}
	if err != nil {
		if s.closer != nil {
			_ = s.closer.Close()
		}
		return nil, brerrors.Wrap(brerrors.ErrCodeOutput, err, "write csv header")
	}
	return s, nil
}

func (s *CSVSink) Write(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.w.Write(r.Row()); err != nil {
		return brerrors.Wrap(brerrors.ErrCodeOutput, err, "write csv row")
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return brerrors.Wrap(brerrors.ErrCodeOutput, err, "write csv row")
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// JSONLSink writes one JSON object per line.
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	closed bool
}

// NewJSONLSink creates a JSON Lines sink. Closing rules match [NewCSVSink].
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{enc: json.NewEncoder(w)}
	s.enc.SetEscapeHTML(false)
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *JSONLSink) Write(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.enc.Encode(r); err != nil {
		return brerrors.Wrap(brerrors.ErrCodeOutput, err, "write json line")
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Collector keeps records in memory. It backs the summary table and graph.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Write(_ context.Context, r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}

func (c *Collector) Close() error { return nil }

// Records returns a copy of everything written so far.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Multi fans records out to several sinks under one lock, so every sink sees
// the same order.
type Multi struct {
	mu    sync.Mutex
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi { return &Multi{sinks: sinks} }

// Write writes r to every sink and joins their errors.
func (m *Multi) Write(ctx context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// nopCloser hides Close from a writer the sink must not own.
type nopCloser struct{ io.Writer }

// KeepOpen wraps w so sinks never close it (for os.Stdout).
func KeepOpen(w io.Writer) io.Writer { return nopCloser{w} }
