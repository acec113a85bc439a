// Package canon maps raw provider output into the canonical JSON Lines form
// that every hash and comparison in the QC pipeline is computed over.
//
// Canonical output for a schema is a pure function of the semantic content:
// field order, row order and source encoding (csv or jsonl) never change the
// bytes produced.
package canon

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/paw-chain/qc/qc/metrics"
	"github.com/paw-chain/qc/qc/schema"
	"github.com/paw-chain/qc/qc/types"
)

// Canonicalizer produces canonical JSON Lines for the schemas of a registry.
// It holds no per-call state and is safe for concurrent use.
type Canonicalizer struct {
	registry *schema.Registry
	logger   log.Logger
	metrics  *metrics.QCMetrics
}

// NewCanonicalizer creates a canonicalizer over reg. A nil logger discards output.
func NewCanonicalizer(reg *schema.Registry, logger log.Logger) *Canonicalizer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Canonicalizer{
		registry: reg,
		logger:   logger.With("module", "qc/canon"),
		metrics:  metrics.NewQCMetrics(),
	}
}

// Canonicalize reads raw output in the given input format and returns its
// canonical bytes. The whole input is read before sorting.
func (c *Canonicalizer) Canonicalize(schemaID string, r io.Reader, format string) ([]byte, error) {
	s, err := c.lookup(schemaID, format)
	if err != nil {
		return nil, err
	}

	input, err := io.ReadAll(r)
	if err != nil {
		return nil, errorsmod.Wrap(err, "read canonicalization input")
	}
	return c.canonicalizeBytes(s, input, format)
}

// CanonicalizeBytes is Canonicalize over an in-memory input.
func (c *Canonicalizer) CanonicalizeBytes(schemaID string, input []byte, format string) ([]byte, error) {
	s, err := c.lookup(schemaID, format)
	if err != nil {
		return nil, err
	}
	return c.canonicalizeBytes(s, input, format)
}

// CanonicalizeRecords canonicalizes already-decoded records. Values may be Go
// scalars, json.Number, strings or []any / []float64 for vector fields.
func (c *Canonicalizer) CanonicalizeRecords(schemaID string, records []map[string]any) ([]byte, error) {
	s, err := c.registry.Get(schemaID)
	if err != nil {
		return nil, err
	}
	return c.finish(s, records)
}

func (c *Canonicalizer) lookup(schemaID, format string) (*schema.Schema, error) {
	s, err := c.registry.Get(schemaID)
	if err != nil {
		return nil, err
	}
	if !s.SupportsFormat(format) {
		return nil, types.ErrUnsupportedFormat.Wrapf("%s supports input_format: %s, got %q",
			s.ID, strings.Join(s.Formats, ", "), format)
	}
	return s, nil
}

func (c *Canonicalizer) canonicalizeBytes(s *schema.Schema, input []byte, format string) ([]byte, error) {
	if !utf8.Valid(input) {
		return nil, c.fail(s, types.ErrValueError.Wrap("input is not valid UTF-8"))
	}

	var (
		records []map[string]any
		err     error
	)
	switch format {
	case schema.FormatCSV:
		records, err = decodeCSV(input)
	case schema.FormatJSONL:
		records, err = decodeJSONL(input)
	}
	if err != nil {
		return nil, c.fail(s, err)
	}
	return c.finish(s, records)
}

func (c *Canonicalizer) finish(s *schema.Schema, raw []map[string]any) ([]byte, error) {
	n := newNormalizer(s)
	lines := make([]canonicalLine, 0, len(raw))
	for i, r := range raw {
		rec, err := n.normalize(i, r)
		if err != nil {
			return nil, c.fail(s, err)
		}
		var buf bytes.Buffer
		if err := writeRecord(&buf, s, rec); err != nil {
			return nil, c.fail(s, err)
		}
		lines = append(lines, canonicalLine{rec: rec, bytes: buf.Bytes()})
	}

	keys := primaryKeyIndexes(s)
	sort.SliceStable(lines, func(i, j int) bool {
		if cmp := compareKeys(s, keys, lines[i].rec, lines[j].rec); cmp != 0 {
			return cmp < 0
		}
		return bytes.Compare(lines[i].bytes, lines[j].bytes) < 0
	})

	var out bytes.Buffer
	for _, l := range lines {
		out.Write(l.bytes)
		out.WriteByte('\n')
	}

	c.metrics.RecordsCanonicalized.WithLabelValues(s.ID).Add(float64(len(lines)))
	c.logger.Debug("canonicalized records", "schema_id", s.ID, "records", len(lines), "bytes", out.Len())
	return out.Bytes(), nil
}

func (c *Canonicalizer) fail(s *schema.Schema, err error) error {
	code := "internal"
	var coded *errorsmod.Error
	if errors.As(err, &coded) {
		code = strconv.FormatUint(uint64(coded.ABCICode()), 10)
	}
	c.metrics.CanonicalizeFailures.WithLabelValues(s.ID, code).Inc()
	return err
}

type canonicalLine struct {
	rec   record
	bytes []byte
}

// writeRecord emits one compact JSON object with keys in schema field order.
func writeRecord(buf *bytes.Buffer, s *schema.Schema, rec record) error {
	buf.WriteByte('{')
	first := true
	for i, f := range s.Fields {
		if rec[i] == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := appendString(buf, f.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := appendValue(buf, rec[i]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func decodeCSV(input []byte) ([]map[string]any, error) {
	r := csv.NewReader(bytes.NewReader(input))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, types.ErrValueError.Wrapf("csv header: %s", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []map[string]any
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, types.ErrValueError.Wrapf("csv row %d: %s", line, err)
		}
		rec := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeJSONL(input []byte) ([]map[string]any, error) {
	var out []map[string]any
	for i, line := range bytes.Split(input, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		v, err := decodeJSONLine(line)
		if err != nil {
			return nil, types.ErrValueError.Wrapf("jsonl line %d: %s", i+1, err)
		}
		rec, ok := v.(map[string]any)
		if !ok {
			return nil, types.ErrTypeMismatch.Wrapf("jsonl line %d: expected object, got %T", i+1, v)
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodeJSONLine decodes exactly one JSON value, keeping numbers as
// json.Number so integers survive untouched.
func decodeJSONLine(line []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
