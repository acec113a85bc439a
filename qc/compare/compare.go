// Package compare decides whether two canonical JSON Lines streams carry the
// same results.
//
// Equal Merkle roots settle a comparison without reading a single record; only
// streams with differing roots are walked field by field.
package compare

import (
	"io"
	"time"

	"cosmossdk.io/log"
	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/qc/qc/merkle"
	"github.com/paw-chain/qc/qc/metrics"
	"github.com/paw-chain/qc/qc/schema"
)

// Comparator compares canonical streams for the schemas of a registry. It holds
// no per-call state.
type Comparator struct {
	registry *schema.Registry
	logger   log.Logger
	metrics  *metrics.QCMetrics
}

// NewComparator creates a comparator over reg. A nil logger discards output.
func NewComparator(reg *schema.Registry, logger log.Logger) *Comparator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Comparator{
		registry: reg,
		logger:   logger.With("module", "qc/compare"),
		metrics:  metrics.NewQCMetrics(),
	}
}

// Compare hashes both streams concurrently and returns equal as soon as the
// roots match. Otherwise both streams are rewound and compared record by
// record. Compare owns a and b: any that implement io.Closer are closed before
// it returns, whatever the outcome.
func (c *Comparator) Compare(a, b io.ReadSeeker, schemaID string, opts Options) (res *Result, err error) {
	defer func() {
		if cerr := closeAll(a, b); err == nil && cerr != nil {
			res, err = nil, cerr
		}
	}()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s, err := c.registry.Get(schemaID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var rootA, rootB merkle.Hash
	g := new(errgroup.Group)
	g.Go(func() error {
		r, err := merkle.Stream(a, merkle.DefaultChunkSize)
		if err != nil {
			return err
		}
		rootA = r.Root
		return nil
	})
	g.Go(func() error {
		r, err := merkle.Stream(b, merkle.DefaultChunkSize)
		if err != nil {
			return err
		}
		rootB = r.Root
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if rootA == rootB {
		res = &Result{
			Equal:    true,
			Mode:     opts.Mode,
			FastPath: true,
			Summary:  Summary{SchemaID: s.ID},
		}
		c.metrics.FastPathHits.WithLabelValues(string(opts.Mode)).Inc()
		c.record(res, "fast", start)
		return res, nil
	}

	if _, err := a.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := b.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	res, err = c.walk(a, b, s, opts)
	if err != nil {
		return nil, err
	}
	c.record(res, "slow", start)
	return res, nil
}

// CompareStreams runs the record-by-record comparison without hashing first.
// Like Compare it closes a and b if they implement io.Closer.
func (c *Comparator) CompareStreams(a, b io.Reader, schemaID string, opts Options) (res *Result, err error) {
	defer func() {
		if cerr := closeAll(a, b); err == nil && cerr != nil {
			res, err = nil, cerr
		}
	}()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s, err := c.registry.Get(schemaID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err = c.walk(a, b, s, opts)
	if err != nil {
		return nil, err
	}
	c.record(res, "slow", start)
	return res, nil
}

func (c *Comparator) record(res *Result, path string, start time.Time) {
	verdict := "equal"
	if !res.Equal {
		verdict = "different"
	}
	c.metrics.Comparisons.WithLabelValues(string(res.Mode), verdict).Inc()
	c.metrics.ComparisonDuration.WithLabelValues(string(res.Mode), path).Observe(time.Since(start).Seconds())
	if path == "slow" {
		c.metrics.ComparisonDifferences.Observe(float64(res.Summary.Differences))
	}

	c.logger.Debug("comparison finished",
		"schema_id", res.Summary.SchemaID,
		"mode", res.Mode,
		"path", path,
		"equal", res.Equal,
		"records", res.Summary.RecordCount,
		"differences", res.Summary.Differences,
	)
}

func closeAll(streams ...any) error {
	var first error
	for _, s := range streams {
		if cl, ok := s.(io.Closer); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
