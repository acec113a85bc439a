package proof

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/paw-chain/qc/qc/metrics"
	"github.com/paw-chain/qc/qc/types"
)

// Certificate is a null-space certificate: VectorBits claims to lie in the
// kernel of the matrix given by MatrixRows.
type Certificate struct {
	MatrixRows []string `json:"matrix_rows"`
	VectorBits string   `json:"vector_bits"`
}

// Verification is the outcome of checking a certificate.
type Verification struct {
	Valid      bool   `json:"valid"`
	Commitment string `json:"commitment"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
}

// LoadCertificate decodes a JSON certificate. Unknown fields are rejected.
func LoadCertificate(r io.Reader) (*Certificate, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var raw struct {
		MatrixRows *[]string `json:"matrix_rows"`
		VectorBits *string   `json:"vector_bits"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, types.ErrInvalidCertificate.Wrap(err.Error())
	}
	if raw.MatrixRows == nil {
		return nil, types.ErrInvalidCertificate.Wrap("matrix_rows is required")
	}
	if raw.VectorBits == nil {
		return nil, types.ErrInvalidCertificate.Wrap("vector_bits is required")
	}
	return &Certificate{MatrixRows: *raw.MatrixRows, VectorBits: *raw.VectorBits}, nil
}

// VerifyCertificate checks cert and commits to its rows.
func VerifyCertificate(cert *Certificate) (*Verification, error) {
	m := metrics.NewQCMetrics()
	if cert == nil {
		m.CertificateVerifications.WithLabelValues("error").Inc()
		return nil, types.ErrInvalidCertificate.Wrap("nil certificate")
	}

	valid, err := VerifyGF2(cert.MatrixRows, cert.VectorBits)
	if err != nil {
		m.CertificateVerifications.WithLabelValues("error").Inc()
		return nil, err
	}
	m.CertificateVerifications.WithLabelValues(strconv.FormatBool(valid)).Inc()

	v, _ := parseBits(cert.VectorBits)
	return &Verification{
		Valid:      valid,
		Commitment: CommitHash(cert.MatrixRows),
		Rows:       len(cert.MatrixRows),
		Columns:    v.n,
	}, nil
}
