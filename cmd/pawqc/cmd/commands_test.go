package cmd

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/qc/qc/proof"
	"github.com/paw-chain/qc/qc/types"
)

const (
	rawTable = `{"y": 1e-5, "x": "1.5", "id": "a", "ts": "2024-03-01T10:00:00Z", "label": "cat"}
`
	canonicalTable = `{"id":"a","ts_utc":"2024-03-01T10:00:00.000Z","x":1.5,"y":1e-05,"label":"cat"}
`
)

// runCmd executes the root command with args and returns what it printed on
// stdout.
func runCmd(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(append([]string{"--log-level", "disabled"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func decode(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestCanonicalizeCmd(t *testing.T) {
	in := writeFile(t, "raw.jsonl", rawTable)

	out, err := runCmd(t, nil, "canonicalize", "--schema", "table@1", in)
	require.NoError(t, err)
	require.Equal(t, canonicalTable, out)

	out, err = runCmd(t, strings.NewReader(rawTable), "canonicalize", "--schema", "table@1", "-")
	require.NoError(t, err)
	require.Equal(t, canonicalTable, out)
}

func TestCanonicalizeCmdGzipCSV(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("label,y,x,ts_utc,id\ncat,1e-5,1.5,2024-03-01T10:00:00Z,a\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	in := writeFile(t, "raw.csv.gz", buf.String())

	out, err := runCmd(t, nil, "canonicalize", "--schema", "table@1", "--format", "csv", in)
	require.NoError(t, err)
	require.Equal(t, canonicalTable, out)
}

func TestCanonicalizeCmdUploadLimit(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(strings.Repeat(rawTable, 64)))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	in := writeFile(t, "raw.jsonl.gz", buf.String())

	t.Setenv("PAWQC_MAX_UPLOAD_BYTES", "256")
	_, err = runCmd(t, nil, "canonicalize", "--schema", "table@1", in)
	require.ErrorIs(t, err, types.ErrUploadTooLarge)
}

func TestCanonicalizeCmdOut(t *testing.T) {
	in := writeFile(t, "raw.jsonl", rawTable)
	dst := filepath.Join(t.TempDir(), "canon.jsonl")

	out, err := runCmd(t, nil, "canonicalize", "--schema", "table@1", "--out", dst, in)
	require.NoError(t, err)

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, canonicalTable, string(written))

	var res struct {
		SchemaID string `json:"schema_id"`
		Merkle   struct {
			Root       string `json:"root"`
			ChunkCount int    `json:"chunk_count"`
		} `json:"merkle"`
	}
	decode(t, out, &res)
	sum := sha256.Sum256([]byte(canonicalTable))
	require.Equal(t, "table@1", res.SchemaID)
	require.Equal(t, "0x"+hex.EncodeToString(sum[:]), res.Merkle.Root)
	require.Equal(t, 1, res.Merkle.ChunkCount)
}

func TestCanonicalizeCmdErrors(t *testing.T) {
	in := writeFile(t, "raw.jsonl", rawTable)

	_, err := runCmd(t, nil, "canonicalize", "--schema", "nope@1", in)
	require.ErrorIs(t, err, types.ErrUnknownSchema)

	_, err = runCmd(t, nil, "canonicalize", "--schema", "vectors@1", "--format", "csv", in)
	require.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestMerkleCmds(t *testing.T) {
	in := writeFile(t, "data.bin", "abcdefg")

	out, err := runCmd(t, nil, "merkle", "--chunk-size", "3", "--leaves", in)
	require.NoError(t, err)
	var res struct {
		Root       string   `json:"root"`
		Leaves     []string `json:"leaf_hashes"`
		ChunkCount int      `json:"chunk_count"`
		TotalBytes int64    `json:"total_bytes"`
	}
	decode(t, out, &res)
	require.Equal(t, 3, res.ChunkCount)
	require.Len(t, res.Leaves, 3)
	require.Equal(t, int64(7), res.TotalBytes)

	out, err = runCmd(t, nil, "merkle", "proof", "--chunk-size", "3", "--index", "2", in)
	require.NoError(t, err)
	var p struct {
		Root      string   `json:"root"`
		Leaf      string   `json:"leaf"`
		LeafCount int      `json:"leaf_count"`
		Proof     []string `json:"proof"`
	}
	decode(t, out, &p)
	require.Equal(t, res.Root, p.Root)
	require.Equal(t, res.Leaves[2], p.Leaf)

	verify := func(root string) bool {
		out, err := runCmd(t, nil, "merkle", "verify-proof",
			"--root", root, "--leaf", p.Leaf, "--index", "2", "--count", "3",
			"--proof", strings.Join(p.Proof, ","))
		require.NoError(t, err)
		var v map[string]bool
		decode(t, out, &v)
		return v["valid"]
	}
	require.True(t, verify(p.Root))
	require.False(t, verify(res.Leaves[0]))
}

func TestCompareCmd(t *testing.T) {
	a := writeFile(t, "a.jsonl", `{"id":"a","ts_utc":"2024-03-01T10:00:00.000Z","x":1.2,"y":2.0}
`)
	b := writeFile(t, "b.jsonl", `{"id":"a","ts_utc":"2024-03-01T10:00:00.000Z","x":1.2000001,"y":2.0}
`)

	type result struct {
		Equal    bool `json:"equal"`
		FastPath bool `json:"fast_path"`
		Summary  struct {
			Differences int `json:"differences"`
		} `json:"summary"`
	}

	out, err := runCmd(t, nil, "compare", "--schema", "table@1", a, a)
	require.NoError(t, err)
	var same result
	decode(t, out, &same)
	require.True(t, same.Equal)
	require.True(t, same.FastPath)

	out, err = runCmd(t, nil, "compare", "--schema", "table@1", a, b)
	require.NoError(t, err)
	var exact result
	decode(t, out, &exact)
	require.False(t, exact.Equal)
	require.Equal(t, 1, exact.Summary.Differences)

	out, err = runCmd(t, nil, "compare", "--schema", "table@1", "--mode", "fp_tolerant", a, b)
	require.NoError(t, err)
	var tolerant result
	decode(t, out, &tolerant)
	require.True(t, tolerant.Equal)
	require.False(t, tolerant.FastPath)

	out, err = runCmd(t, nil, "compare", "--schema", "table@1", "--mode", "fp_tolerant",
		"--rel-tol", "0", "--max-ulp", "0", a, b)
	require.NoError(t, err)
	var strict result
	decode(t, out, &strict)
	require.False(t, strict.Equal)

	_, err = runCmd(t, nil, "compare", "--mode", "loose", a, b)
	require.ErrorIs(t, err, types.ErrInvalidMode)
}

func TestPlanCmd(t *testing.T) {
	type plan struct {
		DupSelected   bool  `json:"dup_selected"`
		CanaryIndices []int `json:"canary_indices"`
		SpotIndices   []int `json:"spot_indices"`
	}

	out, err := runCmd(t, nil, "plan", "--seed", "0x"+strings.Repeat("ab", 32), "--package", "pkg-0", "--n-items", "1000")
	require.NoError(t, err)
	var explicit plan
	decode(t, out, &explicit)
	require.Equal(t, []int{972, 769, 309, 280, 756, 126, 95, 113, 901, 412}, explicit.CanaryIndices)

	t.Setenv("QC_MASTER_KEY", "test-master-key")
	out, err = runCmd(t, nil, "plan",
		"--job", "job-1", "--window", "2025-01", "--tier", "gold",
		"--package", "pkg-0", "--n-items", "100", "--epoch", "epoch-7")
	require.NoError(t, err)
	var derived plan
	decode(t, out, &derived)
	require.False(t, derived.DupSelected)
	require.Equal(t, []int{19, 40, 86, 85, 34, 41, 21, 42, 77, 6}, derived.CanaryIndices)
	require.Len(t, derived.SpotIndices, 20)

	_, ok := os.LookupEnv("QC_MASTER_KEY")
	require.False(t, ok, "master key is removed from the environment once sealed")

	_, err = runCmd(t, nil, "plan", "--package", "pkg-0", "--n-items", "100")
	require.ErrorIs(t, err, types.ErrMissingMasterKey)

	_, err = runCmd(t, nil, "plan", "--seed", "zz", "--package", "pkg-0", "--n-items", "100")
	require.ErrorIs(t, err, types.ErrInvalidSeed)
}

func TestDisputeCmds(t *testing.T) {
	var d struct {
		Outcome string  `json:"outcome"`
		PValue  float64 `json:"p_value"`
	}
	out, err := runCmd(t, nil, "dispute", "--x", "4", "--n", "100")
	require.NoError(t, err)
	decode(t, out, &d)
	require.Equal(t, "accept", d.Outcome)

	out, err = runCmd(t, nil, "dispute", "--x", "5", "--n", "100")
	require.NoError(t, err)
	decode(t, out, &d)
	require.Equal(t, "reject_slash", d.Outcome)

	_, err = runCmd(t, nil, "dispute", "--x", "5", "--n", "0")
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	out, err = runCmd(t, nil, "detection", "--n-items", "100000", "--eps", "0.01")
	require.NoError(t, err)
	var report struct {
		NCanary int `json:"n_canary"`
		NSpot   int `json:"n_spot"`
		Rows    []struct {
			PDetect float64 `json:"p_detect"`
		} `json:"rows"`
	}
	decode(t, out, &report)
	require.Equal(t, 100, report.NCanary)
	require.Equal(t, 500, report.NSpot)
	require.Len(t, report.Rows, 1)

	out, err = runCmd(t, nil, "tune", "--n-items", "1000", "--dup-rates", "0.01,0.05", "--spot-rates", "0.01,0.02,0.05")
	require.NoError(t, err)
	var cells []map[string]any
	decode(t, out, &cells)
	require.Len(t, cells, 6)

	_, err = runCmd(t, nil, "tune", "--n-items", "1000", "--dup-rates", "lots")
	require.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestProofCmds(t *testing.T) {
	rows := []string{"1010", "0110"}
	cert := writeFile(t, "cert.json", `{"matrix_rows":["1010","0110"],"vector_bits":"1111"}`)

	out, err := runCmd(t, nil, "verify-gf2", "--commitment", proof.CommitHash(rows), cert)
	require.NoError(t, err)
	var v struct {
		Valid             bool   `json:"valid"`
		Commitment        string `json:"commitment"`
		CommitmentMatches *bool  `json:"commitment_matches"`
	}
	decode(t, out, &v)
	require.True(t, v.Valid)
	require.Equal(t, proof.CommitHash(rows), v.Commitment)
	require.NotNil(t, v.CommitmentMatches)
	require.True(t, *v.CommitmentMatches)

	out, err = runCmd(t, nil, "commit", cert)
	require.NoError(t, err)
	var c map[string]string
	decode(t, out, &c)
	require.Equal(t, proof.CommitHash(rows), c["commitment"])

	bad := writeFile(t, "bad.json", `{"matrix_rows":["1010","011"],"vector_bits":"1111"}`)
	_, err = runCmd(t, nil, "verify-gf2", bad)
	require.ErrorIs(t, err, types.ErrRowLengthMismatch)

	out, err = runCmd(t, nil, "gcd", "--n", "91", "--x", "10", "--y", "3")
	require.NoError(t, err)
	var g struct {
		Factor     string `json:"factor"`
		NonTrivial bool   `json:"non_trivial"`
	}
	decode(t, out, &g)
	require.Equal(t, "7", g.Factor)
	require.True(t, g.NonTrivial)
}

func TestSchemasCmd(t *testing.T) {
	out, err := runCmd(t, nil, "schemas")
	require.NoError(t, err)
	var list map[string][]string
	decode(t, out, &list)
	require.Contains(t, list["schemas"], "table@1")
	require.Contains(t, list["schemas"], "vectors@1")

	out, err = runCmd(t, nil, "schemas", "table@1")
	require.NoError(t, err)
	require.Contains(t, out, "schema_id: table@1")
	require.Contains(t, out, "primary_key:")
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc.prom")
	_, err := runCmd(t, nil, "--metrics-file", path, "dispute", "--x", "0", "--n", "10")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "paw_qc_dispute_decisions_total")
}
