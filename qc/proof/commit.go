package proof

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	sha256 "github.com/minio/sha256-simd"
)

// CommitHash commits to matrix rows: 0x-prefixed SHA-256 of the trimmed rows
// joined by '\n'. Transport whitespace around a row does not change it.
func CommitHash(rows []string) string {
	trimmed := make([]string, len(rows))
	for i, r := range rows {
		trimmed[i] = strings.TrimSpace(r)
	}
	sum := sha256.Sum256([]byte(strings.Join(trimmed, "\n")))
	return "0x" + hex.EncodeToString(sum[:])
}

// VerifyCommitment reports whether rows match a previously published
// commitment. The prefix and hex case of published are not significant.
func VerifyCommitment(rows []string, published string) bool {
	want := strings.ToLower(strings.TrimSpace(published))
	if !strings.HasPrefix(want, "0x") {
		want = "0x" + want
	}
	return subtle.ConstantTimeCompare([]byte(CommitHash(rows)), []byte(want)) == 1
}
