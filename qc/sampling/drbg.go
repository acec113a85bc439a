package sampling

import (
	"crypto/hmac"
	"encoding/binary"
	"math/big"

	sha256 "github.com/minio/sha256-simd"
)

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// DeriveJobSeed binds a job's identity and the current secret epoch to the
// master key: HMAC-SHA256(master, "job|window|tier|epoch").
func DeriveJobSeed(masterKey []byte, jobID, window, tier, secretEpoch string) []byte {
	material := jobID + "|" + window + "|" + tier + "|" + secretEpoch
	return hmacSHA256(masterKey, []byte(material))
}

// DerivePackageSeed is HMAC-SHA256(jobSeed, packageID).
func DerivePackageSeed(jobSeed []byte, packageID string) []byte {
	return hmacSHA256(jobSeed, []byte(packageID))
}

// DRBG returns the counter-th output of the HMAC generator keyed by seed, as
// an unsigned 256-bit integer.
func DRBG(seed []byte, counter uint64) *big.Int {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)
	return new(big.Int).SetBytes(hmacSHA256(seed, msg[:]))
}

// ChooseIndices draws k distinct indices from [0, n) in the order the
// generator yields them. Fewer than k are returned only when k > n.
func ChooseIndices(seed []byte, n, k int) []int {
	if n <= 0 || k <= 0 {
		return []int{}
	}

	size := big.NewInt(int64(n))
	seen := make(map[int]struct{}, min(k, n))
	out := make([]int, 0, min(k, n))
	idx := new(big.Int)
	for counter := uint64(0); len(out) < k && len(seen) < n; counter++ {
		idx.Mod(DRBG(seed, counter), size)
		i := int(idx.Int64())
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}
