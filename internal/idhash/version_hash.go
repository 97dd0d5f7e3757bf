package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ComputeVersionHash computes a deterministic content hash for a strategy
// version using SHA256 over the strategy name, version string, and the
// parameter map in sorted key order.
// Formula: SHA256(strategy|version|k1=v1|k2=v2|...)
// Returns hex-encoded hash (64 characters).
func ComputeVersionHash(strategy, version string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s", strategy, version)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, params[k])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}
