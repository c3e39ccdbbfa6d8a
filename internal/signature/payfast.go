package signature

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// PayfastSignature computes the MD5 signature over every field except the
// signature itself: keys sorted lexicographically, values url-encoded with
// spaces as '+', joined as key=value pairs, with the passphrase appended
// when one is configured (required in production, optional in sandbox).
func PayfastSignature(params map[string]string, passphrase string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(payfastEncode(params[k]))
	}
	if passphrase != "" {
		sb.WriteString("&passphrase=")
		sb.WriteString(payfastEncode(passphrase))
	}

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// VerifyPayfast checks the posted signature against the recomputed one.
// Hex strings must match exactly.
func VerifyPayfast(params map[string]string, passphrase string) bool {
	received, ok := params["signature"]
	if !ok || received == "" {
		return false
	}
	return PayfastSignature(params, passphrase) == received
}

// payfastEncode mirrors PHP urlencode: query escaping with space as '+'.
func payfastEncode(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%20", "+")
}
