package ecpay

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Verdict is the tri-state result of CheckMacValue verification.
// Malformed input is its own outcome so callers never have to catch anything.
type Verdict int

const (
	SignatureValid Verdict = iota
	SignatureInvalid
	SignatureMalformed
)

func (v Verdict) String() string {
	switch v {
	case SignatureValid:
		return "valid"
	case SignatureInvalid:
		return "invalid"
	default:
		return "malformed"
	}
}

// MacField is the form field carrying the signature itself; it is never part
// of the signed payload.
const MacField = "CheckMacValue"

// The gateway encodes with .NET's UrlEncode, which leaves these characters
// bare. Undo them after Go's QueryEscape so both sides agree.
var dotnetEscapes = strings.NewReplacer(
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
)

// Sign computes the CheckMacValue over fields: keys sorted, wrapped with
// HashKey/HashIV, URL-encoded, lowercased, SHA-256, uppercase hex.
// A CheckMacValue entry in fields is ignored.
func Sign(fields map[string]string, hashKey, hashIV string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == MacField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(hashKey)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	b.WriteString("&HashIV=")
	b.WriteString(hashIV)

	encoded := dotnetEscapes.Replace(strings.ToLower(url.QueryEscape(b.String())))

	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify recomputes the signature and compares it against receivedMac.
// Field ordering in the map is irrelevant. An empty mac or empty field set is
// malformed rather than invalid.
func Verify(fields map[string]string, receivedMac, hashKey, hashIV string) Verdict {
	if receivedMac == "" || len(fields) == 0 {
		return SignatureMalformed
	}
	want := Sign(fields, hashKey, hashIV)
	got := strings.ToUpper(strings.TrimSpace(receivedMac))
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1 {
		return SignatureValid
	}
	return SignatureInvalid
}
