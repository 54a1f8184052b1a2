// Package manifest retrieves the remote release manifest and derives the
// fingerprint used to detect release changes between runs.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DefaultURL is the Factorio checksum listing.
const DefaultURL = "https://factorio.com/download/sha256sums/"

// Fingerprint is the opaque value compared across runs.
type Fingerprint string

// FingerprintMode selects how a manifest is reduced to a Fingerprint.
type FingerprintMode string

const (
	// FingerprintRaw keeps the trimmed manifest text itself.
	FingerprintRaw FingerprintMode = "raw"
	// FingerprintSHA256 keeps the hex SHA-256 of the trimmed manifest text.
	FingerprintSHA256 FingerprintMode = "sha256"
)

// Manifest is one retrieved copy of the remote release listing.
type Manifest struct {
	URL       string
	Body      string
	FetchedAt time.Time
}

// Fingerprint reduces the manifest to its comparison value. Leading and
// trailing whitespace is trimmed first, so a change that only adds or removes
// whitespace at either end of the body is not a change. Every other byte,
// interior whitespace included, counts.
func (m Manifest) Fingerprint(mode FingerprintMode) (Fingerprint, error) {
	body := strings.TrimSpace(m.Body)
	switch mode {
	case FingerprintRaw, "":
		return Fingerprint(body), nil
	case FingerprintSHA256:
		sum := sha256.Sum256([]byte(body))
		return Fingerprint(hex.EncodeToString(sum[:])), nil
	default:
		return "", fmt.Errorf("unknown fingerprint mode %q", mode)
	}
}
