package merkle

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// addressPattern matches the syntactic address shape required by spec
// §3: an 0x/0X prefix followed by exactly 40 hex digits.
var addressPattern = regexp.MustCompile(`^(0x|0X)[0-9A-Fa-f]{40}$`)

const zeroAddressHex = "0000000000000000000000000000000000000000"

// ValidateAddress checks addr against the syntactic pattern, rejects
// the zero address, verifies its EIP-55 checksum casing (accepting
// all-lowercase and all-uppercase inputs per standard rules), and
// returns the canonical checksummed form.
func ValidateAddress(addr string) (string, error) {
	if !addressPattern.MatchString(addr) {
		return "", fmt.Errorf("address %q does not match the required 0x-prefixed 40 hex digit shape", addr)
	}

	hexPart := addr[2:]
	lower := strings.ToLower(hexPart)
	if lower == zeroAddressHex {
		return "", fmt.Errorf("zero address is not a valid whitelist entry")
	}

	upper := strings.ToUpper(hexPart)
	checksummed := toChecksumHex(lower)

	switch hexPart {
	case lower, upper, checksummed:
		return "0x" + checksummed, nil
	default:
		return "", fmt.Errorf("address %q fails EIP-55 checksum validation", addr)
	}
}

// toChecksumHex computes the EIP-55 mixed-case checksum of a lowercase
// 40 hex-digit address body (no 0x prefix).
func toChecksumHex(lowerHex string) string {
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write([]byte(lowerHex))
	digest := hash.Sum(nil)

	out := make([]byte, len(lowerHex))
	for i, c := range []byte(lowerHex) {
		if c >= '0' && c <= '9' {
			out[i] = c
			continue
		}
		// digest byte i/2 holds two nibbles; the high nibble covers
		// even character positions, the low nibble covers odd ones.
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 32 // uppercase the ASCII letter
		} else {
			out[i] = c
		}
	}
	return string(out)
}
