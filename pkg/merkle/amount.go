package merkle

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// amountPattern matches a non-negative, optionally-fractional decimal
// string: the human-entered token amount column of a whitelist CSV.
var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// weiScale is the number of fractional decimal digits a token amount
// carries once scaled to its smallest (wei) unit.
const weiScale = 18

// ParseAmountWei validates a raw decimal amount string (length 1-30,
// non-negative, at most weiScale fractional digits) and returns its
// value scaled to an integer count of wei.
func ParseAmountWei(raw string) (*big.Int, error) {
	if len(raw) < 1 || len(raw) > 30 {
		return nil, fmt.Errorf("amount %q must be between 1 and 30 characters long", raw)
	}
	if !amountPattern.MatchString(raw) {
		return nil, fmt.Errorf("amount %q is not a non-negative decimal number", raw)
	}

	intPart, fracPart, _ := strings.Cut(raw, ".")
	if len(fracPart) > weiScale {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", raw, weiScale)
	}
	fracPadded := fracPart + strings.Repeat("0", weiScale-len(fracPart))

	wei, ok := new(big.Int).SetString(intPart+fracPadded, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q could not be parsed as an integer wei value", raw)
	}
	return wei, nil
}
