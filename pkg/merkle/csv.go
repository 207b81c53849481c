package merkle

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/wtreehq/merkletree/pkg/types"
)

// MaxRows is the largest number of data rows a single whitelist CSV may
// contain.
const MaxRows = 100000

const expectedHeader = "WhitelistAddress,WhitelistAmount"

// ParseCSV parses raw whitelist CSV bytes into validated entries. The
// header must be exactly "WhitelistAddress,WhitelistAmount"; blank
// lines are skipped; every data row must pass address and amount
// validation, and no two rows may resolve (after checksum
// normalization) to the same address.
func ParseCSV(raw []byte) ([]types.WhitelistEntry, error) {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV: %w", err)
	}

	var rows [][]string
	headerSeen := false
	for i, rec := range records {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if !headerSeen {
			got := strings.Join(trimAll(rec), ",")
			if got != expectedHeader {
				return nil, fmt.Errorf("line %d: expected header %q, got %q", i+1, expectedHeader, got)
			}
			headerSeen = true
			continue
		}
		rows = append(rows, rec)
	}

	if !headerSeen {
		return nil, fmt.Errorf("missing required header %q", expectedHeader)
	}

	if len(rows) > MaxRows {
		return nil, fmt.Errorf("whitelist has %d rows, exceeding the maximum of %d", len(rows), MaxRows)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("whitelist must contain at least one row")
	}

	entries := make([]types.WhitelistEntry, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, rec := range rows {
		line := i + 2 // account for the header line
		if len(rec) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(rec))
		}

		addr, err := ValidateAddress(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("line %d: duplicate address %s", line, addr)
		}
		seen[addr] = struct{}{}

		wei, err := ParseAmountWei(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		entries = append(entries, types.WhitelistEntry{
			Address:   addr,
			AmountWei: wei.String(),
		})
	}

	return entries, nil
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
