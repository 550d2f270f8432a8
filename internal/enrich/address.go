package enrich

import (
	"fmt"
	"strings"

	"github.com/khoward12/yard-data-aggregation/internal/record"
)

// ParsePlaceName splits a comma-delimited place name of the form
// "123 Main St, Springfield, IL 62704, USA" into its components. Place names
// that do not match the expected four-component shape, or whose state/zip
// component is not exactly "ST 12345", produce an explicit error rather than
// an address with wrong offsets.
func ParsePlaceName(placeName string) (record.Address, error) {
	parts := strings.Split(placeName, ",")
	if len(parts) != 4 {
		return record.Address{}, fmt.Errorf("place name %q: expected 4 comma-separated components, got %d", placeName, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	stateZip := strings.Fields(parts[2])
	if len(stateZip) != 2 {
		return record.Address{}, fmt.Errorf("place name %q: state/zip component %q is not \"ST ZIP\"", placeName, parts[2])
	}

	return record.Address{
		Street:  parts[0],
		City:    parts[1],
		State:   stateZip[0],
		Zip:     stateZip[1],
		Country: parts[3],
	}, nil
}
