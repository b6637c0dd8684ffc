package events

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed catalog.json
var catalogJSON []byte

// LoadCatalog decodes the event catalog shipped with the binary.
func LoadCatalog() ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(catalogJSON, &events); err != nil {
		return nil, fmt.Errorf("failed to decode embedded catalog: %w", err)
	}
	return events, nil
}
