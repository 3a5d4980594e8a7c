// Package dataset ships the built-in retailer list. It is embedded at build
// time and seeded into storage on first run; users never edit these records
// directly.
package dataset

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"signup-agent/internal/domain/entity"
)

//go:embed retailers.json
var raw []byte

// Load decodes the bundled retailer dataset.
func Load() ([]entity.Retailer, error) {
	var retailers []entity.Retailer
	if err := json.Unmarshal(raw, &retailers); err != nil {
		return nil, fmt.Errorf("decode bundled retailers: %w", err)
	}
	return retailers, nil
}
