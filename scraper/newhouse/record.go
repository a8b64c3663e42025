package newhouse

import (
	"encoding/json"
	"fmt"

	"newhouse-analytics/models"
)

// decodeCards parses the JSON the page script produced.
func decodeCards(raw string) ([]card, error) {
	var cards []card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, fmt.Errorf("card JSON: %w", err)
	}
	return cards, nil
}

// buildRecord shapes one card into the raw record layout the normalizer
// expects: location capped at district/street/detail, rooms and prices kept
// as free text.
func buildRecord(c card) models.RawRecord {
	loc := make([]any, 0, 3)
	for i, part := range c.Location {
		if i == 3 {
			break
		}
		loc = append(loc, part)
	}
	rooms := make([]any, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		rooms = append(rooms, r)
	}

	return models.RawRecord{
		"name":        c.Name,
		"type":        c.Type,
		"location":    loc,
		"room":        rooms,
		"area":        c.Area,
		"total_price": c.Total,
		"unit_price":  c.Unit,
	}
}
