package venues

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type LayoutKind string

const (
	KindRowBased  LayoutKind = "row_based"
	KindLeveled   LayoutKind = "leveled"
	KindSectioned LayoutKind = "sectioned"
)

// Level types that get a dedicated seat id prefix. Any other type uses the gallery prefix.
const (
	LevelTypeOrchestra = "orchestra"
	LevelTypeDress     = "dress"
)

// Layout is the seating geometry of an event. Exactly one of the variant pointers
// matching Kind is set.
type Layout struct {
	Kind      LayoutKind
	RowBased  *RowBasedLayout
	Leveled   *LeveledLayout
	Sectioned *SectionedLayout
}

type RowBasedLayout struct {
	Rows        []string `json:"rows" validate:"required,min=1,dive,required"`
	SeatsPerRow int      `json:"seatsPerRow" validate:"gt=0"`
	// AisleAfter lists seat numbers followed by an aisle; rendering only
	AisleAfter []int `json:"aisles,omitempty" validate:"omitempty,dive,gt=0"`
}

type LeveledLayout struct {
	Levels []Level `json:"levels" validate:"required,min=1,dive"`
}

type Level struct {
	Name        string   `json:"name" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Rows        []string `json:"rows" validate:"required,min=1,dive,required"`
	SeatsPerRow int      `json:"seatsPerRow" validate:"gt=0"`
}

type SectionedLayout struct {
	Sections []Section `json:"sections" validate:"required,min=1,dive"`
}

type Section struct {
	Name        string   `json:"name" validate:"required"`
	Rows        []string `json:"rows" validate:"required,min=1,dive,required"`
	SeatsPerRow int      `json:"seatsPerRow" validate:"gt=0"`
}

// Position is one seat of a layout with the detail needed to draw it.
type Position struct {
	SeatID     string `json:"seatId"`
	Group      string `json:"group,omitempty"`
	Row        string `json:"row"`
	RowLabel   string `json:"rowLabel"`
	Number     int    `json:"number"`
	AisleAfter bool   `json:"aisleAfter,omitempty"`
}

// UnmarshalJSON detects the variant by key with precedence rows, levels, sections.
// An object with none of them decodes to a Layout with an empty Kind, which
// Validate reports as a configuration error.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("layout must be a JSON object: %w", err)
	}

	*l = Layout{}
	switch {
	case hasKey(fields, "rows"):
		var v RowBasedLayout
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode row based layout: %w", err)
		}
		l.Kind, l.RowBased = KindRowBased, &v
	case hasKey(fields, "levels"):
		var v LeveledLayout
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode leveled layout: %w", err)
		}
		l.Kind, l.Leveled = KindLeveled, &v
	case hasKey(fields, "sections"):
		var v SectionedLayout
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode sectioned layout: %w", err)
		}
		l.Kind, l.Sectioned = KindSectioned, &v
	}
	return nil
}

func (l Layout) MarshalJSON() ([]byte, error) {
	switch {
	case l.Kind == KindRowBased && l.RowBased != nil:
		return json.Marshal(l.RowBased)
	case l.Kind == KindLeveled && l.Leveled != nil:
		return json.Marshal(l.Leveled)
	case l.Kind == KindSectioned && l.Sectioned != nil:
		return json.Marshal(l.Sectioned)
	default:
		return []byte("{}"), nil
	}
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	raw, ok := m[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
