package venues

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"showtime/internal/shared/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Expand lists every seat id of the layout in layout order. The result is a pure
// function of the layout; calling it twice yields the same slice.
func Expand(l Layout) ([]string, error) {
	positions, err := Positions(l)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = p.SeatID
	}
	return ids, nil
}

// Positions validates the layout and walks it seat by seat.
func Positions(l Layout) ([]Position, error) {
	if err := Validate(l); err != nil {
		return nil, err
	}
	return walk(l), nil
}

// Capacity is the number of seats the layout defines.
func Capacity(l Layout) int {
	switch l.Kind {
	case KindRowBased:
		if l.RowBased == nil {
			return 0
		}
		return len(l.RowBased.Rows) * l.RowBased.SeatsPerRow
	case KindLeveled:
		if l.Leveled == nil {
			return 0
		}
		total := 0
		for _, lv := range l.Leveled.Levels {
			total += len(lv.Rows) * lv.SeatsPerRow
		}
		return total
	case KindSectioned:
		if l.Sectioned == nil {
			return 0
		}
		total := 0
		for _, s := range l.Sectioned.Sections {
			total += len(s.Rows) * s.SeatsPerRow
		}
		return total
	}
	return 0
}

// Validate checks the layout shape and that no two positions share a seat id.
func Validate(l Layout) error {
	var target interface{}
	switch l.Kind {
	case KindRowBased:
		target = l.RowBased
	case KindLeveled:
		target = l.Leveled
	case KindSectioned:
		target = l.Sectioned
	default:
		return &apperrors.ConfigurationError{Subject: "layout", Reason: "layout must define rows, levels or sections"}
	}

	if target == nil || isNilVariant(l) {
		return &apperrors.ConfigurationError{Subject: "layout", Reason: fmt.Sprintf("%s layout has no body", l.Kind)}
	}

	if err := validate.Struct(target); err != nil {
		return &apperrors.ConfigurationError{Subject: "layout", Reason: describeValidation(err)}
	}

	seen := make(map[string]struct{}, Capacity(l))
	for _, p := range walk(l) {
		if _, dup := seen[p.SeatID]; dup {
			return &apperrors.ConfigurationError{
				Subject: "layout",
				Reason:  fmt.Sprintf("seat id %s is produced more than once", p.SeatID),
			}
		}
		seen[p.SeatID] = struct{}{}
	}
	return nil
}

// LevelCode is the seat id prefix of a level type.
func LevelCode(levelType string) string {
	switch levelType {
	case LevelTypeOrchestra:
		return "O"
	case LevelTypeDress:
		return "D"
	default:
		return "GC"
	}
}

func walk(l Layout) []Position {
	positions := make([]Position, 0, Capacity(l))

	switch l.Kind {
	case KindRowBased:
		aisles := make(map[int]bool, len(l.RowBased.AisleAfter))
		for _, a := range l.RowBased.AisleAfter {
			aisles[a] = true
		}
		for _, row := range l.RowBased.Rows {
			for n := 1; n <= l.RowBased.SeatsPerRow; n++ {
				positions = append(positions, Position{
					SeatID:     row + strconv.Itoa(n),
					Row:        row,
					RowLabel:   row,
					Number:     n,
					AisleAfter: aisles[n] && n < l.RowBased.SeatsPerRow,
				})
			}
		}

	case KindLeveled:
		for _, lv := range l.Leveled.Levels {
			code := LevelCode(lv.Type)
			for _, row := range lv.Rows {
				for n := 1; n <= lv.SeatsPerRow; n++ {
					positions = append(positions, Position{
						SeatID:   code + row + strconv.Itoa(n),
						Group:    lv.Name,
						Row:      row,
						RowLabel: code + row,
						Number:   n,
					})
				}
			}
		}

	case KindSectioned:
		for _, s := range l.Sectioned.Sections {
			for _, row := range s.Rows {
				for n := 1; n <= s.SeatsPerRow; n++ {
					positions = append(positions, Position{
						SeatID:   row + strconv.Itoa(n),
						Group:    s.Name,
						Row:      row,
						RowLabel: row,
						Number:   n,
					})
				}
			}
		}
	}

	return positions
}

func isNilVariant(l Layout) bool {
	switch l.Kind {
	case KindRowBased:
		return l.RowBased == nil
	case KindLeveled:
		return l.Leveled == nil
	case KindSectioned:
		return l.Sectioned == nil
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
