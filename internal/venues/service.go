package venues

// Service exposes layout resolution to operators preparing an event catalog.
type Service interface {
	Preview(layout Layout) (*LayoutPreviewResponse, error)
}

type service struct{}

func NewService() Service {
	return &service{}
}

// Preview validates the layout and returns its seats grouped for drawing.
func (s *service) Preview(layout Layout) (*LayoutPreviewResponse, error) {
	positions, err := Positions(layout)
	if err != nil {
		return nil, err
	}

	resp := &LayoutPreviewResponse{
		Kind:     layout.Kind,
		Capacity: len(positions),
	}

	var current *RowPreview
	for _, p := range positions {
		if current == nil || current.Group != p.Group || current.RowLabel != p.RowLabel {
			resp.Rows = append(resp.Rows, RowPreview{Group: p.Group, RowLabel: p.RowLabel})
			current = &resp.Rows[len(resp.Rows)-1]
		}
		current.Seats = append(current.Seats, p)
	}
	return resp, nil
}
