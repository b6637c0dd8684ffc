package venues

type LayoutPreviewResponse struct {
	Kind     LayoutKind   `json:"kind"`
	Capacity int          `json:"capacity"`
	Rows     []RowPreview `json:"rows"`
}

type RowPreview struct {
	Group    string     `json:"group,omitempty"`
	RowLabel string     `json:"rowLabel"`
	Seats    []Position `json:"seats"`
}
