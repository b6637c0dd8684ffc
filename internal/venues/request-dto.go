package venues

type LayoutPreviewRequest struct {
	Layout Layout `json:"layout"`
}
