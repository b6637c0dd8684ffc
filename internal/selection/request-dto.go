package selection

type StartSessionRequest struct {
	EventID int `json:"event_id" binding:"required,gt=0"`
}
