package tickets

type VerifyTicketRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}
