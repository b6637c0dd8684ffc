package bookings

type StartCheckoutRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type ChoosePaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}
