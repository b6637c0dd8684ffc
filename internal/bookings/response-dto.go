package bookings

// CheckoutFailure is returned as the error body when a confirm did not commit.
type CheckoutFailure struct {
	Error            string   `json:"error"`
	State            State    `json:"state"`
	FailureReason    string   `json:"failure_reason,omitempty"`
	ConflictingSeats []string `json:"seat_ids,omitempty"`
}
