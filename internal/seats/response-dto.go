package seats

// AvailabilitySummary is returned alongside a record so clients need not count.
type AvailabilitySummary struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Booked    int `json:"booked"`
}

type AvailabilityResponse struct {
	*AvailabilityRecord
	Summary AvailabilitySummary `json:"summary"`
}

func NewAvailabilityResponse(record *AvailabilityRecord) AvailabilityResponse {
	resp := AvailabilityResponse{AvailabilityRecord: record}
	for _, status := range record.Seats {
		resp.Summary.Total++
		if status == StatusBooked {
			resp.Summary.Booked++
		} else {
			resp.Summary.Available++
		}
	}
	return resp
}
