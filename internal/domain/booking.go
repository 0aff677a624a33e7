package domain

import "time"

// BookingEvent is emitted once for every completed booking.
type BookingEvent struct {
	BookingID     string    `json:"bookingId"`
	SessionID     string    `json:"sessionId"`
	CallerAddress string    `json:"callerAddress,omitempty"`
	Language      Language  `json:"language"`
	Slots         Slots     `json:"slots"`
	ServiceName   string    `json:"serviceName,omitempty"`
	CompletedAt   time.Time `json:"completedAt"`
}

// TrackingResult is the outcome of looking up an order number.
type TrackingResult struct {
	OrderNumber string `json:"orderNumber"`
	Found       bool   `json:"found"`
	BookingID   string `json:"bookingId,omitempty"`
	Status      string `json:"status,omitempty"`
	ServiceID   string `json:"serviceId,omitempty"`
	Date        string `json:"date,omitempty"`
}
