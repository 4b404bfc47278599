package models

// DriverProfile is the backend profile record. Only presence related fields are mapped.
type DriverProfile struct {
	ID                 string `json:"id,omitempty"`
	FirstName          string `json:"first_name,omitempty"`
	LastName           string `json:"last_name,omitempty"`
	VehicleType        string `json:"vehicle_type,omitempty"`
	VehiclePlateNumber string `json:"vehicle_plate_number,omitempty"`
	Status             string `json:"status,omitempty"`
	IsOnline           bool   `json:"is_online"`
	IsSuspended        bool   `json:"is_suspended"`
	AvailabilityStatus string `json:"availability_status,omitempty"`
	DeclineCount       int    `json:"decline_count"`
	MissedRequests     int    `json:"missed_requests"`
}

// ProfileUpdate is the PATCH /driver/profile body. Nil fields are left untouched.
type ProfileUpdate struct {
	IsOnline           *bool   `json:"is_online,omitempty"`
	IsSuspended        *bool   `json:"is_suspended,omitempty"`
	AvailabilityStatus *string `json:"availability_status,omitempty"`
	DeclineCount       *int    `json:"decline_count,omitempty"`
	MissedRequests     *int    `json:"missed_requests,omitempty"`
}
