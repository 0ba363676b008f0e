package models

// CustomerProfile is set by the simulated OTP login and cleared on logout.
// It exists so card payments can be prefilled; it is not a security boundary.
type CustomerProfile struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	RewardPoints int    `json:"reward_points"`
}
