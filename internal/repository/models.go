package repository

import (
	"time"

	"github.com/google/uuid"
)

// Farmer is a registered account.
type Farmer struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	District     string    `json:"district"`
	State        string    `json:"state"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Farm is a plot owned by a farmer, carrying the soil measurements the crop
// recommendation model scores.
type Farm struct {
	ID           uuid.UUID `json:"id"`
	FarmerID     uuid.UUID `json:"farmer_id"`
	Name         string    `json:"name"`
	AreaHectares float64   `json:"area_hectares"`
	SoilType     string    `json:"soil_type"`
	Irrigation   string    `json:"irrigation"`
	Nitrogen     float64   `json:"nitrogen"`
	Phosphorus   float64   `json:"phosphorus"`
	Potassium    float64   `json:"potassium"`
	SoilPH       float64   `json:"soil_ph"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
