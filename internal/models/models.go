package models

import (
	"encoding/json"
	"time"
)

// Role is the privilege level attached to a user and embedded in issued tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Unavailable is reported in place of a price when a symbol could not be quoted.
const Unavailable = "Data not available"

// Price is a quote result for one symbol: either a number or the Unavailable marker.
type Price struct {
	Value     float64
	Available bool
}

func PriceOf(v float64) Price { return Price{Value: v, Available: true} }

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Available {
		return json.Marshal(Unavailable)
	}
	return json.Marshal(p.Value)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*p = PriceOf(v)
		return nil
	}
	*p = Price{}
	return nil
}

// HistoricalPoint is one trading day of a daily series.
type HistoricalPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}
