package domain

import "time"

// Service is a catalog entry describing an offerable task and its base price.
type Service struct {
	ID          string
	Name        string
	Description string
	Category    string
	BasePrice   float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
