package models

import "time"

// WeeklyRate is one anchor point of the sparse source price series
type WeeklyRate struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// HourlyRate is one synthesized point of the upsampled price series
type HourlyRate struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Route     string    `json:"route"`
}
