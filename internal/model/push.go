package model

import "time"

type PushSubscription struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Endpoint    string    `json:"endpoint"`
	P256dhKey   string    `json:"-"`
	AuthKey     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
