package domain

import "time"

type Room struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	RoomType   string    `json:"room_type"`
	Capacity   int       `json:"capacity"`
	Facilities string    `json:"facilities"`
	Image      string    `json:"image"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Transport struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DriverName  string    `json:"driver_name"`
	Capacity    int       `json:"capacity"`
	PlateNumber string    `json:"plate_number"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
