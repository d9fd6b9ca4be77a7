package model

import (
	"time"
)

// swagger:model User
type User struct {
	UUIDBase
	DisplayName    string     `gorm:"size:100;not null" json:"displayName"`
	Email          string     `gorm:"size:100;unique;not null" json:"email"`
	Password       string     `gorm:"size:100;not null" json:"-"`
	PhotoURL       string     `gorm:"size:255" json:"photoUrl"`
	Specialization string     `gorm:"size:100" json:"specialization"`
	Experience     string     `gorm:"size:100" json:"experience"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	StreakDays     int        `gorm:"default:0" json:"currentStreak"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	LastSeen       *time.Time `json:"lastSeen,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasLocation reports whether the user shared a map position.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}
