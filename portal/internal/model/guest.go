package model

import (
	"time"

	"github.com/google/uuid"
)

// Guest is one captive-portal sign-in that the controller accepted.
type Guest struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"not null;index" json:"email"`
	MAC        string    `gorm:"column:mac;index" json:"mac"`
	IP         string    `gorm:"column:ip" json:"ip"`
	APMAC      string    `gorm:"column:ap_mac" json:"ap_mac"`
	SSID       string    `gorm:"column:ssid" json:"ssid"`
	Minutes    int       `gorm:"not null" json:"minutes"`
	Authorized bool      `gorm:"not null;default:false;index" json:"authorized"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func NewGuest(email, mac, ip, apMAC, ssid string, minutes int) Guest {
	return Guest{
		ID:      uuid.NewString(),
		Email:   email,
		MAC:     mac,
		IP:      ip,
		APMAC:   apMAC,
		SSID:    ssid,
		Minutes: minutes,
	}
}
