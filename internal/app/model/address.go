package model

import (
	"strings"
	"time"
)

type AddressType string

const (
	AddressShipping AddressType = "shipping"
	AddressBilling  AddressType = "billing"
)

type Address struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	Type      AddressType `gorm:"type:varchar(20);default:'shipping'" json:"type"`
	FirstName string      `gorm:"size:100;not null" json:"first_name"`
	LastName  string      `gorm:"size:100" json:"last_name"`
	Company   string      `gorm:"size:150" json:"company,omitempty"`
	Address1  string      `gorm:"type:text;not null" json:"address1"`
	Address2  string      `gorm:"type:text" json:"address2,omitempty"`
	City      string      `gorm:"size:100;not null" json:"city"`
	State     string      `gorm:"size:100" json:"state"`
	ZipCode   string      `gorm:"size:20" json:"zip_code"`
	Country   string      `gorm:"size:100;default:'India'" json:"country"`
	Phone     string      `gorm:"size:30" json:"phone,omitempty"`
	IsDefault bool        `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}

// SameLocation compares the deliverable parts of two addresses, ignoring ids and flags
func (a Address) SameLocation(b Address) bool {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return norm(a.FirstName) == norm(b.FirstName) &&
		norm(a.LastName) == norm(b.LastName) &&
		norm(a.Company) == norm(b.Company) &&
		norm(a.Address1) == norm(b.Address1) &&
		norm(a.Address2) == norm(b.Address2) &&
		norm(a.City) == norm(b.City) &&
		norm(a.State) == norm(b.State) &&
		norm(a.ZipCode) == norm(b.ZipCode) &&
		norm(a.Country) == norm(b.Country)
}

// OneLine renders the address for order messages
func (a Address) OneLine() string {
	parts := []string{}
	for _, p := range []string{a.Address1, a.Address2, a.City, a.State, a.ZipCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
