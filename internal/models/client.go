package models

import (
	"time"

	"github.com/google/uuid"
)

// Client roles
const (
	RoleAdmin  = "ADMIN"
	RoleClient = "CLIENT"
)

// Client is a B2B customer account. Username is the sole upsert key for
// imports.
type Client struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Username     string    `json:"username" gorm:"not null;uniqueIndex:idx_client_username"`
	Role         string    `json:"role" gorm:"not null;default:'CLIENT'"`
	CompanyName  string    `json:"companyName"`
	ContactName  string    `json:"contactName"`
	Address      string    `json:"address"`
	Province     string    `json:"province"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	TaxID        string    `json:"taxId"`
	VATCondition string    `json:"vatCondition"`
	// DiscountRate is a fraction: 0.10 means 10% off.
	DiscountRate float64 `json:"discountRate" gorm:"not null;default:0"`

	// PlainPassword is the credential as supplied by the back office for
	// display to account managers. Authentication uses PasswordHash only.
	PlainPassword string `json:"-"`
	PasswordHash  string `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}
