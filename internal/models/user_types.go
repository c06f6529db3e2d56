package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserCategory is the role a user signed up as.
type UserCategory string

const (
	UserFarmer   UserCategory = "Farmer"
	UserInvestor UserCategory = "Investor"
	UserBuyer    UserCategory = "Buyer"
	UserExpert   UserCategory = "Expert"
)

func (c UserCategory) Valid() bool {
	switch c {
	case UserFarmer, UserInvestor, UserBuyer, UserExpert:
		return true
	}
	return false
}

// User is the model for the 'users' table.
type User struct {
	ID           string       `json:"id" db:"id"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"`
	FirstName    string       `json:"first_name" db:"first_name"`
	LastName     string       `json:"last_name" db:"last_name"`
	Mobile       *string      `json:"mobile,omitempty" db:"mobile"`
	Category     UserCategory `json:"category" db:"category"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// FarmerDetails is the optional farm profile attached to a user.
type FarmerDetails struct {
	UserID     string    `json:"-" db:"user_id"`
	Address    string    `json:"address" db:"address"`
	FarmSize   string    `json:"farm_size" db:"farm_size"`
	MainCrops  string    `json:"main_crops" db:"main_crops"`
	Experience string    `json:"experience" db:"experience"`
	PhotoURL   *string   `json:"photo_url,omitempty" db:"photo_url"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// BuyerProfile is written by the complete-profile flow.
type BuyerProfile struct {
	UserID      string    `json:"user_id" db:"user_id"`
	FullName    string    `json:"full_name" db:"full_name"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Location    string    `json:"location" db:"location"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Password wraps bcrypt hashing of a plaintext password.
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
