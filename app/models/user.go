package models

import "gorm.io/gorm"

// User is a marketplace member. A user owns zero or more Products as seller.
type User struct {
	gorm.Model
	Name           string `gorm:"size:255;not null" json:"name"`
	Email          string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone          string `gorm:"size:50;not null" json:"phone"`
	Password       string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialised
	ProfilePicture string `gorm:"size:255" json:"profilePicture"`
}

// Admin is a separate identity class with its own credential namespace and
// login flow. An admin is never a row in the users table.
type Admin struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"`
}
