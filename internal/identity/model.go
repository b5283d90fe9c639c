package identity

import (
	"strings"
	"time"
)

// User is a registered account. Users are immutable once created.
type User struct {
	ID         string
	Firstname  string
	Lastname   string
	Email      string
	SecretHash string
	CreatedAt  time.Time
}

// RegisterInput is the registration request.
type RegisterInput struct {
	Firstname string `json:"firstname" form:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" form:"lastname" validate:"required,max=100"`
	Email     string `json:"email" form:"email" validate:"required,max=255"`
	Password  string `json:"password" form:"password" validate:"required"`
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in RegisterInput) normalized() RegisterInput {
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Lastname = strings.TrimSpace(in.Lastname)
	in.Email = NormalizeEmail(in.Email)
	return in
}

// complete reports whether every required column is present.
func (u User) complete() bool {
	return u.ID != "" && u.Firstname != "" && u.Lastname != "" && u.Email != "" && u.SecretHash != ""
}
