package models

import "time"

// User is a stored account row. PasswordHash holds the bcrypt digest and
// never leaves the server; use Account for anything sent to a caller.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Account is the externally visible view of a User.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Account() *Account {
	return &Account{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Accounts converts a slice of users.
func Accounts(us []*User) []*Account {
	out := make([]*Account, 0, len(us))
	for _, u := range us {
		out = append(out, u.Account())
	}
	return out
}
