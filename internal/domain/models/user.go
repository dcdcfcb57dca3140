package models

import "time"

// User представляет покупателя или администратора магазина
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity - кто выполняет запрос; заполняется JWT middleware
type Identity struct {
	UserID  int64
	IsAdmin bool
}
