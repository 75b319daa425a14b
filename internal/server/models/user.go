// Package models holds the domain entities shared by repositories,
// services and the web layer.
package models

import "time"

// User is a registered account. Email is the natural key and is unique
// across all users; PasswordHash is the encoded output of the password
// hasher and is never compared to plaintext directly.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
