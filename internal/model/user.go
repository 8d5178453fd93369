// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: email/password signup and federated
// sign-in through the external identity service. Federated accounts carry
// no password hash: PasswordHash stays empty and password verification
// against such an account always fails.
//
// Email is unique across all users. CoursesEnrolled is a set: a course id
// appears at most once regardless of how often enrollment is recorded.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Picture         string    `json:"picture,omitempty"` // avatar URL, may be empty
	PasswordHash    string    `json:"-"`                 // never serialized
	CreatedAt       time.Time `json:"created_at"`
	LastLogin       time.Time `json:"last_login"`
	CoursesEnrolled []string  `json:"courses_enrolled"`
	Badges          []string  `json:"badges"`
	StreakCount     int       `json:"streak_count"`
}

// Session is an authenticated bearer credential.
//
// A session is created on every successful authentication event and never
// updated afterwards. Multiple concurrent sessions per user are allowed.
// Validity is decided at lookup time: token match plus now < ExpiresAt.
// Expired rows are filtered, not deleted.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"session_token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
