package models

// Profile is the authenticated user's profile as returned by /user/me.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
