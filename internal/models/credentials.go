package models

// Credentials is the stored login material: a previously captured session
// cookie, and optionally the username/password pair used to mint a new one
// when the cookie has expired.
type Credentials struct {
	Cookie   string `json:"cookie,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// HasLogin reports whether a username/password login can be attempted.
func (c Credentials) HasLogin() bool {
	return c.Username != "" && c.Password != ""
}
