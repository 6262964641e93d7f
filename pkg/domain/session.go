package domain

// Session is the persisted client-side session: the token pair plus a cached
// copy of the profile. The cached user is display data only: it is
// authoritative just after a successful /api/me call and stale otherwise.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// HasTokens reports whether any credential is present. While either token
// exists the session must be validated before it can be declared dead.
func (s Session) HasTokens() bool {
	return s.AccessToken != "" || s.RefreshToken != ""
}
