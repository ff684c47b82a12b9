// Package model defines the data structures shared across the application.
package model

import "time"

// User is a registered account, created on first successful GitHub login.
//
// GitHub is the identity provider, so the natural external key is the
// GitHub user ID (an integer, stable for the lifetime of the account).
// We still mint our own internal string ID (xid) so primary keys aren't
// tied to a third party's numbering scheme — and so Memory.OwnerID and
// the JWT subject claim use the same identifier space.
//
// Display attributes (Name, Login, AvatarURL) are captured from the
// provider profile at registration and never updated afterwards. A
// repeat login reuses the stored values, it does not refresh them.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"`  // provider's numeric user ID, UNIQUE
	Name      string    `json:"name"      db:"name"`       // display name (falls back to login)
	Login     string    `json:"login"     db:"login"`      // GitHub username
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"` // profile picture URL
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
