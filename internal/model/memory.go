package model

import "time"

// Memory is a user-authored record: a text body plus a cover asset URL.
//
// Ownership is fixed at creation — OwnerID is the creator's User.ID and
// never transfers. IsPublic controls read access by non-owners; it
// defaults to false (private) when a client omits it.
//
// CreatedAt orders listings (ascending — a timeline reads oldest first)
// and is immutable. UpdatedAt tracks content edits.
type Memory struct {
	ID        string    `json:"id"        db:"id"`
	Content   string    `json:"content"   db:"content"`
	CoverURL  string    `json:"coverUrl"  db:"cover_url"` // externally stored asset, opaque to the core
	IsPublic  bool      `json:"isPublic"  db:"is_public"`
	OwnerID   string    `json:"ownerId"   db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ExcerptLength is how much of the content a listing shows.
const ExcerptLength = 115

// Excerpt returns the first ExcerptLength characters of the content with
// a trailing ellipsis. The ellipsis is always appended, even when the
// content is shorter than the cut — listings render uniformly.
//
// The cut is by runes, not bytes — slicing a UTF-8 string by byte index
// can split a multi-byte character in half.
func (m *Memory) Excerpt() string {
	runes := []rune(m.Content)
	if len(runes) > ExcerptLength {
		runes = runes[:ExcerptLength]
	}
	return string(runes) + "..."
}
