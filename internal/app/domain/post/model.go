package post

import "time"

// Post is a single emoji status update. All fields are immutable after
// creation; CreatedAt is the sole feed sort key.
type Post struct {
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AuthorProfile is the public identity of a post author, fetched fresh from
// the identity provider on every read. It is never persisted here.
type AuthorProfile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

// EnrichedPost pairs a post with its resolved author. It is only constructed
// once the author is known to exist and carry a username.
type EnrichedPost struct {
	Post   Post          `json:"post"`
	Author AuthorProfile `json:"author"`
}
