// Package community owns the shared feed: posts, like toggles, comments,
// and the moderation report queue.
package community

import (
	"time"

	"github.com/studyhall/studyhall/internal/api"
)

// Post is one feed entry.
type Post struct {
	ID            string
	Author        string
	Title         string
	Body          string
	Tags          []string
	AttachmentKey string
	CreatedAt     time.Time
}

// PostView is a post with viewer-dependent counters.
type PostView struct {
	Post
	Likes        int
	LikedByMe    bool
	CommentCount int
}

// Wire converts to the wire shape.
func (v *PostView) Wire() api.Post {
	return api.Post{
		ID:            v.ID,
		Author:        v.Author,
		Title:         v.Title,
		Body:          v.Body,
		Tags:          v.Tags,
		AttachmentKey: v.AttachmentKey,
		Likes:         v.Likes,
		LikedByMe:     v.LikedByMe,
		CommentCount:  v.CommentCount,
		CreatedAt:     v.CreatedAt,
	}
}

// Comment is one comment row.
type Comment struct {
	ID        string
	PostID    string
	Author    string
	Body      string
	CreatedAt time.Time
}

func (c *Comment) Wire() api.Comment {
	return api.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.Author,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

// Report is one moderation report.
type Report struct {
	ID         string
	PostID     string
	PostTitle  string
	Reporter   string
	Reason     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
	ResolvedBy string
}

func (r *Report) Wire() api.Report {
	return api.Report{
		ID:         r.ID,
		PostID:     r.PostID,
		PostTitle:  r.PostTitle,
		Reporter:   r.Reporter,
		Reason:     r.Reason,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
		ResolvedBy: r.ResolvedBy,
	}
}
