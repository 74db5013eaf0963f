package community

import "context"

type Repository interface {
	CreatePost(ctx context.Context, p *Post) (*Post, error)
	ListPosts(ctx context.Context, viewer string) ([]PostView, error)
	GetPost(ctx context.Context, id, viewer string) (*PostView, error)

	// ToggleLike flips the viewer's like and reports the new state.
	ToggleLike(ctx context.Context, postID, username string) (bool, error)

	ListComments(ctx context.Context, postID string) ([]Comment, error)
	AddComment(ctx context.Context, c *Comment) (*Comment, error)

	CreateReport(ctx context.Context, r *Report) (*Report, error)
	ListOpenReports(ctx context.Context) ([]Report, error)
	ResolveReport(ctx context.Context, id, resolver string) error
}
