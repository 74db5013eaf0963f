package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/studyhall/studyhall/internal/api"
)

// Posts fetches and prints the community feed.
func (a *App) Posts(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	posts, err := a.core.Rest.Posts(ctx)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No posts.")
		a.lastPosts = nil
		return nil
	}
	for i, p := range posts {
		liked := ""
		if p.LikedByMe {
			liked = "♥"
		}
		tags := ""
		if len(p.Tags) > 0 {
			tags = "  #" + strings.Join(p.Tags, " #")
		}
		fmt.Printf("%2d %-16s %s  (%d likes%s, %d comments)%s\n",
			i+1, p.Author, p.Title, p.Likes, liked, p.CommentCount, tags)
	}
	a.lastPosts = posts
	return nil
}

// Post interactively composes a new community post.
func (a *App) Post(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	title, err := GetSimpleText(a.in, "Title", os.Stdout)
	if err != nil {
		return err
	}
	body, err := GetMultiline(a.in, "Body", os.Stdout)
	if err != nil {
		return err
	}
	tagLine, err := GetSimpleText(a.in, "Tags (space separated, empty for none)", os.Stdout)
	if err != nil {
		return err
	}

	req := api.CreatePostRequest{Title: title, Body: body}
	if tagLine != "" {
		req.Tags = strings.Fields(tagLine)
	}
	post, err := a.core.Rest.CreatePost(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println("Posted:", post.Title)
	return nil
}

// Like toggles the caller's like on one row from the last posts printout.
func (a *App) Like(ctx context.Context, ref string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastPosts))
	if err != nil {
		return err
	}
	post, err := a.core.Rest.LikePost(ctx, a.lastPosts[i].ID)
	if err != nil {
		return err
	}
	a.lastPosts[i] = post
	fmt.Printf("%s: %d likes\n", post.Title, post.Likes)
	return nil
}

// Comments prints the comment thread of one post.
func (a *App) Comments(ctx context.Context, ref string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastPosts))
	if err != nil {
		return err
	}
	comments, err := a.core.Rest.Comments(ctx, a.lastPosts[i].ID)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		fmt.Println("No comments.")
		return nil
	}
	for _, c := range comments {
		fmt.Printf("%s %-16s %s\n", c.CreatedAt.Local().Format("01-02 15:04"), c.Author+":", c.Body)
	}
	return nil
}

// Comment adds one comment to a post from the last posts printout.
func (a *App) Comment(ctx context.Context, ref, text string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastPosts))
	if err != nil {
		return err
	}
	if _, err := a.core.Rest.AddComment(ctx, a.lastPosts[i].ID, text); err != nil {
		return err
	}
	fmt.Println("Comment added.")
	return nil
}

// Report flags a post for moderation.
func (a *App) Report(ctx context.Context, ref, reason string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastPosts))
	if err != nil {
		return err
	}
	if err := a.core.Rest.ReportPost(ctx, a.lastPosts[i].ID, reason); err != nil {
		return err
	}
	fmt.Println("Report filed.")
	return nil
}

// Reports prints the unresolved moderation queue the 5s admin poll keeps
// fresh.
func (a *App) Reports(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	reports := a.core.Notifs.Reports()
	if len(reports) == 0 {
		fmt.Println("No unresolved reports.")
		a.lastReports = nil
		return nil
	}
	for i, r := range reports {
		fmt.Printf("%2d %s  %q reported by %s: %s\n",
			i+1, r.CreatedAt.Local().Format("01-02 15:04"), r.PostTitle, r.Reporter, r.Reason)
	}
	a.lastReports = reports
	return nil
}

// Resolve closes one report from the last reports printout.
func (a *App) Resolve(ctx context.Context, ref string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastReports))
	if err != nil {
		return err
	}
	if err := a.core.Rest.ResolveReport(ctx, a.lastReports[i].ID); err != nil {
		return err
	}
	fmt.Println("Report resolved.")
	return nil
}

// Users prints every account for the admin.
func (a *App) Users(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	users, err := a.core.Rest.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%-16s %-7s %-8s %s\n", u.Username, u.Role, u.State, u.Email)
	}
	return nil
}

// Approve activates a pending signup.
func (a *App) Approve(ctx context.Context, username string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if err := a.core.Rest.ApproveUser(ctx, username); err != nil {
		return err
	}
	fmt.Println("Approved:", username)
	return nil
}
