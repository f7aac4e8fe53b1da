package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	"aperture/internal/models"
	"aperture/internal/notifications"
)

const cardWidth = 60

// RelativeTime formats t relative to now, e.g. "5m ago" or "3d ago".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Caption joins the caption and its tags as hashtags.
func Caption(p *models.Post) string {
	parts := make([]string, 0, len(p.Tags)+1)
	if c := strings.TrimSpace(p.Caption); c != "" {
		parts = append(parts, c)
	}
	for _, tag := range p.Tags {
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " ")
}

func plural(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// RenderPost writes a text card for p.
func RenderPost(w io.Writer, p *models.Post, now time.Time) {
	author := fmt.Sprintf("user #%d", p.UserID)
	if p.Author != nil {
		author = "@" + p.Author.Username
	}

	header := author
	if p.Location != "" {
		header += " · " + p.Location
	}
	header += " · " + RelativeTime(p.CreatedAt, now)

	rule := strings.Repeat("─", cardWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "[%d] %s\n", p.ID, header)
	fmt.Fprintf(w, "  %s\n", p.ImageURL)
	if caption := Caption(p); caption != "" {
		fmt.Fprintf(w, "  %s\n", caption)
	}

	heart := "♡"
	if p.Liked {
		heart = "♥"
	}
	fmt.Fprintf(w, "  %s %s  💬 %s\n", heart, plural(p.LikesCount, "like"), plural(p.CommentsCount, "comment"))

	for _, c := range p.Comments {
		name := fmt.Sprintf("user #%d", c.UserID)
		if c.Author != nil {
			name = "@" + c.Author.Username
		}
		fmt.Fprintf(w, "    %s: %s\n", name, c.Text)
	}
}

// RenderPage writes every post of a page followed by a paging footer.
func RenderPage(w io.Writer, page *models.PostPage, now time.Time) {
	if len(page.Posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	for _, p := range page.Posts {
		RenderPost(w, p, now)
	}
	fmt.Fprintln(w, strings.Repeat("─", cardWidth))
	footer := fmt.Sprintf("page %d · %d of %d posts", page.Page, len(page.Posts), page.Total)
	if page.HasMore {
		footer += " · more available"
	}
	fmt.Fprintln(w, footer)
}

// RenderUsers writes one line per account.
func RenderUsers(w io.Writer, users []models.UserSummary) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	for _, u := range users {
		fmt.Fprintf(w, "[%d] @%s  %s\n", u.ID, u.Username, u.FullName)
	}
}

// DescribeEvent renders a notification as one line.
func DescribeEvent(e notifications.Event) string {
	actor := "@" + e.Actor.Username
	switch e.Type {
	case notifications.EventNewFollower:
		return actor + " started following you"
	case notifications.EventPostLiked:
		return fmt.Sprintf("%s liked your post %d", actor, deref(e.PostID))
	case notifications.EventCommentCreated:
		return fmt.Sprintf("%s commented on your post %d", actor, deref(e.PostID))
	case notifications.EventCommentLiked:
		return fmt.Sprintf("%s liked your comment %d", actor, deref(e.CommentID))
	default:
		return fmt.Sprintf("%s: %s", e.Type, actor)
	}
}

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// RenderProfile writes the profile header: name, bio, counts and the viewer's follow state.
func RenderProfile(w io.Writer, p *models.Profile) {
	fmt.Fprintf(w, "@%s  %s\n", p.Username, p.FullName)
	if bio := strings.TrimSpace(p.Bio); bio != "" {
		fmt.Fprintf(w, "  %s\n", bio)
	}
	fmt.Fprintf(w, "  %s · %s · %d following\n",
		plural(p.PostsCount, "post"), plural(p.FollowersCount, "follower"), p.FollowingCount)
	if p.IsFollowing {
		fmt.Fprintln(w, "  You follow this account")
	}
}

// RenderComments writes a page of comments, one per line.
func RenderComments(w io.Writer, page *models.CommentPage, now time.Time) {
	if len(page.Comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	for _, c := range page.Comments {
		name := fmt.Sprintf("user #%d", c.UserID)
		if c.Author != nil {
			name = "@" + c.Author.Username
		}
		fmt.Fprintf(w, "[%d] %s · %s · %s\n    %s\n", c.ID, name, RelativeTime(c.CreatedAt, now), plural(c.LikesCount, "like"), c.Text)
	}
	footer := fmt.Sprintf("page %d · %d of %d comments", page.Page, len(page.Comments), page.Total)
	if page.HasMore {
		footer += " · more available"
	}
	fmt.Fprintln(w, footer)
}
