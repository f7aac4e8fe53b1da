// Command feedcli talks to the Aperture API from a terminal.
//
//	feedcli [-api URL | -demo] <command> [flags] [args]
//
// Commands: login, register, feed, post, show, delete, like, comment, follow,
// profile, edit-profile, search, watch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"aperture/internal/client"
	"aperture/internal/models"
	"aperture/internal/notifications"
)

const defaultAPI = "http://localhost:8080"

var errUsage = errors.New("usage: feedcli [-api URL | -demo] <login|register|feed|post|show|delete|like|comment|follow|profile|edit-profile|search|watch> [flags] [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "feedcli:", err)
		os.Exit(1)
	}
}

type app struct {
	api       *client.Client
	out       io.Writer
	tokenFile string
	demo      bool
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("feedcli", flag.ContinueOnError)
	fs.SetOutput(out)
	apiURL := fs.String("api", envOr("APERTURE_API", defaultAPI), "API base URL")
	token := fs.String("token", os.Getenv("APERTURE_TOKEN"), "Bearer token (defaults to the saved login)")
	demo := fs.Bool("demo", false, "Run against an in-process server loaded with demo data")
	demoAs := fs.String("as", "john@example.com", "Demo account to act as")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errUsage
	}

	a := &app{out: out, tokenFile: tokenPath(), demo: *demo}

	if *demo {
		baseURL, shutdown, err := startDemo(ctx)
		if err != nil {
			return fmt.Errorf("start demo server: %w", err)
		}
		defer shutdown()
		a.api = client.New(baseURL)
		cmd := fs.Arg(0)
		if cmd != "login" && cmd != "register" {
			if _, err := a.api.Login(ctx, *demoAs, demoPassword); err != nil {
				return fmt.Errorf("demo login as %s: %w", *demoAs, err)
			}
		}
	} else {
		a.api = client.New(*apiURL)
		if *token != "" {
			a.api.SetToken(*token)
		} else if saved, err := os.ReadFile(a.tokenFile); err == nil {
			a.api.SetToken(strings.TrimSpace(string(saved)))
		}
	}

	cmdArgs := fs.Args()[1:]
	switch fs.Arg(0) {
	case "login":
		return a.login(ctx, cmdArgs)
	case "register":
		return a.register(ctx, cmdArgs)
	case "feed":
		return a.feed(ctx, cmdArgs)
	case "post":
		return a.post(ctx, cmdArgs)
	case "show":
		return a.show(ctx, cmdArgs)
	case "delete":
		return a.deletePost(ctx, cmdArgs)
	case "like":
		return a.like(ctx, cmdArgs)
	case "comment":
		return a.comment(ctx, cmdArgs)
	case "follow":
		return a.follow(ctx, cmdArgs)
	case "profile":
		return a.profile(ctx, cmdArgs)
	case "edit-profile":
		return a.editProfile(ctx, cmdArgs)
	case "search":
		return a.search(ctx, cmdArgs)
	case "watch":
		return a.watch(ctx)
	default:
		return errUsage
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func tokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".aperture-token"
	}
	return filepath.Join(dir, "aperture", "token")
}

func (a *app) saveToken() error {
	if a.demo {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(a.tokenFile, []byte(a.api.Token()+"\n"), 0o600)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.demo && *email == "" {
		*email, *password = "john@example.com", demoPassword
	}

	user, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.saveToken(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in as @%s\n", user.Username)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password")
	name := fs.String("name", "", "Full name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.api.Register(ctx, client.Registration{
		Username: *username,
		Email:    *email,
		Password: *password,
		FullName: *name,
	})
	if err != nil {
		return err
	}
	if err := a.saveToken(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(a.out, "Welcome, @%s (id %d)\n", user.Username, user.ID)
	return nil
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 0, "Posts per page (server default when 0)")
	user := fs.Uint("user", 0, "Show one account's posts instead of the home feed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		p   *models.PostPage
		err error
	)
	if *user > 0 {
		p, err = a.api.UserPosts(ctx, *user, *page, *limit)
	} else {
		p, err = a.api.Feed(ctx, *page, *limit)
	}
	if err != nil {
		return err
	}
	client.RenderPage(a.out, p, time.Now())
	return nil
}

func (a *app) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	image := fs.String("image", "", "Path to a JPEG, PNG, GIF or WebP image")
	caption := fs.String("caption", "", "Caption")
	location := fs.String("location", "", "Location")
	tags := fs.String("tags", "", "Comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *image == "" {
		return errors.New("post: -image is required")
	}

	content, err := os.ReadFile(*image)
	if err != nil {
		return err
	}
	post, err := a.api.CreatePost(ctx, client.NewPost{
		Image:    content,
		Filename: filepath.Base(*image),
		Caption:  *caption,
		Location: *location,
		Tags:     *tags,
	})
	if err != nil {
		return err
	}
	client.RenderPost(a.out, post, time.Now())
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	post, err := a.api.Post(ctx, id)
	if err != nil {
		return err
	}
	client.RenderPost(a.out, post, time.Now())
	return nil
}

func (a *app) deletePost(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if err := a.api.DeletePost(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted post %d\n", id)
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("like", flag.ContinueOnError)
	undo := fs.Bool("undo", false, "Remove the like")
	comment := fs.Bool("comment", false, "The id is a comment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs.Args())
	if err != nil {
		return err
	}

	var like = a.api.LikePost
	switch {
	case *comment && *undo:
		like = a.api.UnlikeComment
	case *comment:
		like = a.api.LikeComment
	case *undo:
		like = a.api.UnlikePost
	}
	result, err := like(ctx, id)
	if err != nil {
		return err
	}
	verb := "Liked"
	if !result.Liked {
		verb = "Unliked"
	}
	fmt.Fprintf(a.out, "%s %d · %d likes\n", verb, id, result.LikesCount)
	return nil
}

// comment adds a comment, or with -list or -delete pages through or removes comments.
func (a *app) comment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comment", flag.ContinueOnError)
	del := fs.Bool("delete", false, "Delete the comment with the given id")
	list := fs.Bool("list", false, "List the comments of the given post")
	page := fs.Int("page", 1, "Page number for -list")
	limit := fs.Int("limit", 0, "Comments per page for -list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *del && *list:
		return errors.New("comment: -delete and -list are exclusive")
	case *del:
		id, err := idArg(fs.Args())
		if err != nil {
			return err
		}
		if err := a.api.DeleteComment(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted comment %d\n", id)
		return nil
	case *list:
		id, err := idArg(fs.Args())
		if err != nil {
			return err
		}
		p, err := a.api.Comments(ctx, id, *page, *limit)
		if err != nil {
			return err
		}
		client.RenderComments(a.out, p, time.Now())
		return nil
	}

	if fs.NArg() < 2 {
		return errors.New("comment: expected <postId> <text>")
	}
	postID, err := idArg(fs.Args()[:1])
	if err != nil {
		return err
	}
	c, err := a.api.Comment(ctx, postID, strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment %d added to post %d\n", c.ID, postID)
	return nil
}

func (a *app) follow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("follow", flag.ContinueOnError)
	undo := fs.Bool("undo", false, "Unfollow instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs.Args())
	if err != nil {
		return err
	}

	follow, verb := a.api.Follow, "Following"
	if *undo {
		follow, verb = a.api.Unfollow, "Unfollowed"
	}
	counts, err := follow(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s user %d · you follow %d · they have %d followers\n",
		verb, id, counts.FollowingCount, counts.FollowerCount)
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	followers := fs.Bool("followers", false, "List followers instead of posts")
	following := fs.Bool("following", false, "List followed accounts instead of posts")
	page := fs.Int("page", 1, "Page of posts")
	limit := fs.Int("limit", 0, "Posts per page (server default when 0)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("profile: expected exactly one username")
	}

	p, err := a.api.Profile(ctx, strings.TrimPrefix(fs.Arg(0), "@"))
	if err != nil {
		return err
	}
	client.RenderProfile(a.out, p)

	switch {
	case *followers:
		users, err := a.api.Followers(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Followers:")
		client.RenderUsers(a.out, users)
	case *following:
		users, err := a.api.Following(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Following:")
		client.RenderUsers(a.out, users)
	default:
		posts, err := a.api.UserPosts(ctx, p.ID, *page, *limit)
		if err != nil {
			return err
		}
		client.RenderPage(a.out, posts, time.Now())
	}
	return nil
}

// editProfile sends only the flags given on the command line.
func (a *app) editProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit-profile", flag.ContinueOnError)
	name := fs.String("name", "", "Full name")
	bio := fs.String("bio", "", "Bio")
	email := fs.String("email", "", "Email")
	picture := fs.String("picture", "", "Profile picture URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var in client.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.FullName = name
		case "bio":
			in.Bio = bio
		case "email":
			in.Email = email
		case "picture":
			in.ProfilePicture = picture
		}
	})
	if in == (client.ProfileUpdate{}) {
		return errors.New("edit-profile: nothing to change, pass -name, -bio, -email or -picture")
	}

	user, err := a.api.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated @%s\n", user.Username)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	users, err := a.api.SearchUsers(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	client.RenderUsers(a.out, users)
	return nil
}

func (a *app) watch(ctx context.Context) error {
	fmt.Fprintln(a.out, "Watching notifications, Ctrl-C to stop")
	return a.api.Watch(ctx, func(e notifications.Event) {
		fmt.Fprintf(a.out, "%s  %s\n", e.CreatedAt.Local().Format(time.Kitchen), client.DescribeEvent(e))
	})
}

func idArg(args []string) (uint, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one numeric id")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return uint(id), nil
}
