package zendesk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shinji-kodama/notesync/internal/model"
	"github.com/shinji-kodama/notesync/internal/restclient"
)

// systemName labels Zendesk in transport errors.
const systemName = "Zendesk"

// Config holds what is needed to talk to one Zendesk account.
type Config struct {
	// Subdomain is the account subdomain ("acme" for acme.zendesk.com).
	// Ignored when BaseURL is set.
	Subdomain string

	// Email is the agent email the API token belongs to.
	Email string

	// APIToken is the Zendesk API token.
	APIToken string

	// BaseURL overrides the API root, e.g. for tests.
	// Defaults to https://<Subdomain>.zendesk.com/api/v2.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a Zendesk API client for comment and user lookups.
type Client struct {
	baseURL string
	email   string
	token   string
	doer    *restclient.Doer
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		if cfg.Subdomain == "" {
			return nil, fmt.Errorf("zendesk: subdomain is required")
		}
		baseURL = fmt.Sprintf("https://%s.zendesk.com/api/v2", cfg.Subdomain)
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("zendesk: email and API token are required")
	}

	return &Client{
		baseURL: baseURL,
		email:   cfg.Email,
		token:   cfg.APIToken,
		doer: &restclient.Doer{
			System:     systemName,
			BaseURL:    baseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		},
	}, nil
}

// authHeader builds the basic-auth header for API token authentication,
// where the username is "<email>/token".
func (c *Client) authHeader() http.Header {
	req := http.Request{Header: http.Header{}}
	req.SetBasicAuth(c.email+"/token", c.token)
	return req.Header
}

// commentJSON is the wire shape of a ticket comment.
type commentJSON struct {
	ID       int64  `json:"id"`
	Body     string `json:"body"`
	AuthorID int64  `json:"author_id"`
	// Public is a pointer so an absent field can be told apart from false.
	Public    *bool  `json:"public"`
	CreatedAt string `json:"created_at"`
}

func (c commentJSON) toModel() model.Comment {
	// An absent flag counts as public so it is never mistaken for internal.
	public := true
	if c.Public != nil {
		public = *c.Public
	}
	return model.Comment{
		ID:        c.ID,
		Body:      c.Body,
		Public:    public,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
	}
}

type commentsPageJSON struct {
	Comments []commentJSON `json:"comments"`
	NextPage *string       `json:"next_page"`
}

// CommentPages lazily walks the comment list of one ticket, newest first.
// It is not safe for concurrent use.
type CommentPages struct {
	client  *Client
	path    string
	nextURL string
	done    bool
}

// Comments returns an iterator over the comments of ticketID, sorted
// newest first by the server.
func (c *Client) Comments(ticketID string) *CommentPages {
	path := fmt.Sprintf("/tickets/%s/comments.json?sort_order=desc", url.PathEscape(ticketID))
	return &CommentPages{
		client:  c,
		path:    path,
		nextURL: c.baseURL + path,
	}
}

// Next fetches the next page. It returns nil, nil once every page has been
// consumed.
func (p *CommentPages) Next(ctx context.Context) ([]model.Comment, error) {
	if p.done || p.nextURL == "" {
		return nil, nil
	}

	var page commentsPageJSON
	req := restclient.Request{Method: http.MethodGet, Path: p.path, Header: p.client.authHeader()}
	if err := p.client.doer.DoURL(ctx, p.nextURL, req, &page); err != nil {
		return nil, err
	}

	p.nextURL = ""
	if page.NextPage != nil && *page.NextPage != "" {
		next := *page.NextPage
		// Credentials are only ever sent to the configured account.
		if !strings.HasPrefix(next, p.client.baseURL+"/") {
			return nil, fmt.Errorf("zendesk: refusing to follow next_page outside %s: %q", p.client.baseURL, next)
		}
		p.nextURL = next
		p.path = strings.TrimPrefix(next, p.client.baseURL)
	}
	if p.nextURL == "" {
		p.done = true
	}

	comments := make([]model.Comment, 0, len(page.Comments))
	for _, cj := range page.Comments {
		comments = append(comments, cj.toModel())
	}
	return comments, nil
}

// Collect fetches all remaining pages and concatenates them in order.
func (p *CommentPages) Collect(ctx context.Context) ([]model.Comment, error) {
	all := []model.Comment{}
	for {
		comments, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		if comments == nil {
			return all, nil
		}
		all = append(all, comments...)
	}
}

// FetchComments returns every comment on ticketID, newest first.
func (c *Client) FetchComments(ctx context.Context, ticketID string) ([]model.Comment, error) {
	return c.Comments(ticketID).Collect(ctx)
}

// FetchUserDisplayName returns the name of userID. When the profile has no
// name, a "User <id>" label is synthesized instead.
func (c *Client) FetchUserDisplayName(ctx context.Context, userID int64) (string, error) {
	var payload struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	req := restclient.Request{
		Method: http.MethodGet,
		Path:   "/users/" + strconv.FormatInt(userID, 10) + ".json",
		Header: c.authHeader(),
	}
	if err := c.doer.Do(ctx, req, &payload); err != nil {
		return "", err
	}

	if name := strings.TrimSpace(payload.User.Name); name != "" {
		return name, nil
	}
	return fmt.Sprintf("User %d", userID), nil
}
