package shopify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/shinji-kodama/notesync/internal/model"
	"github.com/shinji-kodama/notesync/internal/restclient"
)

const (
	systemName = "Shopify"

	// DefaultAPIVersion is used when no version is configured.
	DefaultAPIVersion = "2024-01"

	// accessTokenHeader carries the Admin API token.
	accessTokenHeader = "X-Shopify-Access-Token"
)

// Config holds what is needed to talk to one store.
type Config struct {
	// Store is the shop handle ("acme" for acme.myshopify.com).
	// Ignored when BaseURL is set.
	Store string

	// AdminToken is the Admin API access token.
	AdminToken string

	// APIVersion defaults to DefaultAPIVersion.
	APIVersion string

	// BaseURL overrides the API root, e.g. for tests. Defaults to
	// https://<Store>.myshopify.com/admin/api/<APIVersion>.
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a Shopify Admin API client for order notes.
type Client struct {
	token string
	doer  *restclient.Doer
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		if cfg.Store == "" {
			return nil, fmt.Errorf("shopify: store is required")
		}
		baseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", cfg.Store, version)
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("shopify: admin token is required")
	}

	return &Client{
		token: cfg.AdminToken,
		doer: &restclient.Doer{
			System:     systemName,
			BaseURL:    baseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		},
	}, nil
}

func (c *Client) header() http.Header {
	return http.Header{accessTokenHeader: []string{c.token}}
}

// orderJSON is the wire shape of the order fields notesync uses.
type orderJSON struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Note *string `json:"note"`
}

func (o orderJSON) toModel() model.Order {
	order := model.Order{ID: o.ID, Name: o.Name}
	if o.Note != nil {
		order.Note = *o.Note
	}
	return order
}

// LookupOrderByName finds the order whose name is ref. Orders of any status
// (open, closed, cancelled) are searched. The name filter on the API side is
// not exact, so the first order whose name equals ref, ignoring a leading
// "#", is returned. found is false when there is no such order.
func (c *Client) LookupOrderByName(ctx context.Context, ref model.OrderReference) (order model.Order, found bool, err error) {
	query := url.Values{}
	query.Set("name", ref.String())
	query.Set("status", "any")

	var payload struct {
		Orders []orderJSON `json:"orders"`
	}
	req := restclient.Request{
		Method: http.MethodGet,
		Path:   "/orders.json?" + query.Encode(),
		Header: c.header(),
	}
	if err := c.doer.Do(ctx, req, &payload); err != nil {
		return model.Order{}, false, err
	}

	for _, o := range payload.Orders {
		if strings.TrimPrefix(o.Name, "#") == ref.String() {
			return o.toModel(), true, nil
		}
	}
	return model.Order{}, false, nil
}

// WriteOrderNote replaces the whole note field of orderID with note.
// This is a full-field overwrite with no concurrency check: a write made
// by someone else since the order was read is lost.
func (c *Client) WriteOrderNote(ctx context.Context, orderID int64, note string) error {
	type orderUpdate struct {
		ID   int64  `json:"id"`
		Note string `json:"note"`
	}
	payload := struct {
		Order orderUpdate `json:"order"`
	}{Order: orderUpdate{ID: orderID, Note: note}}

	req := restclient.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/orders/%d.json", orderID),
		Body:   payload,
		Header: c.header(),
	}
	return c.doer.Do(ctx, req, nil)
}
