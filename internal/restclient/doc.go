// Package restclient holds the HTTP plumbing shared by the Zendesk and
// Shopify clients: a tuned *http.Client factory and a JSON request helper
// that turns non-2xx responses into model.TransportError values.
package restclient
