// Package shopify looks up orders by name and rewrites their note field
// through the Shopify Admin REST API.
//
// Requests authenticate with an Admin API access token. The API version is
// part of the base URL and comes from configuration.
package shopify
