// Package zendesk fetches ticket comments and user profiles from the
// Zendesk Support REST API (v2).
//
// Only the two read calls a sync run needs are implemented: the comment
// list of one ticket, newest first, and a user's display name. Requests
// authenticate with an agent email plus API token.
package zendesk
