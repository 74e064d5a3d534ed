// Package api exposes the study service over HTTP. Handlers decode and
// validate requests, read the authenticated owner from the request context,
// and translate service errors into sanitized JSON error replies.
package api
