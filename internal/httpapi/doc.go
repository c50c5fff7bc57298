// Package httpapi exposes the relay's JSON HTTP API: health checks, message
// submission to the default or an explicit destination, a request logger,
// and the recent-sends audit listing.
package httpapi
