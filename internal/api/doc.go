// Package api defines the JSON wire types shared by the HTTP server and the
// CLI client.
package api
