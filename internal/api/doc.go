// Package api exposes the tools and actions over REST. Tool calls always
// answer 200 with the tool envelope; action failures map their error code to
// an HTTP status.
package api
