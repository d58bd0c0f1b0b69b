// Package auth guards the HTTP API with static bearer API keys. Each key maps
// to a named subject carrying a permission list.
package auth
