// Package cache keeps a short journal of the most recent requests per user.
package cache

// RequestCacher stores up to MaxNumber entries per key, newest first.
type RequestCacher interface {
	Write(key string, value []byte) error
	Read(key string) ([]string, error)
}
