// Package imagecache persists downloaded card art in SQLite so repeated
// print runs do not refetch images from the upstream CDNs.
//
// The store is a single table keyed by image URL with a creation timestamp;
// entries older than the TTL are treated as absent and purged lazily on
// access. Handles returned by Get/Fetch are ephemeral local references:
// callers must Release them once the image is no longer displayed.
//
// Schema changes bump the version in store.go; users clear the cache to
// adopt the new schema.
package imagecache
