// Package artifact persists generated scripts, result containers and
// extracted records, either on the local file system or in an S3 bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get for a key that was never stored.
var ErrNotFound = errors.New("artifact not found")

// Store defines operations for persisting artifacts by key. Keys use '/'
// as separator regardless of the backend.
type Store interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Open returns the store addressed by uri: "s3://bucket/prefix" selects an
// S3Store configured from cfg, anything else is a local directory
// (optionally written as "file:///path").
func Open(uri string, cfg S3Config) (Store, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("artifact location is required")
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return NewLocalStore(uri), nil
	}

	switch u.Scheme {
	case "file":
		return NewLocalStore(u.Path), nil
	case "s3":
		cfg.Bucket = u.Host
		cfg.Prefix = strings.Trim(u.Path, "/")
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unsupported artifact location scheme %q", u.Scheme)
	}
}

// SplitURI splits an object URI ("file:///runs/sim01/result.yaml",
// "s3://bucket/runs/result.msgpack") into the store location accepted by Open
// and the object key. ok is false for plain paths and for URIs that name no
// object.
func SplitURI(uri string) (location, key string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", "", false
	}
	switch u.Scheme {
	case "file", "s3":
	default:
		return "", "", false
	}
	if strings.Trim(u.Path, "/") == "" || strings.HasSuffix(u.Path, "/") {
		return "", "", false
	}
	uri = strings.TrimSpace(uri)
	i := strings.LastIndex(uri, "/")
	location, key = uri[:i], uri[i+1:]
	if strings.HasSuffix(location, "//") {
		// file:///result.yaml lives at the file system root.
		location += "/"
	}
	return location, key, true
}

func cleanKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("artifact key is required")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("artifact key %q escapes the store root", key)
		}
	}
	return key, nil
}
