// Package storage implements the blob store port on S3, Google Cloud
// Storage and process memory.
//
// A reference returned by Put is the public URL of the object when a public
// base URL is configured, otherwise "<scheme>://<bucket>/<key>". Every
// backend accepts either form, or a bare key, on Get and Delete.
package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// refFormat converts between object keys and references for one bucket
type refFormat struct {
	scheme    string
	bucket    string
	publicURL string
}

func (f refFormat) ref(key string) string {
	if f.publicURL != "" {
		return strings.TrimRight(f.publicURL, "/") + "/" + key
	}
	return fmt.Sprintf("%s://%s/%s", f.scheme, f.bucket, key)
}

func (f refFormat) key(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty blob reference")
	}

	if f.publicURL != "" {
		prefix := strings.TrimRight(f.publicURL, "/") + "/"
		if strings.HasPrefix(ref, prefix) {
			return unescape(strings.TrimPrefix(ref, prefix))
		}
	}

	if !strings.Contains(ref, "://") {
		return strings.TrimLeft(ref, "/"), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid blob reference: %w", err)
	}
	if u.Scheme == f.scheme && u.Host == f.bucket {
		return strings.TrimLeft(u.Path, "/"), nil
	}
	return "", fmt.Errorf("blob reference %q does not belong to bucket %s", ref, f.bucket)
}

func unescape(key string) (string, error) {
	k, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("invalid blob reference: %w", err)
	}
	return k, nil
}
