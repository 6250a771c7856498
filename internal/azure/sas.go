// Package azure provides Azure Blob Storage access for the entralog
// pipeline: a container client built from a SAS URI, blob listing, and
// blob downloads with bounded retries.
package azure

import (
	"regexp"

	"github.com/xtxerr/entralog/internal/errors"
)

// containerPattern matches the container name in a container SAS URI,
// e.g. https://account.blob.core.windows.net/insights-logs-signinlogs?sv=...
var containerPattern = regexp.MustCompile(`^https?://[^/]+/([^/?]+)`)

// ContainerNameFromURI extracts the container name from a container SAS URI.
func ContainerNameFromURI(uri string) (string, error) {
	m := containerPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", errors.Wrapf(errors.ErrInvalidURI, "no container name in %q", redact(uri))
	}
	return m[1], nil
}

// redact strips the SAS query string so tokens never reach logs or errors.
func redact(uri string) string {
	for i := 0; i < len(uri); i++ {
		if uri[i] == '?' {
			return uri[:i] + "?..."
		}
	}
	return uri
}
