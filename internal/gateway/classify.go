// Package gateway fronts the application origin and answers each request
// through one of three caching policies picked by resource class, so the
// reader keeps working offline without ever being shown a document that is
// stale in a way that breaks it.
package gateway

import (
	"net/http"
	"path"
	"regexp"
	"strings"
)

// Class is the resource class a request falls into at interception time.
type Class int

const (
	// ClassPassthrough requests are forwarded untouched: non-idempotent
	// methods and anything addressed to a foreign host. Intercepting a
	// cross-origin call would corrupt the connectivity probe.
	ClassPassthrough Class = iota

	// ClassImmutable content never changes once published: versioned
	// reference-text files and content-hashed build artifacts. Cache-first,
	// never revalidated.
	ClassImmutable

	// ClassNavigation is a top-level document load. Network-first: a stale
	// document may reference assets deleted by a newer deployment, so
	// staleness here is a correctness bug.
	ClassNavigation

	// ClassStatic is every other same-origin idempotent read.
	// Stale-while-revalidate.
	ClassStatic
)

func (c Class) String() string {
	switch c {
	case ClassImmutable:
		return "immutable"
	case ClassNavigation:
		return "navigation"
	case ClassStatic:
		return "static"
	default:
		return "passthrough"
	}
}

// Content-hashed build artifacts carry a hex digest in the filename,
// e.g. app.3f9c2e1a.js.
var hashedAssetRe = regexp.MustCompile(`\.[0-9a-f]{8,}\.[a-z0-9]+$`)

// immutablePrefixes are URL spaces whose content is versioned at publish
// time and guaranteed never to change under the same path.
var immutablePrefixes = []string{"/texts/"}

// apiPrefixes are URL spaces that serve per-user application state. Serving
// those from cache would hand a reader someone's stale annotations, so they
// always go to the origin.
var apiPrefixes = []string{"/v1/"}

// Classify inspects one request. publicHost is the host this gateway serves;
// requests addressed elsewhere are cross-origin and never intercepted.
func Classify(r *http.Request, publicHost string) Class {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return ClassPassthrough
	}
	if publicHost != "" && r.Host != "" && !strings.EqualFold(r.Host, publicHost) {
		return ClassPassthrough
	}

	p := r.URL.Path
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(p, prefix) {
			return ClassPassthrough
		}
	}
	for _, prefix := range immutablePrefixes {
		if strings.HasPrefix(p, prefix) {
			return ClassImmutable
		}
	}
	if hashedAssetRe.MatchString(path.Base(p)) {
		return ClassImmutable
	}

	if isNavigation(r) {
		return ClassNavigation
	}
	return ClassStatic
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
