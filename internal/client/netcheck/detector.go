// Package netcheck determines real network reachability. The platform's own
// online signal is wrong on some device/OS combinations, so the detector
// performs a minimal round trip against a third-party endpoint and treats any
// completed response as proof of connectivity.
package netcheck

import (
	"context"
	"net/http"
	"time"
)

// DefaultProbeURL answers tiny 204 responses and is unrelated to the
// Versemark backend, so neither backend downtime nor the caching gateway can
// mask a true offline state.
const DefaultProbeURL = "https://www.gstatic.com/generate_204"

const defaultTimeout = 3 * time.Second

// Detector probes a cross-origin endpoint to decide whether the device is
// really online.
type Detector struct {
	probeURL string
	client   *http.Client
}

func NewDetector(probeURL string, timeout time.Duration) *Detector {
	if probeURL == "" {
		probeURL = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Detector{
		probeURL: probeURL,
		client:   &http.Client{Timeout: timeout},
	}
}

// Check performs one probe. Any completed HTTP exchange counts as reachable;
// the response body and status are irrelevant and never read. Returns false
// on timeout or transport error, never an error.
func (d *Detector) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
