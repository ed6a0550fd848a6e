package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

type httpAdapter struct {
	detail model.HTTPDetail
}

// Probe issues a GET to detail.URL; success iff the response status
// numerically equals detail.ExpectedStatus. The body is not read beyond
// headers.
func (a *httpAdapter) Probe(ctx context.Context) Outcome {
	return timed(func() (bool, string) {
		client := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.detail.URL, nil)
		if err != nil {
			return false, fmt.Sprintf("invalid request: %v", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return false, fmt.Sprintf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != a.detail.ExpectedStatus {
			return false, fmt.Sprintf("unexpected status: got %d, expected %d", resp.StatusCode, a.detail.ExpectedStatus)
		}
		return true, ""
	})
}
