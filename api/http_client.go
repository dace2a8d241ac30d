// api/http_client.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient struct to hold base URL and HTTP client configuration
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
	// MaxBytes caps a downloaded body; zero means no limit.
	MaxBytes int64
}

// NewHTTPClient creates a new instance of HTTPClient with default settings
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second, // workbooks are a few MB
		},
	}
}

// Download fetches endpoint relative to BaseURL and returns the raw body.
func (c *HTTPClient) Download(endpoint string) ([]byte, error) {
	url := c.BaseURL + endpoint
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, application/octet-stream")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.New("unexpected status code: " + res.Status)
	}

	var body io.Reader = res.Body
	if c.MaxBytes > 0 {
		body = io.LimitReader(res.Body, c.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if c.MaxBytes > 0 && int64(len(data)) > c.MaxBytes {
		return nil, fmt.Errorf("download exceeds %d bytes", c.MaxBytes)
	}
	return data, nil
}
