package sauce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
)

// DefaultRESTURL is the root of the Sauce Labs REST API.
const DefaultRESTURL = "https://saucelabs.com/rest"

// Result files kept for each job.
const (
	ServerLogFile = "selenium-server.log"
	VideoFile     = "video.flv"
)

// Client talks to the Sauce Labs REST API with HTTP Basic authentication.
type Client struct {
	Credential Credential
	// BaseURL defaults to DefaultRESTURL.
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewClient returns a Client authenticating as cred.
func NewClient(cred Credential) *Client {
	return &Client{Credential: cred}
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultRESTURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// JobURL returns the resource updated by UpdateJob.
func (c *Client) JobURL(jobID string) string {
	return fmt.Sprintf("%s/v1/%s/jobs/%s", c.base(), url.PathEscape(c.Credential.Username), url.PathEscape(jobID))
}

// ResultURL returns the location of one of a job's result files.
func (c *Client) ResultURL(jobID, file string) string {
	return fmt.Sprintf("%s/%s/jobs/%s/results/%s", c.base(), url.PathEscape(c.Credential.Username), url.PathEscape(jobID), file)
}

// JobUpdate holds the job fields to change. Nil and empty fields are left
// unchanged.
type JobUpdate struct {
	Name   string   `json:"name,omitempty"`
	Passed *bool    `json:"passed,omitempty"`
	Build  string   `json:"build,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// UpdateJob changes the given fields of a job.
func (c *Client) UpdateJob(ctx context.Context, jobID string, update JobUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.JobURL(jobID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// OpenResult opens one of a job's result files. The caller must close it.
func (c *Client) OpenResult(ctx context.Context, jobID, file string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResultURL(jobID, file), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.Credential.Username, c.Credential.AccessKey)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		buf, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Redacted(), resp.Status, bytes.TrimSpace(buf))
	}
	return resp, nil
}
