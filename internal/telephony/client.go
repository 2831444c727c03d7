// Package telephony is a minimal client for the Twilio-compatible REST API:
// only the conference and call operations the announcer needs.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

type Conference struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"`
}

type API interface {
	// ListConferences returns conferences filtered by friendly name and status.
	ListConferences(ctx context.Context, friendlyName, status string) ([]Conference, error)
	// AnnounceConference plays announceURL to every participant.
	AnnounceConference(ctx context.Context, conferenceSID, announceURL string) error
	// AnnounceParticipant plays announceURL to a single call in the conference.
	AnnounceParticipant(ctx context.Context, conferenceSID, callSID, announceURL string) error
	// UpdateCallTwiML replaces the call's active instruction document.
	UpdateCallTwiML(ctx context.Context, callSID, twiml string) error
}

type Client struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	HTTP       *http.Client
}

func NewClient(baseURL, accountSID, authToken string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AccountSID: accountSID,
		AuthToken:  authToken,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether credentials are present; without them every
// control-plane call is skipped upstream.
func (c *Client) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

type conferencePage struct {
	Conferences []Conference `json:"conferences"`
}

func (c *Client) ListConferences(ctx context.Context, friendlyName, status string) ([]Conference, error) {
	q := url.Values{}
	if friendlyName != "" {
		q.Set("FriendlyName", friendlyName)
	}
	if status != "" {
		q.Set("Status", status)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Conferences.json?%s", c.BaseURL, c.AccountSID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list conferences", resp)
	}

	var page conferencePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}
	return page.Conferences, nil
}

func (c *Client) AnnounceConference(ctx context.Context, conferenceSID, announceURL string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Conferences/%s.json", c.BaseURL, c.AccountSID, conferenceSID)
	return c.postForm(ctx, "announce conference", endpoint, url.Values{
		"AnnounceUrl":    {announceURL},
		"AnnounceMethod": {http.MethodGet},
	})
}

func (c *Client) AnnounceParticipant(ctx context.Context, conferenceSID, callSID, announceURL string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Conferences/%s/Participants/%s.json",
		c.BaseURL, c.AccountSID, conferenceSID, callSID)
	return c.postForm(ctx, "announce participant", endpoint, url.Values{
		"AnnounceUrl":    {announceURL},
		"AnnounceMethod": {http.MethodGet},
	})
}

func (c *Client) UpdateCallTwiML(ctx context.Context, callSID, twiml string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", c.BaseURL, c.AccountSID, callSID)
	return c.postForm(ctx, "update call", endpoint, url.Values{
		"Twiml": {twiml},
	})
}

func (c *Client) postForm(ctx context.Context, op, endpoint string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apiError(op, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func apiError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
}
