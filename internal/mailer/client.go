package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the transactional email delivery service. The service
// resolves user ids to addresses itself; this backend never sees them.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ProjectOfferEmail is the structured template for a new offer.
type ProjectOfferEmail struct {
	UserID      string    `json:"user_id"`
	ClientName  string    `json:"client_name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Budget      float64   `json:"budget"`
	Deadline    time.Time `json:"deadline"`
	ProjectID   string    `json:"project_id"`
}

// LifecycleEmail is the generic template for subsequent lifecycle events.
type LifecycleEmail struct {
	UserID    string `json:"user_id"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	ProjectID string `json:"project_id,omitempty"`
}

func (c *Client) SendProjectOffer(userID uuid.UUID, email ProjectOfferEmail) error {
	email.UserID = userID.String()
	return c.post("/emails/project-offer", email)
}

func (c *Client) SendLifecycle(userID uuid.UUID, email LifecycleEmail) error {
	email.UserID = userID.String()
	return c.post("/emails/lifecycle", email)
}

func (c *Client) post(path string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + path
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send email: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}
