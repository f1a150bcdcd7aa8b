// Package flow posts deferred-delivery requests to the external
// scheduling/automation endpoint. The endpoint owns the schedule's
// lifecycle; once accepted, delivery comes back later through the
// scheduled-deliveries webhook.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrSchedulingFailed means the endpoint rejected the request or could not
// be reached. Fatal for the triggering operation; there is no local retry.
var ErrSchedulingFailed = fmt.Errorf("scheduling request failed")

// scheduleDateLayout is the UTC minute-precision timestamp the endpoint expects.
const scheduleDateLayout = "2006-01-02T15:04Z"

// ScheduleRequest carries one deferred delivery. Transient: constructed,
// sent once, not persisted locally.
type ScheduleRequest struct {
	FireAt     time.Time
	Title      string
	ReceiverID uuid.UUID
	SenderID   uuid.UUID
}

type scheduleRequestBody struct {
	ScheduleDate string `json:"scheduledate"`
	Title        string `json:"title"`
	ReceiverID   string `json:"receiverid"`
	SenderID     string `json:"senderid"`
}

type Client struct {
	triggerURL string
	httpClient *http.Client
}

func NewClient(triggerURL string) *Client {
	return &Client{
		triggerURL: triggerURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Schedule posts the request to the automation endpoint. Success is any 2xx
// response.
func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) error {
	payload := scheduleRequestBody{
		ScheduleDate: req.FireAt.UTC().Format(scheduleDateLayout),
		Title:        req.Title,
		ReceiverID:   req.ReceiverID.String(),
		SenderID:     req.SenderID.String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.triggerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build schedule request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchedulingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: endpoint returned status %d", ErrSchedulingFailed, resp.StatusCode)
	}
	return nil
}
