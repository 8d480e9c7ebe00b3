package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"orderpick/internal/domain"
)

// Client is a generic HTTP OrderSource. Both supported order-management
// APIs expose the same two operations once their payloads are normalized
// into the Order shape server-side by this client's decode step.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	tags    TagFilter
}

func NewClient(name, baseURL, apiKey string, tags TagFilter) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		tags: tags,
	}
}

func (c *Client) Name() string { return c.name }

type remoteOrder struct {
	domain.Order

	Tags   string `json:"tags,omitempty"`
	Folder string `json:"folder,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"`
}

func (c *Client) GetOrdersByStatusOrTag(ctx context.Context, filter Filter) ([]domain.Order, error) {
	u, err := url.JoinPath(c.baseURL, "api", "orders")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", c.name, resp.StatusCode)
	}

	var remote []remoteOrder
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, err
	}

	// Tag filtering happens client-side: the remote APIs have no tag query
	// and scatter the value across several fields.
	orders := make([]domain.Order, 0, len(remote))
	for _, ro := range remote {
		if filter.Tag != "" && !c.tags.Match(filter.Tag, map[string]string{
			"tags":   ro.Tags,
			"folder": ro.Folder,
			"notes":  ro.Notes,
			"status": ro.Status,
		}) {
			continue
		}
		orders = append(orders, ro.Order)
	}
	return orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, remoteID, newStatus string) error {
	u, err := url.JoinPath(c.baseURL, "api", "orders", remoteID, "status")
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"status": newStatus})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUpdate, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: %s returned status %d", domain.ErrRemoteUpdate, c.name, resp.StatusCode)
	}
	return nil
}
