package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ContainerResponse — контейнер из API.
type ContainerResponse struct {
	Name                  string   `json:"name"`
	State                 string   `json:"state"`
	Running               bool     `json:"running"`
	MismatchedQueuesFatal bool     `json:"mismatched_queues_fatal"`
	Queues                []string `json:"queues"`
	Consuming             []string `json:"consuming"`
	Error                 string   `json:"error,omitempty"`
}

// EventResponse — событие журнала из API.
type EventResponse struct {
	ID         string `json:"id"`
	Container  string `json:"container"`
	From       string `json:"from"`
	To         string `json:"to"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// ListEventsOpts — параметры фильтрации событий.
type ListEventsOpts struct {
	State string
	Limit int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API демона.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListContainers возвращает все контейнеры.
func (c *Client) ListContainers() ([]ContainerResponse, error) {
	var containers []ContainerResponse
	err := c.list("/api/v1/containers", nil, &containers)
	return containers, err
}

// GetContainer возвращает контейнер по имени.
func (c *Client) GetContainer(name string) (*ContainerResponse, error) {
	var container ContainerResponse
	err := c.get("/api/v1/containers/"+url.PathEscape(name), &container)
	return &container, err
}

// StartContainer запускает контейнер.
func (c *Client) StartContainer(name string) (*ContainerResponse, error) {
	var container ContainerResponse
	err := c.post("/api/v1/containers/"+url.PathEscape(name)+"/start", nil, &container)
	return &container, err
}

// StopContainer останавливает контейнер.
func (c *Client) StopContainer(name string) (*ContainerResponse, error) {
	var container ContainerResponse
	err := c.post("/api/v1/containers/"+url.PathEscape(name)+"/stop", nil, &container)
	return &container, err
}

// ListEvents возвращает журнал переходов контейнера.
func (c *Client) ListEvents(name string, opts ListEventsOpts) ([]EventResponse, error) {
	params := url.Values{}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var events []EventResponse
	err := c.list("/api/v1/containers/"+url.PathEscape(name)+"/events", params, &events)
	return events, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
