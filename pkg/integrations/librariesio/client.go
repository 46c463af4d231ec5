// Package librariesio provides an HTTP client for the libraries.io
// dependents-by-package API.
//
// The endpoint GET {base}/npm/{name}/dependents?api_key=K&per_page=N&page=P
// normally returns a JSON array of projects. When the account or platform
// cannot use the feature it returns an object {"message": "..."} instead;
// [Client.Dependents] reports that as [ErrFeatureDisabled].
package librariesio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/integrations"
)

// ErrFeatureDisabled is returned when the API answers with a message object
// instead of a result array.
var ErrFeatureDisabled = errors.New("libraries.io dependents feature disabled")

// Client talks to the libraries.io API.
type Client struct {
	*integrations.Client
	baseURL string
	apiKey  string
}

// NewClient creates a Client. An empty apiKey leaves the client unusable;
// check [Client.Enabled] first.
func NewClient(base *integrations.Client, baseURL, apiKey string) *Client {
	return &Client{
		Client:  base,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

type project struct {
	Name string `json:"name"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Dependents returns the names on one page (1-based) of dependents of the
// npm package name. Entries without a name are skipped.
func (c *Client) Dependents(ctx context.Context, name string, page, perPage int) ([]string, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(max(page, 1)))
	u := c.baseURL + "/npm/" + integrations.EscapeName(name) + "/dependents?" + q.Encode()

	body, err := c.GetRaw(ctx, u)
	if err != nil {
		return nil, err
	}
	return decodeDependents(body)
}

func decodeDependents(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	switch body[0] {
	case '[':
		var projects []project
		if err := json.Unmarshal(body, &projects); err != nil {
			return nil, fmt.Errorf("decode dependents: %w", err)
		}
		names := make([]string, 0, len(projects))
		for _, p := range projects {
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
		return names, nil
	case '{':
		var msg messageResponse
		_ = json.Unmarshal(body, &msg)
		text := msg.Message
		if text == "" {
			text = msg.Error
		}
		return nil, brerrors.Wrap(brerrors.ErrCodeFeatureDisabled, ErrFeatureDisabled, "libraries.io: %s", text)
	default:
		return nil, fmt.Errorf("decode dependents: unexpected body %.40q", body)
	}
}
