package silexplorer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const authRoute = "/security/authenticate"

// Client talks to one OpenSILEX instance over its two endpoints: the REST
// API (authentication plus paginated listings) and the GraphQL endpoint.
// A Client is safe for concurrent use once Login has returned.
type Client struct {
	urlREST    string
	urlGraphQL string
	token      string
	http       *http.Client
	log        *zap.Logger
}

// ClientOption is a functional option for NewClient.
type ClientOption func(c *Client)

// OptHTTPClient sets the underlying http.Client. The default client has a 30
// second timeout.
func OptHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

// OptLogger sets the logger. The default discards everything.
func OptLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// OptToken seeds the client with an existing bearer token, skipping Login.
func OptToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient builds a Client for the given REST and GraphQL base URLs.
// Trailing slashes are trimmed. Both URLs are required.
func NewClient(urlREST, urlGraphQL string, opts ...ClientOption) (*Client, error) {
	if urlREST == "" || urlGraphQL == "" {
		return nil, errors.New("both the REST and GraphQL base URLs are required")
	}
	c := &Client{
		urlREST:    strings.TrimRight(urlREST, "/"),
		urlGraphQL: strings.TrimRight(urlGraphQL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URLRest returns the (trimmed) REST base URL.
func (c *Client) URLRest() string { return c.urlREST }

// URLGraphQL returns the (trimmed) GraphQL endpoint URL.
func (c *Client) URLGraphQL() string { return c.urlGraphQL }

// Token returns the bearer token obtained by Login, or the seeded one.
func (c *Client) Token() string { return c.token }

type authResult struct {
	Result struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	} `json:"result"`
}

// Login authenticates against <rest>/security/authenticate and stores the
// returned bearer token on the client. Identifier and password are required.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	if identifier == "" || password == "" {
		return &AuthError{Message: "identifier and password are required"}
	}
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.urlREST+authRoute, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building auth request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &AuthError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading auth response")
	}
	var ar authResult
	decodeErr := json.Unmarshal(raw, &ar)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A proxy may answer with a non-JSON body; keep the status and
		// whatever the server sent.
		msg := ar.Result.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = "unknown authentication error"
		}
		return &AuthError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return errors.Wrap(decodeErr, "decoding auth response")
	}
	c.token = ar.Result.Token
	c.log.Debug("authenticated", zap.String("rest", c.urlREST))
	return nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQL posts query with variables to the GraphQL endpoint and decodes the
// response's data field into out. A GraphQL-level error in the payload is
// returned as an *APIError carrying the remote message.
func (c *Client) GraphQL(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return errors.Wrap(err, "encoding graphql request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.urlGraphQL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building graphql request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting graphql query")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: string(b)}
	}
	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return errors.Wrap(err, "decoding graphql response")
	}
	if len(gr.Errors) > 0 {
		return &APIError{Message: gr.Errors[0].Message}
	}
	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return errors.Wrap(err, "decoding graphql data")
		}
	}
	return nil
}

type restEnvelope struct {
	Result   json.RawMessage `json:"result"`
	Metadata struct {
		Pagination struct {
			HasNextPage bool `json:"hasNextPage"`
			TotalPages  int  `json:"totalPages"`
		} `json:"pagination"`
	} `json:"metadata"`
}

// GetPaged walks a paginated REST listing. It GETs <rest><route> repeatedly
// with increasing page numbers, passing each page's raw result array to
// page. It keeps going while the response metadata reports either a next
// page or more total pages. params must not contain page or pageSize;
// those are managed here.
func (c *Client) GetPaged(ctx context.Context, route string, params url.Values, pageSize int, page func(result json.RawMessage) error) error {
	if pageSize <= 0 {
		pageSize = 20
	}
	for pageNum := 0; ; pageNum++ {
		q := url.Values{}
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("page", strconv.Itoa(pageNum))
		q.Set("pageSize", strconv.Itoa(pageSize))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlREST+route+"?"+q.Encode(), nil)
		if err != nil {
			return errors.Wrap(err, "building paged request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return errors.Wrapf(err, "getting %s page %d", route, pageNum)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return errors.Wrapf(err, "reading %s page %d", route, pageNum)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		var env restEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return errors.Wrapf(err, "decoding %s page %d", route, pageNum)
		}
		if err := page(env.Result); err != nil {
			return err
		}
		more := env.Metadata.Pagination.HasNextPage ||
			pageNum+1 < env.Metadata.Pagination.TotalPages
		if !more {
			return nil
		}
	}
}
