package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"eoreview/internal/model"
)

var (
	// ErrUnavailable covers transport failures, non-2xx replies and
	// undecodable bodies. Callers treat it as "no remote data".
	ErrUnavailable = errors.New("remote: unavailable")
	// ErrVersionMismatch is returned when the server still disagrees on the
	// version after the one permitted retry.
	ErrVersionMismatch = errors.New("remote: version mismatch")
)

const (
	headerClientVersion = "X-Client-Version"
	headerServerVersion = "X-Server-Version"
	headerSession       = "X-Session-Id"
	headerInstall       = "X-Install-Id"
)

type Options struct {
	URL           string
	Token         string
	ClientVersion string
	Timeout       time.Duration
	// SessionID defaults to a random UUID.
	SessionID string
	// InstallID identifies the data directory across runs. Optional.
	InstallID  string
	HTTPClient *http.Client
}

// Client talks to the progress service. A nil *Client is valid and reports
// itself as not configured.
type Client struct {
	base    string
	token   string
	session string
	install string
	http    *http.Client

	mu      sync.Mutex
	version string

	group singleflight.Group
}

// New returns nil when opts.URL is empty.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if base == "" {
		return nil
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	session := opts.SessionID
	if session == "" {
		session = uuid.NewString()
	}
	return &Client{
		base:    base,
		token:   opts.Token,
		session: session,
		install: strings.TrimSpace(opts.InstallID),
		http:    hc,
		version: opts.ClientVersion,
	}
}

func (c *Client) Configured() bool { return c != nil }

func (c *Client) SessionID() string {
	if c == nil {
		return ""
	}
	return c.session
}

// Version is the version the client currently sends.
func (c *Client) Version() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Client) setVersion(v string) {
	c.mu.Lock()
	c.version = v
	c.mu.Unlock()
}

type mismatchError struct {
	server string
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("server version %q", e.server)
}

type progressReply struct {
	Version   string `json:"version"`
	Completed []struct {
		ID string `json:"qid"`
	} `json:"completed"`
}

// Meta is the application metadata published by the server.
type Meta struct {
	Version            string   `json:"version"`
	PermittedTestTypes []string `json:"permittedTestTypes"`
}

// Completed fetches the ids the user has completed for test. Concurrent
// calls for the same test share one request.
func (c *Client) Completed(ctx context.Context, test string) (model.IDSet, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: not configured", ErrUnavailable)
	}
	v, err, _ := c.group.Do("progress:"+test, func() (any, error) {
		var reply progressReply
		q := url.Values{"test": {test}}
		if err := c.getWithRetry(ctx, "/api/progress?"+q.Encode(), &reply); err != nil {
			return nil, err
		}
		ids := model.IDSet{}
		for _, e := range reply.Completed {
			if e.ID != "" {
				ids.Add(e.ID)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.IDSet), nil
}

// Meta fetches application metadata.
func (c *Client) Meta(ctx context.Context) (Meta, error) {
	if c == nil {
		return Meta{}, fmt.Errorf("%w: not configured", ErrUnavailable)
	}
	v, err, _ := c.group.Do("meta", func() (any, error) {
		var m Meta
		if err := c.getWithRetry(ctx, "/api/meta", &m); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return Meta{}, err
	}
	return v.(Meta), nil
}

// getWithRetry retries once after adopting the server's version. The
// retry itself never retries.
func (c *Client) getWithRetry(ctx context.Context, path string, out any) error {
	err := c.get(ctx, path, out)
	var mm *mismatchError
	if !errors.As(err, &mm) {
		return err
	}
	c.setVersion(mm.server)
	err = c.get(ctx, path, out)
	if errors.As(err, &mm) {
		c.setVersion(mm.server)
		return fmt.Errorf("%w: %v", ErrVersionMismatch, err)
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if v := c.Version(); v != "" {
		req.Header.Set(headerClientVersion, v)
	}
	req.Header.Set(headerSession, c.session)
	if c.install != "" {
		req.Header.Set(headerInstall, c.install)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		server := resp.Header.Get(headerServerVersion)
		if server == "" {
			var body struct {
				Version string `json:"version"`
			}
			_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
			server = body.Version
		}
		return &mismatchError{server: server}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s (%s)", ErrUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
