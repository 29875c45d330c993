// Package vaultclient reads certificate signing secrets from a Vault KV v2
// engine over its HTTP API.
package vaultclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultField is used when a secret reference names no field.
const DefaultField = "signing_secret"

var ErrSecretNotFound = errors.New("vault secret not found")

// SecretRef points at one field of a KV v2 secret, written as
// "mount/path[#field][@version]", e.g. "secret/veritas#signing_secret".
type SecretRef struct {
	Mount   string
	Path    string
	Field   string
	Version int
}

func ParseSecretRef(raw string) (SecretRef, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "/")
	var ref SecretRef
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		v, err := strconv.Atoi(raw[at+1:])
		if err != nil || v <= 0 {
			return SecretRef{}, fmt.Errorf("invalid secret version in %q", raw)
		}
		ref.Version = v
		raw = raw[:at]
	}
	ref.Field = DefaultField
	if hash := strings.Index(raw, "#"); hash >= 0 {
		ref.Field = raw[hash+1:]
		raw = raw[:hash]
	}
	mount, path, ok := strings.Cut(raw, "/")
	// "secret/data/x" is the raw API path; accept it as well.
	path = strings.TrimPrefix(path, "data/")
	if !ok || mount == "" || path == "" || ref.Field == "" {
		return SecretRef{}, fmt.Errorf("secret reference %q must look like mount/path#field", raw)
	}
	ref.Mount, ref.Path = mount, path
	return ref, nil
}

func (r SecretRef) String() string {
	s := r.Mount + "/" + r.Path + "#" + r.Field
	if r.Version > 0 {
		s += "@" + strconv.Itoa(r.Version)
	}
	return s
}

type Client struct {
	addr       string
	token      string
	namespace  string
	httpClient *http.Client
}

type Option func(*Client)

// WithNamespace sets X-Vault-Namespace for Vault Enterprise.
func WithNamespace(ns string) Option {
	return func(c *Client) { c.namespace = ns }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(addr, token string, opts ...Option) *Client {
	c := &Client{
		addr:       strings.TrimRight(addr, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type kvResponse struct {
	Data struct {
		Data     map[string]any `json:"data"`
		Metadata struct {
			Version      int    `json:"version"`
			DeletionTime string `json:"deletion_time"`
			Destroyed    bool   `json:"destroyed"`
		} `json:"metadata"`
	} `json:"data"`
	Errors []string `json:"errors"`
}

// Secret returns the string value of ref's field.
func (c *Client) Secret(ctx context.Context, ref SecretRef) ([]byte, error) {
	if c.addr == "" || c.token == "" {
		return nil, errors.New("VAULT_ADDR and VAULT_TOKEN are required")
	}
	endpoint := c.addr + "/v1/" + url.PathEscape(ref.Mount) + "/data/" + escapePath(ref.Path)
	if ref.Version > 0 {
		endpoint += "?version=" + strconv.Itoa(ref.Version)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", c.token)
	if c.namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.namespace)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request: %w", err)
	}
	defer resp.Body.Close()

	var body kvResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode vault response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, ref)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("vault read %s: status %d %s", ref, resp.StatusCode, strings.Join(body.Errors, "; "))
	}
	if body.Data.Metadata.Destroyed || body.Data.Metadata.DeletionTime != "" {
		return nil, fmt.Errorf("%w: %s version %d was deleted", ErrSecretNotFound, ref, body.Data.Metadata.Version)
	}
	value, ok := body.Data.Data[ref.Field].(string)
	if !ok || value == "" {
		return nil, fmt.Errorf("vault secret %s has no string field %q", ref, ref.Field)
	}
	return []byte(value), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
