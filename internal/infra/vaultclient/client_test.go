package vaultclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, payload any) *http.Response {
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}
}

func kvBody(data map[string]any, meta map[string]any) map[string]any {
	if meta == nil {
		meta = map[string]any{"version": 3}
	}
	return map[string]any{"data": map[string]any{"data": data, "metadata": meta}}
}

func stubClient(fn roundTripFunc, opts ...Option) *Client {
	return New("https://vault.example/", "vault-token", append(opts, WithHTTPClient(&http.Client{Transport: fn}))...)
}

func TestParseSecretRef(t *testing.T) {
	cases := []struct {
		in   string
		want SecretRef
	}{
		{"secret/veritas", SecretRef{Mount: "secret", Path: "veritas", Field: DefaultField}},
		{"/secret/data/veritas/prod#hmac", SecretRef{Mount: "secret", Path: "veritas/prod", Field: "hmac"}},
		{"kv/certs#key@4", SecretRef{Mount: "kv", Path: "certs", Field: "key", Version: 4}},
	}
	for _, tc := range cases {
		got, err := ParseSecretRef(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
	for _, bad := range []string{"", "secret", "secret/", "secret/x#", "secret/x@0", "secret/x@abc"} {
		if _, err := ParseSecretRef(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestSecretReadsField(t *testing.T) {
	t.Parallel()
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("X-Vault-Token") != "vault-token" || r.Header.Get("X-Vault-Namespace") != "team-a" {
			return jsonResponse(http.StatusForbidden, nil), nil
		}
		if r.URL.Path != "/v1/secret/data/veritas/prod" || r.URL.Query().Get("version") != "2" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, kvBody(map[string]any{DefaultField: "s3cret"}, nil)), nil
	}, WithNamespace("team-a"))

	secret, err := client.Secret(context.Background(), SecretRef{Mount: "secret", Path: "veritas/prod", Field: DefaultField, Version: 2})
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	if string(secret) != "s3cret" {
		t.Fatalf("unexpected secret %q", secret)
	}
}

func TestSecretErrors(t *testing.T) {
	t.Parallel()
	ref := SecretRef{Mount: "secret", Path: "veritas", Field: DefaultField}
	ctx := context.Background()

	if _, err := New("", "token").Secret(ctx, ref); err == nil {
		t.Fatalf("expected error without addr")
	}

	notFound := stubClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, map[string]any{"errors": []string{}}), nil
	})
	if _, err := notFound.Secret(ctx, ref); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}

	deleted := stubClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, kvBody(nil, map[string]any{"version": 2, "deletion_time": "2024-06-01T00:00:00Z"})), nil
	})
	if _, err := deleted.Secret(ctx, ref); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected deleted version to be not found, got %v", err)
	}

	denied := stubClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, map[string]any{"errors": []string{"permission denied"}}), nil
	})
	if _, err := denied.Secret(ctx, ref); err == nil {
		t.Fatalf("expected error on 403")
	}

	wrongType := stubClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, kvBody(map[string]any{DefaultField: 42}, nil)), nil
	})
	if _, err := wrongType.Secret(ctx, ref); err == nil {
		t.Fatalf("expected error for non-string field")
	}
}
