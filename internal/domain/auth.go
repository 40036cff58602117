package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// Credentials stores the personal access token used to authenticate against
// Azure DevOps. PATs are sent with basic authentication and an empty
// username, per the Azure DevOps REST convention.
type Credentials struct {
	PAT string
}

// Validate checks that the credentials are usable.
func (c *Credentials) Validate() error {
	if c == nil || c.PAT == "" {
		return fmt.Errorf("personal access token is required")
	}
	return nil
}

// NewAuthenticatedClient returns an HTTP client that attaches the PAT
// authorization header to every request. The underlying transport is the
// default one; the client is safe for concurrent use and is shared by all
// tool invocations.
func NewAuthenticatedClient(creds *Credentials) (*http.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &patTransport{
			base: http.DefaultTransport,
			pat:  creds.PAT,
		},
	}, nil
}

// patTransport is an http.RoundTripper that adds the PAT basic-auth header.
type patTransport struct {
	base http.RoundTripper
	pat  string
}

// RoundTrip implements http.RoundTripper by adding the authorization header
// to a clone of the request.
func (t *patTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("Authorization", "Basic "+EncodePAT(t.pat))
	return t.base.RoundTrip(clonedReq)
}

// EncodePAT encodes a personal access token for a basic authorization
// header. The username part is empty.
func EncodePAT(pat string) string {
	return base64.StdEncoding.EncodeToString([]byte(":" + pat))
}
