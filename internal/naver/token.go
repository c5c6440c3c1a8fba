// Package naver exchanges Naver Commerce API credentials for access tokens.
package naver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/khanghh/naversign/internal/signature"
	"github.com/khanghh/naversign/params"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrAccountIDRequired = errors.New("account id is required for SELLER tokens")

type Credentials struct {
	ClientID     string
	ClientSecret string
	Type         string // SELF or SELLER
	AccountID    string // seller account, only for SELLER
}

type Signer interface {
	Generate(ctx context.Context, req signature.Request, mode signature.Mode) (*signature.Signature, error)
}

type TokenClient struct {
	tokenURL   string
	signer     Signer
	httpClient *http.Client
	now        func() time.Time
}

// Token signs the credentials and requests a client_credentials token.
// The secret itself is never sent, only client_secret_sign.
func (c *TokenClient) Token(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	tokenType := creds.Type
	if tokenType == "" {
		tokenType = params.NaverTokenTypeSelf
	}
	if tokenType == params.NaverTokenTypeSeller && creds.AccountID == "" {
		return nil, ErrAccountIDRequired
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	sig, err := c.signer.Generate(ctx, signature.Request{
		ClientID:     creds.ClientID,
		Timestamp:    timestamp,
		ClientSecret: creds.ClientSecret,
	}, signature.ModeBase64Wrapped)
	if err != nil {
		return nil, err
	}

	endpointParams := url.Values{
		"timestamp":          {timestamp},
		"client_secret_sign": {sig.Value},
		"type":               {tokenType},
	}
	if tokenType == params.NaverTokenTypeSeller {
		endpointParams.Set("account_id", creds.AccountID)
	}
	cfg := clientcredentials.Config{
		ClientID:       creds.ClientID,
		TokenURL:       c.tokenURL,
		EndpointParams: endpointParams,
		AuthStyle:      oauth2.AuthStyleInParams,
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return cfg.Token(ctx)
}

func NewTokenClient(tokenURL string, signer Signer, httpClient *http.Client) *TokenClient {
	if tokenURL == "" {
		tokenURL = params.NaverTokenURL
	}
	return &TokenClient{
		tokenURL:   tokenURL,
		signer:     signer,
		httpClient: httpClient,
		now:        time.Now,
	}
}
