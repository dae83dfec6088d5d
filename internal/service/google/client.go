// Package google talks to the Google OAuth 2.0 endpoints: building the
// authorization URL, exchanging the code and reading the user profile.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"

	"menu-auth/internal/domain"
	"menu-auth/internal/metrics"
	"menu-auth/pkg/logger"
)

var (
	// ErrExchangeFailed is returned when the authorization code exchange fails
	ErrExchangeFailed = errors.New("token exchange failed")
	// ErrProfileFetchFailed is returned when the userinfo call fails
	ErrProfileFetchFailed = errors.New("profile fetch failed")
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultTimeout     = 10 * time.Second
)

// Scopes requested on every authorization
var Scopes = []string{"openid", "email", "profile"}

// Config holds the provider credentials and endpoint overrides
type Config struct {
	ClientID     string
	ClientSecret string

	// Optional endpoint overrides, mainly for tests
	AuthURL     string
	TokenURL    string
	UserinfoURL string

	// Timeout bounds each outbound call
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs the outbound identity provider calls
type Client struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	userinfoURL  string
	timeout      time.Duration
	httpClient   *http.Client
	logger       *logger.Logger
}

// NewClient creates a Google identity provider client
func NewClient(cfg Config, logger *logger.Logger) *Client {
	endpoint := googleoauth.Endpoint
	endpoint.AuthURL = defaultAuthURL
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	// client_id and client_secret travel in the form body
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userinfoURL := defaultUserinfoURL
	if cfg.UserinfoURL != "" {
		userinfoURL = cfg.UserinfoURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		endpoint:     endpoint,
		userinfoURL:  userinfoURL,
		timeout:      timeout,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Configured reports whether a client id is available
func (c *Client) Configured() bool {
	return c.clientID != ""
}

func (c *Client) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint:     c.endpoint,
	}
}

// AuthCodeURL builds the authorization URL carrying the state parameter
func (c *Client) AuthCodeURL(state, redirectURI string) string {
	return c.oauthConfig(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode trades an authorization code for a token set. The code is
// single use, so failures are returned without retry.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	start := time.Now()
	tok, err := c.oauthConfig(redirectURI).Exchange(ctx, code)
	metrics.ProviderCall("exchange", start, err)
	if err != nil {
		log := c.logger.WithError(err)
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			log = log.WithField("status_code", rerr.Response.StatusCode)
		}
		log.Warn("Authorization code exchange failed")
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	return tok, nil
}

// userinfo is the OpenID Connect userinfo document
type userinfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// FetchProfile reads the OpenID userinfo document with bearer auth
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*domain.ExternalIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	base := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	bearer := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	start := time.Now()
	info, err := c.getUserinfo(ctx, bearer)
	metrics.ProviderCall("userinfo", start, err)
	if err != nil {
		log := c.logger.WithError(err)
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			log = log.WithField("status_code", gerr.Code)
		}
		log.Warn("Userinfo request failed")
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrProfileFetchFailed)
	}

	return &domain.ExternalIdentity{
		ExternalID:    info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified != nil && *info.EmailVerified,
		DisplayName:   info.Name,
		PictureURL:    info.Picture,
	}, nil
}

func (c *Client) getUserinfo(ctx context.Context, client *http.Client) (*userinfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, err
	}

	var info userinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &info, nil
}
