package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	authPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// The gateway's compact timestamp format (YYYYMMDDHHmmss).
	TimestampLayout = "20060102150405"

	transactionType = "CustomerPayBillOnline"
)

// Config holds the provider settings. Missing values are tolerated at
// construction and rejected with a ConfigError at call time.
type Config struct {
	Environment    string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	BaseURL        string
}

// ConfigFromEnv reads the MPESA_* environment variables. The base URL follows
// MPESA_ENVIRONMENT (sandbox unless explicitly "production").
func ConfigFromEnv() Config {
	cfg := Config{
		Environment:    strings.TrimSpace(os.Getenv("MPESA_ENVIRONMENT")),
		ConsumerKey:    strings.TrimSpace(os.Getenv("MPESA_CONSUMER_KEY")),
		ConsumerSecret: strings.TrimSpace(os.Getenv("MPESA_CONSUMER_SECRET")),
		ShortCode:      strings.TrimSpace(os.Getenv("MPESA_BUSINESS_SHORT_CODE")),
		Passkey:        strings.TrimSpace(os.Getenv("MPESA_PASSKEY")),
		CallbackURL:    strings.TrimSpace(os.Getenv("MPESA_CALLBACK_URL")),
	}
	if cfg.Environment == "production" {
		cfg.BaseURL = productionBaseURL
	} else {
		cfg.BaseURL = sandboxBaseURL
	}
	return cfg
}

// Client talks to the Daraja HTTP API. Each push re-authenticates; correctness
// does not depend on token caching.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		now:  time.Now,
	}
}

// GetAccessToken exchanges the consumer key/secret for a bearer token.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return "", &ConfigError{Missing: "MPESA_CONSUMER_KEY and MPESA_CONSUMER_SECRET"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+authPath, nil)
	if err != nil {
		return "", &UnavailableError{Err: err}
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UnavailableError{Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var tok tokenResponse
		if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
			return "", &UnavailableError{Err: fmt.Errorf("malformed token response: %s", body)}
		}
		return tok.AccessToken, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var ae apiError
		_ = json.Unmarshal(body, &ae)
		return "", &AuthError{Status: resp.StatusCode, Message: ae.ErrorDescription}
	default:
		return "", &UnavailableError{Err: fmt.Errorf("token endpoint returned %d", resp.StatusCode)}
	}
}

// Password derives the per-request secret: base64(shortCode + passkey + timestamp).
// Pure function of the configured identity and t.
func (c *Client) Password(t time.Time) (password, timestamp string) {
	timestamp = t.Format(TimestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
	return password, timestamp
}

// InitiateSTKPush normalizes the phone number, rounds the amount to the nearest
// whole unit, signs the payload and submits it to the provider.
func (c *Client) InitiateSTKPush(ctx context.Context, phoneNumber string, amount float64, accountReference, transactionDesc string) (*STKPushResponse, error) {
	if c.cfg.ShortCode == "" || c.cfg.Passkey == "" {
		return nil, &ConfigError{Missing: "MPESA_BUSINESS_SHORT_CODE and MPESA_PASSKEY"}
	}
	if c.cfg.CallbackURL == "" {
		return nil, &ConfigError{Missing: "MPESA_CALLBACK_URL"}
	}

	phone, err := NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	accessToken, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.Password(c.now())
	if accountReference == "" {
		accountReference = "Payment"
	}
	if transactionDesc == "" {
		transactionDesc = "Payment"
	}

	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            int64(math.Round(amount)),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   transactionDesc,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(raw))
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		_ = json.Unmarshal(body, &ae)
		return nil, &RejectedError{Status: resp.StatusCode, Message: ae.ErrorMessage}
	}

	var out STKPushResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &UnavailableError{Err: fmt.Errorf("malformed push response: %s", body)}
	}
	return &out, nil
}
