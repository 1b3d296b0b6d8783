package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		Environment:    "sandbox",
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://example.com/api/mpesa/callback",
		BaseURL:        baseURL,
	}
}

func TestPassword_Deterministic(t *testing.T) {
	c := NewClient(testConfig("http://unused"))
	at := time.Date(2025, 1, 15, 14, 30, 22, 0, time.UTC)

	password, timestamp := c.Password(at)

	assert.Equal(t, "20250115143022", timestamp)
	want := base64.StdEncoding.EncodeToString([]byte("174379" + "passkey" + "20250115143022"))
	assert.Equal(t, want, password)
}

func TestGetAccessToken_MissingCredentials(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})

	_, err := c.GetAccessToken(context.Background())

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
}

func TestGetAccessToken_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error_description": "Bad credentials"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.GetAccessToken(context.Background())

	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "Bad credentials", ae.Message)
}

func TestGetAccessToken_Upstream5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.GetAccessToken(context.Background())

	var ue *UnavailableError
	require.True(t, errors.As(err, &ue))
}

func TestInitiateSTKPush_Success(t *testing.T) {
	var captured stkPushPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			auth := r.Header.Get("Authorization")
			want := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
			assert.Equal(t, want, auth)
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: "3599"})
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			_ = json.NewEncoder(w).Encode(STKPushResponse{
				MerchantRequestID:   "M1",
				CheckoutRequestID:   "C1",
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	c.now = func() time.Time { return time.Date(2025, 1, 15, 14, 30, 22, 0, time.UTC) }

	resp, err := c.InitiateSTKPush(context.Background(), "0712345678", 100.49, "Donation", "Party donation")

	require.NoError(t, err)
	assert.Equal(t, "M1", resp.MerchantRequestID)
	assert.Equal(t, "C1", resp.CheckoutRequestID)

	// Amount is rounded to the nearest whole unit on the wire.
	assert.Equal(t, int64(100), captured.Amount)
	assert.Equal(t, "254712345678", captured.PartyA)
	assert.Equal(t, "254712345678", captured.PhoneNumber)
	assert.Equal(t, "174379", captured.BusinessShortCode)
	assert.Equal(t, "CustomerPayBillOnline", captured.TransactionType)
	assert.Equal(t, "20250115143022", captured.Timestamp)
	wantPassword := base64.StdEncoding.EncodeToString([]byte("174379passkey20250115143022"))
	assert.Equal(t, wantPassword, captured.Password)
	assert.Equal(t, "Donation", captured.AccountReference)
}

func TestInitiateSTKPush_DefaultsReferenceAndDesc(t *testing.T) {
	var captured stkPushPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(STKPushResponse{MerchantRequestID: "M1", CheckoutRequestID: "C1"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.InitiateSTKPush(context.Background(), "0712345678", 50, "", "")

	require.NoError(t, err)
	assert.Equal(t, "Payment", captured.AccountReference)
	assert.Equal(t, "Payment", captured.TransactionDesc)
}

func TestInitiateSTKPush_BadPhone(t *testing.T) {
	c := NewClient(testConfig("http://unused"))

	_, err := c.InitiateSTKPush(context.Background(), "0812345678", 100, "", "")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestInitiateSTKPush_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(apiError{ErrorMessage: "Invalid CallBackURL"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.InitiateSTKPush(context.Background(), "0712345678", 100, "", "")

	var re *RejectedError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Invalid CallBackURL", re.Message)
}

func TestInitiateSTKPush_MissingShortCode(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.ShortCode = ""
	c := NewClient(cfg)

	_, err := c.InitiateSTKPush(context.Background(), "0712345678", 100, "", "")

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
}
