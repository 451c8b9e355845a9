package smartapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := &Client{
		HTTP:    server.Client(),
		BaseURL: server.URL,
		APIKey:  "test-key",
	}
	return client, server
}

func TestLogin(t *testing.T) {
	var gotReq loginRequest
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, loginPath, r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-PrivateKey"))
		require.Equal(t, "USER", r.Header.Get("X-UserType"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]string{
				"jwtToken":     "jwt-1",
				"refreshToken": "refresh-1",
				"feedToken":    "feed-1",
			},
		})
	})
	defer server.Close()

	session, err := client.Login(context.Background(), "A123456", "1234", "654321")
	require.NoError(t, err)
	require.Equal(t, "jwt-1", session.JwtToken)
	require.Equal(t, "feed-1", session.FeedToken)
	require.Equal(t, "A123456", gotReq.ClientCode)
	require.Equal(t, "1234", gotReq.Password)
	require.Equal(t, "654321", gotReq.Totp)
}

func TestLoginMissingJwt(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]string{"refreshToken": "refresh-1"},
		})
	})
	defer server.Close()

	_, err := client.Login(context.Background(), "A123456", "1234", "654321")
	require.ErrorContains(t, err, "missing jwt token")
}

func TestGetQuotes(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, quotePath, r.URL.Path)
		require.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))

		var req quoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, ModeFull, req.Mode)
		require.Equal(t, []string{"3045"}, req.ExchangeTokens["NSE"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"fetched": []map[string]interface{}{
					{"exchange": "NSE", "symbolToken": "3045", "ltp": 820.5, "52WeekHigh": 912.0},
				},
				"unfetched": []map[string]interface{}{},
			},
		})
	})
	defer server.Close()

	result, err := client.GetQuotes(context.Background(), "jwt-1", ModeFull, map[string][]string{"NSE": {"3045"}})
	require.NoError(t, err)
	require.Len(t, result.Fetched, 1)
	require.Equal(t, 820.5, result.Fetched[0].Ltp)
	require.Equal(t, 912.0, result.Fetched[0].WeekHigh52)
	require.Empty(t, result.Unfetched)
}

func TestGetQuotesRequiresToken(t *testing.T) {
	client := &Client{HTTP: http.DefaultClient, BaseURL: "http://unused"}

	_, err := client.GetQuotes(context.Background(), "", ModeFull, map[string][]string{"NSE": {"3045"}})
	require.Error(t, err)
}

func TestUnauthorizedStatusCode(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	_, err := client.GetQuotes(context.Background(), "stale", ModeFull, map[string][]string{"NSE": {"3045"}})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestUnauthorizedErrorCode(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    false,
			"errorcode": "AG8001",
			"message":   "Invalid Token",
		})
	})
	defer server.Close()

	_, err := client.GetQuotes(context.Background(), "stale", ModeFull, map[string][]string{"NSE": {"3045"}})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAPIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    false,
			"errorcode": "AB1004",
			"message":   "Something went wrong",
		})
	})
	defer server.Close()

	_, err := client.GetQuotes(context.Background(), "jwt-1", ModeFull, map[string][]string{"NSE": {"3045"}})
	require.ErrorContains(t, err, "AB1004")
}

func TestMissingFetchedLists(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{},
		})
	})
	defer server.Close()

	_, err := client.GetQuotes(context.Background(), "jwt-1", ModeFull, map[string][]string{"NSE": {"3045"}})
	require.ErrorContains(t, err, "fetched/unfetched")
}
