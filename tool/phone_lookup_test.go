package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/graphflow/log"
	"github.com/graphflow/graphflow/store/memory"
)

func lookupServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "254712345678", r.URL.Query().Get("phone"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func str(s string) *string { return &s }

func TestPhoneLookupClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		ok         bool
		apiCode    *string
		wantStatus LookupStatus
		action     NextAction
		message    string
		user       *LookupUser
	}{
		{
			name:       "registered",
			status:     200,
			body:       `{"code": "00", "data": {"phone": "254712345678", "name": "Jane Wanjiru", "idNumber": "12345678", "email": "jane@example.com"}}`,
			ok:         true,
			apiCode:    str("00"),
			wantStatus: StatusRegistered,
			action:     ActionContinue,
			message:    "You are registered with CIC. Let’s continue.",
			user:       &LookupUser{Phone: str("254712345678"), FullName: str("Jane Wanjiru"), IDNumber: str("12345678"), Email: str("jane@example.com")},
		},
		{
			name:       "registered prefers fullName and falls back to input phone",
			status:     200,
			body:       `{"code": "00", "data": {"fullName": "John Otieno", "name": "J"}}`,
			ok:         true,
			apiCode:    str("00"),
			wantStatus: StatusRegistered,
			action:     ActionContinue,
			message:    "You are registered with CIC. Let’s continue.",
			user:       &LookupUser{Phone: str("254712345678"), FullName: str("John Otieno")},
		},
		{
			name:       "not registered code wins over 404",
			status:     404,
			body:       `{"code": "01"}`,
			ok:         true,
			apiCode:    str("01"),
			wantStatus: StatusNotRegistered,
			action:     ActionAskToRegister,
			message:    "You are not registered with CIC. Would you like to register now?",
			user:       &LookupUser{Phone: str("254712345678")},
		},
		{
			name:       "invalid input",
			status:     400,
			body:       `{"code": 99, "message": "bad phone"}`,
			ok:         true,
			apiCode:    str("99"),
			wantStatus: StatusInvalidInput,
			action:     ActionAskRetry,
			message:    "That phone number looks invalid. Please enter it in the format 2547XXXXXXXX.",
			user:       &LookupUser{},
		},
		{
			name:       "not found",
			status:     404,
			body:       `not json`,
			ok:         true,
			wantStatus: StatusNotRegistered,
			action:     ActionAskToRegister,
			message:    "We couldn’t find an account for that number. Would you like to register?",
			user:       &LookupUser{Phone: str("254712345678")},
		},
		{
			name:       "server error wins over code",
			status:     503,
			body:       `{"code": "00"}`,
			ok:         false,
			apiCode:    str("00"),
			wantStatus: StatusUpstreamError,
			action:     ActionAskRetry,
			message:    "CIC services are temporarily unavailable. Please try again.",
		},
		{
			name:       "unexpected response",
			status:     200,
			body:       `{"code": "07"}`,
			ok:         true,
			apiCode:    str("07"),
			wantStatus: StatusUpstreamError,
			action:     ActionEscalate,
			message:    "We couldn’t confirm your status. Please try again or contact support.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := lookupServer(t, tt.status, tt.body)
			lookup := NewPhoneLookup(WithLookupURL(server.URL))

			out, err := lookup.Call(context.Background(), `{"phoneNumber": 254712345678}`)
			require.NoError(t, err)

			var got LookupResult
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.ok, got.OK)
			require.NotNil(t, got.HTTPStatus)
			assert.Equal(t, tt.status, *got.HTTPStatus)
			assert.Equal(t, tt.apiCode, got.APICode)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.action, got.NextAction)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.user, got.User)
			assert.NotNil(t, got.Raw)
		})
	}
}

func TestPhoneLookupNetworkErrors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		result := NewPhoneLookup(WithLookupURL(server.URL), WithLookupTimeout(20*time.Millisecond)).
			Lookup(context.Background(), "254712345678")
		assert.False(t, result.OK)
		assert.Nil(t, result.HTTPStatus)
		assert.Nil(t, result.APICode)
		assert.Nil(t, result.User)
		assert.Equal(t, StatusUpstreamError, result.Status)
		assert.Equal(t, ActionAskRetry, result.NextAction)
		assert.Equal(t, "Request timed out. Please try again.", result.Message)
	})

	t.Run("connection refused", func(t *testing.T) {
		result := NewPhoneLookup(WithLookupURL("http://127.0.0.1:1")).
			Lookup(context.Background(), "254712345678")
		assert.False(t, result.OK)
		assert.Equal(t, "Network error contacting CIC services. Please try again.", result.Message)
		raw := result.Raw.(map[string]any)
		assert.NotEmpty(t, raw["error"])
	})
}

func TestPhoneLookupCache(t *testing.T) {
	server, calls := lookupServer(t, 200, `{"code": "00", "data": {"name": "Jane"}}`)
	cache := memory.NewCache()
	lookup := NewPhoneLookup(WithLookupURL(server.URL), WithLookupCache(cache, time.Minute))

	first := lookup.Lookup(context.Background(), "254712345678")
	second := lookup.Lookup(context.Background(), "254712345678")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.User, second.User)

	_, err := cache.Get(context.Background(), "cic_lookup:254712345678")
	assert.NoError(t, err)
}

func TestPhoneLookupDoesNotCacheFailures(t *testing.T) {
	server, calls := lookupServer(t, 500, `{}`)
	var buf bytes.Buffer
	lookup := NewPhoneLookup(
		WithLookupURL(server.URL),
		WithLookupCache(memory.NewCache(), 0),
		WithLookupLogger(log.NewCustomLogger(&buf, log.LogLevelInfo)),
	)

	lookup.Lookup(context.Background(), "254712345678")
	lookup.Lookup(context.Background(), "254712345678")
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, buf.String(), "UPSTREAM_ERROR")
}

func TestParsePhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{`{"phoneNumber": 254712345678}`, "254712345678", false},
		{`{"phoneNumber": "+254712345678"}`, "254712345678", false},
		{`{"phoneNumber": null}`, "", true},
		{`{}`, "", true},
		{`{"phoneNumber": ""}`, "", true},
		{`0712345678`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parsePhone(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
