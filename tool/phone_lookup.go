package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools"

	"github.com/graphflow/graphflow/log"
	"github.com/graphflow/graphflow/store"
)

const (
	// DefaultLookupURL is the CIC customer lookup endpoint.
	DefaultLookupURL     = "https://channels.cic.co.ke:4000/ussd/ms/api/v1/ussd/users/lookup"
	defaultLookupTimeout = 15 * time.Second
	defaultLookupTTL     = 10 * time.Minute
)

// LookupStatus classifies the outcome of a phone lookup.
type LookupStatus string

const (
	StatusRegistered    LookupStatus = "REGISTERED"
	StatusNotRegistered LookupStatus = "NOT_REGISTERED"
	StatusInvalidInput  LookupStatus = "INVALID_INPUT"
	StatusUpstreamError LookupStatus = "UPSTREAM_ERROR"
)

// NextAction tells the conversation what to do after a lookup.
type NextAction string

const (
	ActionContinue      NextAction = "CONTINUE"
	ActionAskToRegister NextAction = "ASK_TO_REGISTER"
	ActionAskRetry      NextAction = "ASK_RETRY"
	ActionEscalate      NextAction = "ESCALATE"
)

// LookupUser is the customer record returned by a lookup.
type LookupUser struct {
	Phone    *string `json:"phone"`
	FullName *string `json:"fullName"`
	IDNumber *string `json:"idNumber"`
	Email    *string `json:"email"`
}

// LookupResult is the structured outcome of a phone lookup. It is returned
// for every upstream response, including failures.
type LookupResult struct {
	OK         bool         `json:"ok"`
	HTTPStatus *int         `json:"httpStatus"`
	APICode    *string      `json:"apiCode"`
	Status     LookupStatus `json:"status"`
	NextAction NextAction   `json:"nextAction"`
	Message    string       `json:"message"`
	User       *LookupUser  `json:"user"`
	Raw        any          `json:"raw,omitempty"`
}

// PhoneLookup looks up a CIC customer by phone number.
type PhoneLookup struct {
	url     string
	client  *http.Client
	timeout time.Duration
	cache   store.Cache
	ttl     time.Duration
	logger  log.Logger
}

var (
	_ tools.Tool = (*PhoneLookup)(nil)
	_ Schema     = (*PhoneLookup)(nil)
)

type LookupOption func(*PhoneLookup)

// WithLookupURL sets the lookup endpoint.
func WithLookupURL(u string) LookupOption {
	return func(p *PhoneLookup) {
		p.url = u
	}
}

// WithLookupTimeout bounds each lookup request.
func WithLookupTimeout(d time.Duration) LookupOption {
	return func(p *PhoneLookup) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLookupHTTPClient sets the client used for requests.
func WithLookupHTTPClient(c *http.Client) LookupOption {
	return func(p *PhoneLookup) {
		p.client = c
	}
}

// WithLookupCache caches conclusive results (registered or not registered)
// for ttl. A zero ttl uses ten minutes.
func WithLookupCache(c store.Cache, ttl time.Duration) LookupOption {
	return func(p *PhoneLookup) {
		p.cache = c
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithLookupLogger sets the logger.
func WithLookupLogger(l log.Logger) LookupOption {
	return func(p *PhoneLookup) {
		p.logger = l
	}
}

// NewPhoneLookup creates the cic_lookup tool.
func NewPhoneLookup(opts ...LookupOption) *PhoneLookup {
	p := &PhoneLookup{
		url:     DefaultLookupURL,
		client:  http.DefaultClient,
		timeout: defaultLookupTimeout,
		ttl:     defaultLookupTTL,
		logger:  &log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the name of the tool.
func (p *PhoneLookup) Name() string {
	return "cic_lookup"
}

// Description returns the description of the tool.
func (p *PhoneLookup) Description() string {
	return "Lookup a CIC user by phone. Always returns a structured JSON object with status + nextAction for routing."
}

// Parameters implements Schema.
func (p *PhoneLookup) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phoneNumber": map[string]any{
				"type":        "number",
				"description": "Kenyan phone number, prefer 2547XXXXXXXX",
			},
		},
		"required": []string{"phoneNumber"},
	}
}

// Call expects {"phoneNumber": 2547XXXXXXXX} and returns a LookupResult as
// JSON. Only malformed arguments produce an error.
func (p *PhoneLookup) Call(ctx context.Context, input string) (string, error) {
	phone, err := parsePhone(input)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(p.Lookup(ctx, phone))
	if err != nil {
		return "", fmt.Errorf("failed to encode lookup result: %w", err)
	}
	return string(out), nil
}

// Lookup queries the service for phone and classifies the response.
func (p *PhoneLookup) Lookup(ctx context.Context, phone string) LookupResult {
	key := "cic_lookup:" + phone
	if cached, ok := p.cached(ctx, key); ok {
		p.logger.Debug("cic lookup cache hit for %s", phone)
		return cached
	}

	result := p.lookup(ctx, phone)
	p.logger.Info("cic lookup %s: %s", phone, result.Status)

	if p.cache != nil && (result.Status == StatusRegistered || result.Status == StatusNotRegistered) {
		data, err := json.Marshal(result)
		if err == nil {
			err = p.cache.Set(ctx, key, data, p.ttl)
		}
		if err != nil {
			p.logger.Warn("failed to cache cic lookup for %s: %v", phone, err)
		}
	}
	return result
}

func (p *PhoneLookup) cached(ctx context.Context, key string) (LookupResult, bool) {
	var result LookupResult
	if p.cache == nil {
		return result, false
	}
	data, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("cic lookup cache unavailable: %v", err)
		}
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.Warn("discarding corrupt cic lookup cache entry %s: %v", key, err)
		return result, false
	}
	return result, true
}

func (p *PhoneLookup) lookup(ctx context.Context, phone string) LookupResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.get(ctx, phone)
	if err != nil {
		return networkFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkFailure(err)
	}

	data := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil || data == nil {
		data = map[string]any{}
	}
	return classify(resp.StatusCode, data, phone)
}

func (p *PhoneLookup) get(ctx context.Context, phone string) (*http.Response, error) {
	u, err := url.Parse(p.url)
	if err != nil {
		return nil, fmt.Errorf("invalid lookup url: %w", err)
	}
	q := u.Query()
	q.Set("phone", phone)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return p.client.Do(req)
}

// classify maps an HTTP response onto a LookupResult. The order of the
// checks matters: server errors win over the API code, and the API code wins
// over 4xx statuses.
func classify(httpStatus int, data map[string]any, phone string) LookupResult {
	apiCode := stringValue(data["code"])
	result := LookupResult{
		HTTPStatus: &httpStatus,
		APICode:    apiCode,
		Raw:        data,
	}

	code := ""
	if apiCode != nil {
		code = *apiCode
	}

	switch {
	case httpStatus >= 500:
		result.Status = StatusUpstreamError
		result.NextAction = ActionAskRetry
		result.Message = "CIC services are temporarily unavailable. Please try again."
	case code == "00":
		result.OK = true
		result.Status = StatusRegistered
		result.NextAction = ActionContinue
		result.Message = "You are registered with CIC. Let’s continue."
		result.User = registeredUser(data, phone)
	case code == "01":
		result.OK = true
		result.Status = StatusNotRegistered
		result.NextAction = ActionAskToRegister
		result.Message = "You are not registered with CIC. Would you like to register now?"
		result.User = &LookupUser{Phone: &phone}
	case httpStatus == http.StatusBadRequest:
		result.OK = true
		result.Status = StatusInvalidInput
		result.NextAction = ActionAskRetry
		result.Message = "That phone number looks invalid. Please enter it in the format 2547XXXXXXXX."
		result.User = &LookupUser{}
	case httpStatus == http.StatusNotFound:
		result.OK = true
		result.Status = StatusNotRegistered
		result.NextAction = ActionAskToRegister
		result.Message = "We couldn’t find an account for that number. Would you like to register?"
		result.User = &LookupUser{Phone: &phone}
	default:
		result.OK = true
		result.Status = StatusUpstreamError
		result.NextAction = ActionEscalate
		result.Message = "We couldn’t confirm your status. Please try again or contact support."
	}
	return result
}

func registeredUser(data map[string]any, phone string) *LookupUser {
	record, _ := data["data"].(map[string]any)
	user := &LookupUser{
		Phone:    stringValue(record["phone"]),
		FullName: stringValue(record["fullName"]),
		IDNumber: stringValue(record["idNumber"]),
		Email:    stringValue(record["email"]),
	}
	if user.Phone == nil {
		user.Phone = &phone
	}
	if user.FullName == nil {
		user.FullName = stringValue(record["name"])
	}
	return user
}

func networkFailure(err error) LookupResult {
	message := "Network error contacting CIC services. Please try again."
	if isTimeout(err) {
		message = "Request timed out. Please try again."
	}
	raw := map[string]any{"error": err.Error()}
	if isTimeout(err) {
		raw["code"] = "ETIMEDOUT"
	}
	return LookupResult{
		Status:     StatusUpstreamError,
		NextAction: ActionAskRetry,
		Message:    message,
		Raw:        raw,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// stringValue renders scalar JSON values as strings; null, objects and
// arrays give nil.
func stringValue(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	return &s
}

// parsePhone reads the phoneNumber argument, given as a JSON number or
// string.
func parsePhone(input string) (string, error) {
	var args struct {
		PhoneNumber json.RawMessage `json:"phoneNumber"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	raw := strings.TrimSpace(string(args.PhoneNumber))
	if raw == "" || raw == "null" {
		return "", fmt.Errorf("phoneNumber is required")
	}

	var phone string
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(args.PhoneNumber, &phone); err != nil {
			return "", fmt.Errorf("invalid phoneNumber: %w", err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(args.PhoneNumber, &n); err != nil {
			return "", fmt.Errorf("invalid phoneNumber: %w", err)
		}
		phone = n.String()
	}
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if phone == "" {
		return "", fmt.Errorf("phoneNumber is required")
	}
	return phone, nil
}
