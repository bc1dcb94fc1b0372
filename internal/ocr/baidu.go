package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	BaiduName    = "baidu"
	BaiduBaseURL = "https://aip.baidubce.com"

	// BaiduMaxSide is the longest edge, in pixels, the Baidu basic
	// recognition endpoints accept.
	BaiduMaxSide = 8192

	// BaiduAPIDelay keeps a free-tier application under its QPS quota.
	BaiduAPIDelay = 1500 * time.Millisecond

	// DefaultSimulatedText is returned by a Baidu client in test mode when no
	// text is configured.
	DefaultSimulatedText = "这是模拟的OCR识别结果文本"

	baiduTokenPath    = "/oauth/2.0/token"
	baiduGeneralPath  = "/rest/2.0/ocr/v1/general_basic"
	baiduAccuratePath = "/rest/2.0/ocr/v1/accurate_basic"
)

// Baidu error codes that are worth another attempt.
const (
	baiduErrQPSLimit      = 18
	baiduErrTokenInvalid  = 110
	baiduErrTokenExpired  = 111
	baiduErrInternalError = 282000
)

// BaiduConfig holds configuration for the Baidu OCR client.
type BaiduConfig struct {
	APIKey     string
	SecretKey  string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// TestMode answers every request with SimulatedText and never touches
	// the network.
	TestMode      bool
	SimulatedText string
}

// BaiduClient implements Backend using the Baidu AI Cloud OCR REST API.
type BaiduClient struct {
	apiKey     string
	secretKey  string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	testMode   bool
	simulated  string
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time

	token       string
	tokenExpiry time.Time
}

// NewBaiduClient creates a new Baidu OCR client. Credentials are required
// unless TestMode is set.
func NewBaiduClient(cfg BaiduConfig, logger *slog.Logger) (*BaiduClient, error) {
	if !cfg.TestMode && (cfg.APIKey == "" || cfg.SecretKey == "") {
		return nil, fmt.Errorf("baidu: api_key and secret_key are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaiduBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.SimulatedText == "" {
		cfg.SimulatedText = DefaultSimulatedText
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BaiduClient{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		testMode:   cfg.TestMode,
		simulated:  cfg.SimulatedText,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Name returns the backend identifier.
func (c *BaiduClient) Name() string { return BaiduName }

// MaxWidth returns the widest accepted image.
func (c *BaiduClient) MaxWidth() int { return BaiduMaxSide }

// MaxHeight returns the tallest accepted image.
func (c *BaiduClient) MaxHeight() int { return BaiduMaxSide }

// APIDelay returns the pause required between calls.
func (c *BaiduClient) APIDelay() time.Duration { return BaiduAPIDelay }

// Recognize sends image to the general or accurate endpoint, depending on
// opts.HighAccuracy.
//
// Transport failures, 5xx responses, QPS-limit errors and expired tokens are
// retried up to MaxRetries times. Any other service error fails immediately.
func (c *BaiduClient) Recognize(ctx context.Context, image []byte, opts Options) (*Recognition, error) {
	start := time.Now()
	trace := Trace{Backend: BaiduName, Options: opts.Params()}

	if c.testMode {
		return c.simulate(trace, start), nil
	}

	var (
		resp *baiduOCRResponse
		raw  []byte
	)
	err := retry.Do(
		func() error {
			r, body, err := c.recognizeOnce(ctx, image, opts)
			raw = body
			if err != nil {
				c.logger.Debug("baidu request failed", "error", err)
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)

	trace.Duration = time.Since(start)
	trace.Raw = prettyJSON(raw)
	if err != nil {
		trace.ErrorMessage = err.Error()
		return &Recognition{Trace: trace}, backendErr(BaiduName, err)
	}

	lines := make([]Line, 0, len(resp.WordsResult))
	for _, w := range resp.WordsResult {
		line := Line{Text: w.Words}
		if w.Probability != nil {
			avg := w.Probability.Average
			line.Confidence = &avg
		}
		lines = append(lines, line)
	}

	trace.Success = true
	return &Recognition{Lines: lines, Trace: trace}, nil
}

func (c *BaiduClient) simulate(trace Trace, start time.Time) *Recognition {
	var lines []Line
	resp := baiduOCRResponse{}
	for _, text := range strings.Split(c.simulated, "\n") {
		lines = append(lines, Line{Text: text})
		resp.WordsResult = append(resp.WordsResult, baiduWord{Words: text})
	}
	resp.WordsResultNum = len(resp.WordsResult)

	raw, _ := json.Marshal(resp)
	trace.Raw = prettyJSON(raw)
	trace.Success = true
	trace.Duration = time.Since(start)
	return &Recognition{Lines: lines, Trace: trace}
}

// recognizeOnce performs a single OCR request, fetching an access token
// first if needed. The raw response body is returned even on error.
func (c *BaiduClient) recognizeOnce(ctx context.Context, image []byte, opts Options) (*baiduOCRResponse, []byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	path := baiduGeneralPath
	if opts.HighAccuracy {
		path = baiduAccuratePath
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	for k, v := range opts.Params() {
		if k == "accuracy" {
			continue
		}
		form.Set(k, v)
	}

	endpoint := c.baseURL + path + "?access_token=" + url.QueryEscape(token)
	body, err := c.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, body, err
	}

	var resp baiduOCRResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, body, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.ErrorCode != 0 {
		if resp.ErrorCode == baiduErrTokenInvalid || resp.ErrorCode == baiduErrTokenExpired {
			c.token = ""
		}
		return nil, body, &BaiduAPIError{Code: resp.ErrorCode, Message: resp.ErrorMsg}
	}

	return &resp, body, nil
}

// accessToken returns a cached OAuth token or fetches a new one with the
// client credentials grant.
func (c *BaiduClient) accessToken(ctx context.Context) (string, error) {
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", c.apiKey)
	q.Set("client_secret", c.secretKey)

	body, err := c.post(ctx, c.baseURL+baiduTokenPath+"?"+q.Encode(), "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}

	var tok baiduTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("failed to fetch access token: %s: %s", tok.Error, tok.ErrorDescription)
	}

	// Refresh a minute early so a token never expires mid-request.
	ttl := time.Duration(tok.ExpiresIn)*time.Second - time.Minute
	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	c.logger.Debug("baidu access token refreshed", "expires_in", tok.ExpiresIn)
	return c.token, nil
}

func (c *BaiduClient) post(ctx context.Context, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return respBody, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// BaiduAPIError is an error_code/error_msg pair returned by the service.
type BaiduAPIError struct {
	Code    int
	Message string
}

func (e *BaiduAPIError) Error() string {
	return fmt.Sprintf("baidu error %d: %s", e.Code, e.Message)
}

// HTTPStatusError reports a non-200 HTTP response.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// isTransient reports whether a failed request may succeed when repeated.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *BaiduAPIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case baiduErrQPSLimit, baiduErrTokenInvalid, baiduErrTokenExpired, baiduErrInternalError:
			return true
		}
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func prettyJSON(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Baidu OCR API types

type baiduTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type baiduOCRResponse struct {
	LogID          uint64      `json:"log_id,omitempty"`
	Direction      *int        `json:"direction,omitempty"`
	WordsResultNum int         `json:"words_result_num"`
	WordsResult    []baiduWord `json:"words_result"`
	ErrorCode      int         `json:"error_code,omitempty"`
	ErrorMsg       string      `json:"error_msg,omitempty"`
}

type baiduWord struct {
	Words       string            `json:"words"`
	Probability *baiduProbability `json:"probability,omitempty"`
}

type baiduProbability struct {
	Average  float64 `json:"average"`
	Min      float64 `json:"min"`
	Variance float64 `json:"variance"`
}

// Verify interface
var _ Backend = (*BaiduClient)(nil)
