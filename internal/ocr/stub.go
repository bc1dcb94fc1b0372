package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"
)

const StubName = "stub"

// DefaultStubLines are returned by a StubClient with no script.
var DefaultStubLines = []string{
	"这是固定的测试文本",
	"用于调试OCR模块",
	"无论输入什么图片都会返回这段文字",
}

// StubConfig configures the deterministic stub backend.
type StubConfig struct {
	// Lines are returned for every call. Nil uses DefaultStubLines.
	Lines []string

	// Script, when set, gives the lines for each call in turn. Calls past
	// the end of the script repeat its last entry.
	Script [][]string

	MaxWidth  int
	MaxHeight int
	Delay     time.Duration

	// Fail makes every call fail. FailCalls fails only the listed call
	// numbers, counting from 1.
	Fail      bool
	FailCalls []int
}

// ErrStubFailure is the error returned by a failing stub call.
var ErrStubFailure = errors.New("simulated backend failure")

// StubClient is a Backend that returns canned lines. It is used for dry runs
// and as the test double for the pipeline.
type StubClient struct {
	cfg   StubConfig
	calls atomic.Int32
}

// NewStubClient creates a stub backend. Zero limits default to BaiduMaxSide
// so dry runs reject the same images a real run would.
func NewStubClient(cfg StubConfig) *StubClient {
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = BaiduMaxSide
	}
	if cfg.MaxHeight == 0 {
		cfg.MaxHeight = BaiduMaxSide
	}
	if cfg.Lines == nil {
		cfg.Lines = DefaultStubLines
	}
	return &StubClient{cfg: cfg}
}

// Name returns the backend identifier.
func (c *StubClient) Name() string { return StubName }

// MaxWidth returns the configured width limit.
func (c *StubClient) MaxWidth() int { return c.cfg.MaxWidth }

// MaxHeight returns the configured height limit.
func (c *StubClient) MaxHeight() int { return c.cfg.MaxHeight }

// APIDelay returns the configured delay.
func (c *StubClient) APIDelay() time.Duration { return c.cfg.Delay }

// Calls returns the number of Recognize calls made so far.
func (c *StubClient) Calls() int { return int(c.calls.Load()) }

// Recognize returns the scripted lines for this call.
func (c *StubClient) Recognize(ctx context.Context, image []byte, opts Options) (*Recognition, error) {
	n := int(c.calls.Add(1))
	trace := Trace{Backend: StubName, Options: opts.Params()}

	if c.shouldFail(n) {
		trace.ErrorMessage = ErrStubFailure.Error()
		return &Recognition{Trace: trace}, backendErr(StubName, ErrStubFailure)
	}

	texts := c.cfg.Lines
	if len(c.cfg.Script) > 0 {
		texts = c.cfg.Script[min(n, len(c.cfg.Script))-1]
	}

	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Line{Text: t}
	}

	raw, _ := json.Marshal(map[string]any{"call": n, "bytes": len(image), "lines": texts})
	trace.Raw = prettyJSON(raw)
	trace.Success = true
	return &Recognition{Lines: lines, Trace: trace}, nil
}

func (c *StubClient) shouldFail(n int) bool {
	if c.cfg.Fail {
		return true
	}
	for _, f := range c.cfg.FailCalls {
		if f == n {
			return true
		}
	}
	return false
}

// Verify interface
var _ Backend = (*StubClient)(nil)
