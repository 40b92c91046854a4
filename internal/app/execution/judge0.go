package execution

import (
	"bytes"
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// Judge0 status ids.
const (
	judge0Accepted         = 3
	judge0CompilationError = 6
)

type Judge0Config struct {
	BaseURL string
	APIKey  string
	Host    string

	HTTPClient   *http.Client
	MaxAttempts  int
	InitialDelay time.Duration
	Logger       *slog.Logger
}

// Judge0Executor runs code on a Judge0 instance, one synchronous submission
// per test case.
type Judge0Executor struct {
	cfg     Judge0Config
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker[*judge0Result]
	retrier retry.Retry[*judge0Result]
}

type judge0Request struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type judge0Result struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

type judge0StatusError struct {
	code int
	body string
}

func (e *judge0StatusError) Error() string {
	return fmt.Sprintf("judge0 returned status %d: %s", e.code, e.body)
}

func NewJudge0Executor(cfg Judge0Config) *Judge0Executor {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	j := &Judge0Executor{cfg: cfg, client: cfg.HTTPClient}
	j.breaker = circuitbreaker.New[*judge0Result](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			cfg.Logger.Warn("judge0 circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})
	j.retrier = retry.New[*judge0Result](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.InitialDelay * 8,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryableJudge0Error,
	})
	return j
}

func (j *Judge0Executor) Validate(code string, lang model.Language) error {
	return ValidateCode(code, lang)
}

func (j *Judge0Executor) Execute(ctx context.Context, code string, lang model.Language, input string) (string, error) {
	info, ok := lang.Info()
	if !ok {
		return "", fmt.Errorf("language %q: %w", lang, common.ErrValidation)
	}
	req := judge0Request{SourceCode: code, LanguageID: info.Judge0ID, Stdin: input}

	res, err := j.breaker.Execute(ctx, func(ctx context.Context) (*judge0Result, error) {
		return j.retrier.Do(ctx, func(ctx context.Context) (*judge0Result, error) {
			return j.submit(ctx, req)
		})
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("judge0 submission: %w: %w", common.ErrServiceUnavailable, err)
	}

	switch res.Status.ID {
	case judge0Accepted:
		return deref(res.Stdout), nil
	case judge0CompilationError:
		reason := strings.TrimSpace(deref(res.CompileOutput))
		if reason == "" {
			reason = res.Status.Description
		}
		return "", compilationError(reason)
	default:
		detail := strings.TrimSpace(deref(res.Stderr))
		if detail == "" {
			detail = strings.TrimSpace(deref(res.Message))
		}
		if detail == "" {
			return "", errors.New(res.Status.Description)
		}
		return "", fmt.Errorf("%s: %s", res.Status.Description, detail)
	}
}

func (j *Judge0Executor) submit(ctx context.Context, payload judge0Request) (*judge0Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal judge0 request: %w", err)
	}

	url := j.cfg.BaseURL + "/submissions?base64_encoded=false&wait=true"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build judge0 request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if j.cfg.APIKey != "" {
		httpReq.Header.Set("X-RapidAPI-Key", j.cfg.APIKey)
		httpReq.Header.Set("X-RapidAPI-Host", j.cfg.Host)
	}

	resp, err := j.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call judge0: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read judge0 response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &judge0StatusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	var result judge0Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode judge0 response: %w", err)
	}
	return &result, nil
}

func isRetryableJudge0Error(err error) bool {
	var statusErr *judge0StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.code == http.StatusTooManyRequests || statusErr.code >= http.StatusInternalServerError
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
