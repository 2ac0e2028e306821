package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bankstmt/internal/models"
	"bankstmt/pkg/config"
	"bankstmt/pkg/metrics"
)

const anthropicVersion = "2023-06-01"

// extractionPrompt is the fixed instruction sent with every statement. The
// delimited line format and the END sentinel are what the response parser
// expects; keep the two in sync.
const extractionPrompt = `You will receive the pages of a bank statement as images. Extract every transaction you can read.

Output format, strictly:
- One transaction per line: date,description,amount,type
- date in YYYY-MM-DD
- description without line breaks; wrap it in double quotes if it contains commas
- amount as a plain decimal, negative for money leaving the account
- type is either credit or debit
- After the last transaction print a line containing only: END
- No commentary, no markdown, no table headers.

Example:
2024-01-05,"Coffee Shop",-4.50,debit
2024-01-06,Payroll,2000.00,credit
END`

const systemPrompt = "You are a PDF bank statement analyzer."

// refusalPhrases mark replies where the model declined instead of answering.
var refusalPhrases = []string{
	"i can't help",
	"i cannot help",
	"i'm unable to",
	"i am unable to",
	"cannot process this",
	"can't assist with",
	"cannot assist with",
}

type ExtractionService struct {
	cfg         *config.AnthropicConfig
	httpClient  *http.Client
	backoffBase time.Duration
	logger      *zap.Logger
}

// NewExtractionService creates a client for the Anthropic Messages API. The
// credential is injected here rather than read from ambient state so tests
// can point the service at a fake endpoint.
func NewExtractionService(cfg *config.AnthropicConfig, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		backoffBase: time.Second,
		logger:      logger,
	}
}

type messageRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extract sends all page images with the fixed extraction instruction and
// returns the raw text reply. One blocking request per document; rate-limit
// and transient failures are retried with exponential backoff up to the
// configured number of attempts.
func (s *ExtractionService) Extract(ctx context.Context, pages [][]byte) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", models.ErrAuthentication)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: no pages to extract from", models.ErrUnreadablePDF)
	}

	body, err := json.Marshal(s.buildRequest(pages))
	if err != nil {
		return "", fmt.Errorf("marshaling model request: %w", err)
	}

	backoff := s.backoffBase
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.ModelRetries.Inc()
			s.logger.Info("Retrying model request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", models.ErrTransientNetwork, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, retryAfter, err := s.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return "", err
		}
		if retryAfter > backoff {
			backoff = retryAfter
		}
	}

	return "", fmt.Errorf("giving up after %d attempts: %w", s.cfg.MaxRetries+1, lastErr)
}

func (s *ExtractionService) buildRequest(pages [][]byte) messageRequest {
	content := make([]contentBlock, 0, len(pages)+1)
	content = append(content, contentBlock{Type: "text", Text: extractionPrompt})
	for _, page := range pages {
		content = append(content, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: "image/png",
				Data:      base64.StdEncoding.EncodeToString(page),
			},
		})
	}

	return messageRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		System:    systemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: content}},
	}
}

// doRequest performs one attempt. The returned duration is a server-supplied
// Retry-After hint, zero if absent.
func (s *ExtractionService) doRequest(ctx context.Context, body []byte) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("creating model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	metrics.ModelRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", models.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", retryAfterHint(resp), s.classifyStatus(resp)
	}

	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", 0, fmt.Errorf("%w: decoding model response: %v", models.ErrUpstreamRefusal, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())

	if text == "" {
		return "", 0, fmt.Errorf("%w: empty reply", models.ErrUpstreamRefusal)
	}
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			s.logger.Warn("Model declined the extraction request", zap.String("reply", text))
			return "", 0, fmt.Errorf("%w: %s", models.ErrUpstreamRefusal, text)
		}
	}

	s.logger.Info("Model reply received",
		zap.String("model", s.cfg.Model),
		zap.String("stop_reason", msg.StopReason),
		zap.Int("text_length", len(text)),
	)

	return text, 0, nil
}

func (s *ExtractionService) classifyStatus(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := string(bodyBytes)
	var apiErr apiError
	if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", models.ErrAuthentication, detail)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", models.ErrRateLimited, detail)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", models.ErrTransientNetwork, resp.StatusCode, detail)
	default:
		return fmt.Errorf("%w: status %d: %s", models.ErrUpstreamRefusal, resp.StatusCode, detail)
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, models.ErrRateLimited) || errors.Is(err, models.ErrTransientNetwork)
}

func retryAfterHint(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
