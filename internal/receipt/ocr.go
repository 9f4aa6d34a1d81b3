package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fundexhq/fundex/pkg/httpclient"
	"github.com/fundexhq/fundex/pkg/logger"
	"github.com/fundexhq/fundex/pkg/resilience"
)

// OCRProvider extracts raw text from a receipt image addressed by URL.
type OCRProvider interface {
	ParseImage(ctx context.Context, imageURL string) (string, error)
}

// TextExtractor wraps an OCRProvider and never propagates its failures:
// downstream scoring treats unreadable text as evidence, not as an error.
type TextExtractor struct {
	provider OCRProvider
	enabled  bool
}

func NewTextExtractor(provider OCRProvider, enabled bool) *TextExtractor {
	return &TextExtractor{provider: provider, enabled: enabled}
}

// Extract returns the OCR text for the image and whether extraction
// succeeded. Disabled OCR, provider errors and empty results all yield
// ("", false).
func (t *TextExtractor) Extract(ctx context.Context, imageURL string) (string, bool) {
	if !t.enabled || t.provider == nil {
		return "", false
	}

	start := time.Now()
	text, err := t.provider.ParseImage(ctx, imageURL)
	if err != nil {
		logger.WithContext(ctx).Warn("OCR extraction failed",
			zap.String("image_url", imageURL),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logger.WithContext(ctx).Warn("OCR returned empty text",
			zap.String("image_url", imageURL))
		return "", false
	}

	logger.WithContext(ctx).Debug("OCR extraction complete",
		zap.Int("text_length", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return text, true
}

// HTTPOCRProvider talks to an OCR.space-compatible parse endpoint.
type HTTPOCRProvider struct {
	client *httpclient.Client
	apiKey string
}

// NewHTTPOCRProvider builds an OCR provider with retry and a circuit breaker;
// the OCR vendor is the least reliable dependency in the analysis pipeline.
func NewHTTPOCRProvider(baseURL, apiKey string, timeout time.Duration) *HTTPOCRProvider {
	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "ocr-provider",
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}, nil)

	client := httpclient.NewClient(baseURL, timeout).Apply(
		httpclient.WithDefaultRetry(),
		httpclient.WithBreaker(breaker),
	)

	return &HTTPOCRProvider{client: client, apiKey: apiKey}
}

type ocrParseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// ParseImage submits the image URL for parsing and concatenates the parsed
// pages in order.
func (p *HTTPOCRProvider) ParseImage(ctx context.Context, imageURL string) (string, error) {
	form := map[string]string{
		"url":       imageURL,
		"apikey":    p.apiKey,
		"scale":     "true",
		"OCREngine": "2",
	}

	var parsed ocrParseResponse
	if err := p.client.PostForm(ctx, "", form, &parsed); err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocr provider reported processing error: %s", string(parsed.ErrorMessage))
	}

	var sb strings.Builder
	for _, result := range parsed.ParsedResults {
		sb.WriteString(result.ParsedText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
