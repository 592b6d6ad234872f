package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HostedQuoteRequest is the hosted bridge API quote payload. Chains travel as
// key strings, amounts as human-readable decimal strings.
type HostedQuoteRequest struct {
	FromChain string `json:"fromChain"`
	ToChain   string `json:"toChain"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

// HostedQuote is the hosted API's priced route.
type HostedQuote struct {
	EstimatedOutputAmount string  `json:"estimatedOutputAmount"`
	EstimatedGasUSD       float64 `json:"estimatedGasUsd"`
	QuoteID               string  `json:"quoteId"`
}

// HostedBridgeRequest executes a previously quoted transfer.
type HostedBridgeRequest struct {
	HostedQuoteRequest
	QuoteID string `json:"quoteId"`
}

// HostedBridgeResult is the hosted API's execution acknowledgement.
type HostedBridgeResult struct {
	TrackingID string `json:"trackingId"`
}

// HostedBridgeClient talks to the managed bridge API. It is the primary
// quoting/execution path; callers fall back to the on-chain router when it
// fails.
type HostedBridgeClient interface {
	GetQuote(ctx context.Context, req HostedQuoteRequest) (HostedQuote, error)
	Bridge(ctx context.Context, req HostedBridgeRequest) (HostedBridgeResult, error)
}

type hostedBridgeClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewHostedBridgeClient creates a client for the managed bridge API.
func NewHostedBridgeClient(baseURL string, timeout time.Duration, logger *zap.Logger) HostedBridgeClient {
	return &hostedBridgeClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("HostedBridgeClient"),
	}
}

func (c *hostedBridgeClientImpl) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request for %s: %w", path, err)
	}

	requestURL := c.baseURL + path
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return fmt.Errorf("request to %s failed: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return fmt.Errorf("request to %s failed: %w", requestURL, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("Hosted bridge API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return fmt.Errorf("request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", requestURL, err)
	}
	return nil
}

func (c *hostedBridgeClientImpl) GetQuote(ctx context.Context, req HostedQuoteRequest) (HostedQuote, error) {
	var quote HostedQuote
	if err := c.post(ctx, "/bridge/quote", req, &quote); err != nil {
		return HostedQuote{}, err
	}
	if quote.QuoteID == "" {
		return HostedQuote{}, fmt.Errorf("hosted quote response missing quoteId")
	}
	return quote, nil
}

func (c *hostedBridgeClientImpl) Bridge(ctx context.Context, req HostedBridgeRequest) (HostedBridgeResult, error) {
	var result HostedBridgeResult
	if err := c.post(ctx, "/bridge/execute", req, &result); err != nil {
		return HostedBridgeResult{}, err
	}
	if result.TrackingID == "" {
		return HostedBridgeResult{}, fmt.Errorf("hosted bridge response missing trackingId")
	}
	return result, nil
}
