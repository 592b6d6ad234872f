package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CoinGeckoClient fetches USD prices from the CoinGecko simple-price API.
// The free tier is rate limited, so every request passes through a limiter;
// callers are expected to cache aggressively on top.
type CoinGeckoClient interface {
	SimplePrices(ctx context.Context, coinIDs []string) (map[string]float64, error)
	TokenPrices(ctx context.Context, platform string, addresses []string) (map[string]float64, error)
	Ping(ctx context.Context) error
}

type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a client for the public (demo tier) CoinGecko API.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, perSecond float64, burst int, logger *zap.Logger) CoinGeckoClient {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger.Named("CoinGeckoClient"),
	}
}

func (c *coinGeckoClientImpl) do(ctx context.Context, requestURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		// Demo/free tier key travels in this header, not the pro one.
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

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
		c.logger.Warn("CoinGecko request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return fmt.Errorf("request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", requestURL, err)
	}
	return nil
}

// SimplePrices returns USD prices keyed by coin id.
func (c *coinGeckoClientImpl) SimplePrices(ctx context.Context, coinIDs []string) (map[string]float64, error) {
	if len(coinIDs) == 0 {
		return map[string]float64{}, nil
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(strings.Join(coinIDs, ",")))

	var raw map[string]map[string]float64
	if err := c.do(ctx, requestURL, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(raw))
	for id, vs := range raw {
		out[id] = vs["usd"]
	}
	c.logger.Debug("Fetched simple prices", zap.Int("requested", len(coinIDs)), zap.Int("returned", len(out)))
	return out, nil
}

// TokenPrices returns USD prices keyed by lowercase contract address for one
// CoinGecko platform.
func (c *coinGeckoClientImpl) TokenPrices(ctx context.Context, platform string, addresses []string) (map[string]float64, error) {
	if platform == "" || len(addresses) == 0 {
		return map[string]float64{}, nil
	}

	lowered := make([]string, len(addresses))
	for i, a := range addresses {
		lowered[i] = strings.ToLower(a)
	}
	requestURL := fmt.Sprintf("%s/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd",
		c.baseURL, url.PathEscape(platform), url.QueryEscape(strings.Join(lowered, ",")))

	var raw map[string]map[string]float64
	if err := c.do(ctx, requestURL, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(raw))
	for addr, vs := range raw {
		out[strings.ToLower(addr)] = vs["usd"]
	}
	c.logger.Debug("Fetched token prices",
		zap.String("platform", platform),
		zap.Int("requested", len(addresses)),
		zap.Int("returned", len(out)))
	return out, nil
}

// Ping probes API reachability and key validity.
func (c *coinGeckoClientImpl) Ping(ctx context.Context) error {
	var raw map[string]any
	return c.do(ctx, c.baseURL+"/ping", &raw)
}
