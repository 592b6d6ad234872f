package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bridge_engine/internal/domain/entity"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// TokenListClient fetches and normalizes curated token lists. The wild
// ecosystem ships (at least) three shapes: the 1inch address-keyed map, the
// standard tokenlist {tokens: [...]} array, and bare arrays.
type TokenListClient interface {
	Load(ctx context.Context, chainID uint64, urls []string) ([]entity.TokenInfo, error)
}

type tokenListClientImpl struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewTokenListClient creates a token list fetcher.
func NewTokenListClient(timeout time.Duration, logger *zap.Logger) TokenListClient {
	return &tokenListClientImpl{
		client:  &fasthttp.Client{},
		timeout: timeout,
		logger:  logger.Named("TokenListClient"),
	}
}

type rawListToken struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals *uint8 `json:"decimals"`
	Tags     []any  `json:"tags"`
}

// Load fetches every source URL, merges and dedupes by lowercase address.
// A failing source is logged and skipped so one dead URL cannot blank a chain.
func (c *tokenListClientImpl) Load(ctx context.Context, chainID uint64, urls []string) ([]entity.TokenInfo, error) {
	var merged []entity.TokenInfo
	seen := make(map[string]struct{})

	for _, u := range urls {
		body, err := c.fetch(ctx, u)
		if err != nil {
			c.logger.Warn("Token list fetch failed",
				zap.Uint64("chainID", chainID), zap.String("url", u), zap.Error(err))
			continue
		}
		for _, t := range normalize(body) {
			key := strings.ToLower(t.Address)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			t.ChainID = chainID
			t.IsStablecoin = isStablecoinSymbol(t.Symbol)
			t.IsNativeWrapped = isWrappedNativeSymbol(t.Symbol)
			merged = append(merged, t)
		}
	}

	c.logger.Debug("Loaded token list", zap.Uint64("chainID", chainID), zap.Int("tokens", len(merged)))
	return merged, nil
}

func (c *tokenListClientImpl) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, err
		}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// normalize flattens any of the three known list shapes.
func normalize(body []byte) []entity.TokenInfo {
	var out []entity.TokenInfo

	appendToken := func(addr string, t rawListToken) {
		decimals := uint8(18)
		if t.Decimals != nil {
			decimals = *t.Decimals
		}
		out = append(out, entity.TokenInfo{
			Address:  addr,
			Name:     t.Name,
			Symbol:   t.Symbol,
			Decimals: decimals,
		})
	}

	// Standard tokenlist: {"tokens": [...]}
	var arrWrapper struct {
		Tokens []rawListToken `json:"tokens"`
	}
	if err := json.Unmarshal(body, &arrWrapper); err == nil && len(arrWrapper.Tokens) > 0 {
		for _, t := range arrWrapper.Tokens {
			if t.Address == "" {
				continue
			}
			appendToken(t.Address, t)
		}
		return out
	}

	// 1inch: {"tokens": {"0x..": {...}}}
	var mapWrapper struct {
		Tokens map[string]rawListToken `json:"tokens"`
	}
	if err := json.Unmarshal(body, &mapWrapper); err == nil && len(mapWrapper.Tokens) > 0 {
		for addr, t := range mapWrapper.Tokens {
			appendToken(addr, t)
		}
		return out
	}

	// Bare array.
	var bare []rawListToken
	if err := json.Unmarshal(body, &bare); err == nil {
		for _, t := range bare {
			if t.Address == "" {
				continue
			}
			appendToken(t.Address, t)
		}
	}
	return out
}

func isStablecoinSymbol(symbol string) bool {
	switch strings.ToUpper(symbol) {
	case "USDC", "USDT", "DAI", "USDC.E", "USDBC", "FRAX", "LUSD":
		return true
	}
	return false
}

// isWrappedNativeSymbol matches the wrapped gas tokens of the supported chains.
func isWrappedNativeSymbol(symbol string) bool {
	switch strings.ToUpper(symbol) {
	case "WETH", "WBNB", "WMATIC", "WPOL", "WAVAX", "WFTM", "WGLMR",
		"WCRO", "WKAVA", "WXDAI", "WCELO", "WMNT", "WKLAY", "WCORE", "WOKB":
		return true
	}
	return false
}
