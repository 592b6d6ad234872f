package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// IndexerBalance is one asset holding as reported by the external indexer.
type IndexerBalance struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint8
	Balance  string // raw base units, decimal string
	QuoteUSD float64
	IsNative bool
}

// IndexerClient reads pre-computed wallet balances from an external indexer.
type IndexerClient interface {
	// Balances returns holdings for an owner on one chain. An empty slice with
	// nil error means the indexer has no data; chains without an indexer slug
	// are reported the same way.
	Balances(ctx context.Context, chainSlug, owner string) ([]IndexerBalance, error)
}

type covalentClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCovalentClient creates a Covalent balances_v2 client. An empty API key
// disables the indexer: every call returns no data.
func NewCovalentClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) IndexerClient {
	return &covalentClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CovalentClient"),
	}
}

type covalentResponse struct {
	Data struct {
		Items []struct {
			Type            string  `json:"type"`
			ContractAddress string  `json:"contract_address"`
			ContractName    string  `json:"contract_name"`
			ContractTicker  string  `json:"contract_ticker_symbol"`
			ContractDecs    *uint8  `json:"contract_decimals"`
			Balance         string  `json:"balance"`
			Quote           float64 `json:"quote"`
			NativeToken     bool    `json:"native_token"`
		} `json:"items"`
	} `json:"data"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
}

func (c *covalentClientImpl) Balances(ctx context.Context, chainSlug, owner string) ([]IndexerBalance, error) {
	if chainSlug == "" || c.apiKey == "" {
		return nil, nil
	}

	requestURL := fmt.Sprintf("%s/%s/address/%s/balances_v2/?nft=false&no-spam=true&key=%s",
		c.baseURL, chainSlug, owner, c.apiKey)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("indexer request for %s failed: %w", chainSlug, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, fmt.Errorf("indexer request for %s failed: %w", chainSlug, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("Indexer request failed",
			zap.String("chainSlug", chainSlug),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("indexer request for %s failed with status %d", chainSlug, resp.StatusCode())
	}

	var parsed covalentResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal indexer response for %s: %w", chainSlug, err)
	}
	if parsed.Error {
		return nil, fmt.Errorf("indexer error for %s: %s", chainSlug, parsed.ErrorMessage)
	}

	out := make([]IndexerBalance, 0, len(parsed.Data.Items))
	for _, item := range parsed.Data.Items {
		if item.Type != "cryptocurrency" || item.ContractDecs == nil || item.ContractAddress == "" {
			continue
		}
		bal := item.Balance
		if bal == "" {
			bal = "0"
		}
		out = append(out, IndexerBalance{
			Address:  item.ContractAddress,
			Name:     item.ContractName,
			Symbol:   item.ContractTicker,
			Decimals: *item.ContractDecs,
			Balance:  bal,
			QuoteUSD: item.Quote,
			IsNative: item.NativeToken,
		})
	}
	c.logger.Debug("Fetched indexer balances", zap.String("chainSlug", chainSlug), zap.Int("count", len(out)))
	return out, nil
}
