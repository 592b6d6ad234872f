package restapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/pkg/utils"
	"bridge_engine/internal/registry"
	"bridge_engine/internal/service"
	"bridge_engine/internal/store"
	"bridge_engine/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP endpoint with its dependencies.
type Handlers struct {
	reg       *registry.ChainRegistry
	portfolio service.PortfolioService
	discovery service.DiscoveryService
	session   *wallet.SessionManager
	bridge    service.BridgeService
	prices    service.PriceService
	prefs     *store.PrefsStore
	logger    *zap.Logger

	// Issued quotes are held server-side so Execute can reuse the full quote
	// (amounts, generation stamp) without trusting the client's copy.
	quotes   *cache.Cache
	quoteSeq atomic.Uint64
}

// NewHandlers creates the endpoint set.
func NewHandlers(
	reg *registry.ChainRegistry,
	portfolio service.PortfolioService,
	discovery service.DiscoveryService,
	session *wallet.SessionManager,
	bridge service.BridgeService,
	prices service.PriceService,
	prefs *store.PrefsStore,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		reg:       reg,
		portfolio: portfolio,
		discovery: discovery,
		session:   session,
		bridge:    bridge,
		prices:    prices,
		prefs:     prefs,
		logger:    logger.Named("Handlers"),
		quotes:    cache.New(2*time.Minute, time.Minute),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps engine error codes onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.CodeInvalidRequest:
		status = http.StatusBadRequest
	case apperr.CodeUnsupportedChain, apperr.CodeInsufficientGasBalance:
		status = http.StatusUnprocessableEntity
	case apperr.CodeConnectRejected:
		status = http.StatusForbidden
	case apperr.CodeConnectTimeout:
		status = http.StatusGatewayTimeout
	case apperr.CodeNoRouterConfigured, apperr.CodeQuoteFailed,
		apperr.CodeExecuteFailed, apperr.CodePriceUnavailable,
		apperr.CodeDiscoveryPartial:
		status = http.StatusBadGateway
	}
	msg := err.Error()
	if code == "" {
		code = "internal_error"
	}
	c.JSON(status, errorResponse{Code: string(code), Message: msg})
}

// GetChains lists every supported chain.
func (h *Handlers) GetChains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chains": h.reg.All()})
}

// GetBridgeableTokens lists the assets offered in the bridge picker for one
// chain: wrapped natives, stablecoins and a few blue chips from the chain's
// token list.
func (h *Handlers) GetBridgeableTokens(c *gin.Context) {
	chainID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid chain id", err))
		return
	}
	if _, ok := h.reg.ByID(chainID); !ok {
		writeError(c, apperr.New(apperr.CodeUnsupportedChain, "chain not supported"))
		return
	}

	tokens, err := h.discovery.TokenList(c.Request.Context(), chainID)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.CodeDiscoveryPartial, "token list unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"chainId": chainID, "tokens": registry.BridgeableTokens(tokens)})
}

// GetPortfolio aggregates balances for one owner. An optional chains query
// parameter restricts the sweep: ?chains=1,10,8453.
func (h *Handlers) GetPortfolio(c *gin.Context) {
	owner := c.Param("address")

	var chainIDs []uint64
	if raw := c.Query("chains"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				writeError(c, apperr.New(apperr.CodeInvalidRequest, fmt.Sprintf("invalid chain id %q", part)))
				return
			}
			chainIDs = append(chainIDs, id)
		}
	}

	portfolio, err := h.portfolio.Aggregate(c.Request.Context(), owner, chainIDs)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.CodeInvalidRequest, "portfolio aggregation failed", err))
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// Connect runs the interactive wallet connection flow.
func (h *Handlers) Connect(c *gin.Context) {
	info, err := h.session.Connect(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RestoreSession checks for an already-authorized wallet without prompting.
func (h *Handlers) RestoreSession(c *gin.Context) {
	info, err := h.session.RestoreSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if info == nil {
		c.JSON(http.StatusOK, gin.H{"restored": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": true, "session": info})
}

// GetSession returns the current session snapshot.
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Info())
}

// Disconnect tears the wallet session down.
func (h *Handlers) Disconnect(c *gin.Context) {
	h.session.Disconnect()
	h.bridge.Invalidate()
	c.JSON(http.StatusOK, h.session.Info())
}

type switchChainRequest struct {
	ChainID uint64 `json:"chainId" binding:"required"`
}

// SwitchChain changes the wallet's active chain.
func (h *Handlers) SwitchChain(c *gin.Context) {
	var req switchChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid switch-chain payload", err))
		return
	}
	if err := h.session.SwitchChain(c.Request.Context(), req.ChainID); err != nil {
		writeError(c, err)
		return
	}
	h.bridge.Invalidate()
	c.JSON(http.StatusOK, h.session.Info())
}

type quoteRequest struct {
	FromChainID   uint64 `json:"fromChainId" binding:"required"`
	ToChainID     uint64 `json:"toChainId" binding:"required"`
	Token         string `json:"token" binding:"required"`
	TokenDecimals *uint8 `json:"tokenDecimals"`
	Amount        string `json:"amount" binding:"required"`
	Recipient     string `json:"recipient"`
}

type quoteResponse struct {
	QuoteRef string             `json:"quoteRef"`
	Quote    entity.BridgeQuote `json:"quote"`
}

// Quote prices a transfer and parks the result for a later Execute.
func (h *Handlers) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid quote payload", err))
		return
	}

	decimals := h.resolveDecimals(req.FromChainID, req.Token, req.TokenDecimals)
	amount, err := utils.ParseUnits(req.Amount, decimals)
	if err != nil {
		writeError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid amount", err))
		return
	}

	quote, err := h.bridge.GetQuote(c.Request.Context(), entity.BridgeRequest{
		FromChainID:   req.FromChainID,
		ToChainID:     req.ToChainID,
		Token:         strings.ToLower(req.Token),
		TokenDecimals: decimals,
		Amount:        amount,
		AmountRaw:     req.Amount,
		Recipient:     req.Recipient,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	ref := fmt.Sprintf("q-%d-%d", time.Now().Unix(), h.quoteSeq.Add(1))
	h.quotes.Set(ref, quote, cache.DefaultExpiration)
	c.JSON(http.StatusOK, quoteResponse{QuoteRef: ref, Quote: quote})
}

type executeRequest struct {
	QuoteRef string `json:"quoteRef" binding:"required"`
}

// Execute runs a previously issued quote.
func (h *Handlers) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid execute payload", err))
		return
	}

	cached, found := h.quotes.Get(req.QuoteRef)
	if !found {
		writeError(c, apperr.New(apperr.CodeInvalidRequest, "quote expired or unknown, request a new one"))
		return
	}
	quote := cached.(entity.BridgeQuote)

	result, err := h.bridge.Execute(c.Request.Context(), quote)
	if err != nil {
		writeError(c, err)
		return
	}
	// A quote executes at most once.
	h.quotes.Delete(req.QuoteRef)

	if h.prefs != nil {
		if err := h.prefs.SetLastRoute(quote.Request.FromChainID, quote.Request.ToChainID); err != nil {
			h.logger.Warn("Failed to persist last route", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, result)
}

// GetLastRoute returns the persisted bridge route selection.
func (h *Handlers) GetLastRoute(c *gin.Context) {
	if h.prefs == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	from, to, err := h.prefs.LastRoute()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fromChainId": from, "toChainId": to})
}

// Healthz reports process liveness and upstream price API reachability.
func (h *Handlers) Healthz(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if err := h.prices.Ping(c.Request.Context()); err != nil {
		status["status"] = "degraded"
		status["prices"] = err.Error()
		c.JSON(http.StatusOK, status)
		return
	}
	status["prices"] = "ok"
	c.JSON(http.StatusOK, status)
}

// resolveDecimals picks the decimals for amount parsing: native coin decimals
// for the zero address, an explicit client value when present, 18 otherwise.
func (h *Handlers) resolveDecimals(chainID uint64, token string, explicit *uint8) uint8 {
	if strings.EqualFold(token, entity.ZeroAddress) {
		if def, ok := h.reg.ByID(chainID); ok {
			return def.NativeDecimals
		}
	}
	if explicit != nil {
		return *explicit
	}
	return 18
}
