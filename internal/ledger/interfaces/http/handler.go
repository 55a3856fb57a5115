// Package http 账本服务 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// Handler 账本 HTTP 处理器
type Handler struct {
	cmd   *application.LedgerCommands
	query *application.LedgerQueries
}

// NewHandler 创建处理器
func NewHandler(cmd *application.LedgerCommands, query *application.LedgerQueries) *Handler {
	return &Handler{cmd: cmd, query: query}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/v1/ledger")
	g.POST("/symbols", h.CreateSymbol)
	g.POST("/issue", h.Issue)
	g.POST("/transfer", h.Transfer)
	g.POST("/grants", h.GrantVesting)
	g.POST("/unlock", h.Unlock)

	g.GET("/tokens/:symbol", h.GetToken)
	g.GET("/supply/:symbol", h.SupplyOf)
	g.GET("/balances/:account/:symbol", h.BalanceOf)
	g.GET("/grants/:account/:symbol", h.ListGrants)
	g.GET("/entries/:account/:symbol", h.ListEntries)
}

// actor 已认证的操作发起者（由网关注入）
func actor(c *gin.Context) string {
	return c.GetHeader("X-Account-Id")
}

// parseAmount 十进制字符串 + 符号 → 金额
func parseAmount(value, symbol string, precision uint8) (domain.Amount, error) {
	sym, err := domain.NewSymbol(symbol, precision)
	if err != nil {
		return domain.Amount{}, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return domain.Amount{}, domain.ErrInvalidAmount
	}
	return domain.AmountFromDecimal(d, sym)
}

// statusOf 错误类别 → HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnknownSymbol), errors.Is(err, domain.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSymbolExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidSymbol), errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSymbolMismatch), errors.Is(err, domain.ErrMemoTooLong),
		errors.Is(err, domain.ErrSelfTransfer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSupplyExceeded), errors.Is(err, domain.ErrOverdrawn):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func kindOf(err error) string {
	for _, kind := range []error{
		domain.ErrInvalidSymbol, domain.ErrInvalidAmount, domain.ErrSymbolExists,
		domain.ErrUnknownSymbol, domain.ErrSymbolMismatch, domain.ErrSupplyExceeded,
		domain.ErrMemoTooLong, domain.ErrSelfTransfer, domain.ErrUnknownAccount,
		domain.ErrOverdrawn, domain.ErrUnauthorized,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal error"
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"kind": kindOf(err), "error": err.Error()})
}

// CreateSymbol 创建代币
func (h *Handler) CreateSymbol(c *gin.Context) {
	var req struct {
		Issuer    string `json:"issuer" binding:"required"`
		Symbol    string `json:"symbol" binding:"required"`
		Precision uint8  `json:"precision"`
		MaxSupply string `json:"max_supply" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxSupply, err := parseAmount(req.MaxSupply, req.Symbol, req.Precision)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.cmd.CreateSymbol(c.Request.Context(), application.CreateSymbolCommand{
		Actor:     actor(c),
		Issuer:    req.Issuer,
		MaxSupply: maxSupply,
	}); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"symbol": req.Symbol, "issuer": req.Issuer})
}

// Issue 发行代币
func (h *Handler) Issue(c *gin.Context) {
	var req struct {
		To        string `json:"to" binding:"required"`
		Symbol    string `json:"symbol" binding:"required"`
		Precision uint8  `json:"precision"`
		Quantity  string `json:"quantity" binding:"required"`
		Memo      string `json:"memo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quantity, err := parseAmount(req.Quantity, req.Symbol, req.Precision)
	if err != nil {
		fail(c, err)
		return
	}
	refID, err := h.cmd.Issue(c.Request.Context(), application.IssueCommand{
		Actor:    actor(c),
		To:       req.To,
		Quantity: quantity,
		Memo:     req.Memo,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference_id": refID})
}

// Transfer 转账
func (h *Handler) Transfer(c *gin.Context) {
	var req struct {
		From      string `json:"from" binding:"required"`
		To        string `json:"to" binding:"required"`
		Symbol    string `json:"symbol" binding:"required"`
		Precision uint8  `json:"precision"`
		Quantity  string `json:"quantity" binding:"required"`
		Memo      string `json:"memo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quantity, err := parseAmount(req.Quantity, req.Symbol, req.Precision)
	if err != nil {
		fail(c, err)
		return
	}
	refID, err := h.cmd.Transfer(c.Request.Context(), application.TransferCommand{
		Actor:    actor(c),
		From:     req.From,
		To:       req.To,
		Quantity: quantity,
		Memo:     req.Memo,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference_id": refID})
}

// GrantVesting 锁仓授予
func (h *Handler) GrantVesting(c *gin.Context) {
	var req struct {
		From      string    `json:"from" binding:"required"`
		To        string    `json:"to" binding:"required"`
		Symbol    string    `json:"symbol" binding:"required"`
		Precision uint8     `json:"precision"`
		Quantity  string    `json:"quantity" binding:"required"`
		UnlockAt  time.Time `json:"unlock_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quantity, err := parseAmount(req.Quantity, req.Symbol, req.Precision)
	if err != nil {
		fail(c, err)
		return
	}
	grantID, err := h.cmd.GrantVesting(c.Request.Context(), application.GrantVestingCommand{
		Actor:    actor(c),
		From:     req.From,
		To:       req.To,
		Quantity: quantity,
		UnlockAt: req.UnlockAt,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"grant_id": grantID})
}

// Unlock 批量解锁
func (h *Handler) Unlock(c *gin.Context) {
	var req struct {
		Owner     string `json:"owner" binding:"required"`
		Symbol    string `json:"symbol" binding:"required"`
		Precision uint8  `json:"precision"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sym, err := domain.NewSymbol(req.Symbol, req.Precision)
	if err != nil {
		fail(c, err)
		return
	}
	unlocked, err := h.cmd.Unlock(c.Request.Context(), application.UnlockCommand{
		Actor:  actor(c),
		Owner:  req.Owner,
		Symbol: sym,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": unlocked.String()})
}

// GetToken 代币信息
func (h *Handler) GetToken(c *gin.Context) {
	token, err := h.query.GetToken(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// SupplyOf 当前流通量
func (h *Handler) SupplyOf(c *gin.Context) {
	supply, err := h.query.SupplyOf(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "supply": supply.String()})
}

// BalanceOf 账户余额
func (h *Handler) BalanceOf(c *gin.Context) {
	balance, err := h.query.BalanceOf(c.Request.Context(), c.Param("account"), c.Param("symbol"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// ListGrants 锁仓列表
func (h *Handler) ListGrants(c *gin.Context) {
	grants, err := h.query.ListGrants(c.Request.Context(), c.Param("account"), c.Param("symbol"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

// ListEntries 流水分页
func (h *Handler) ListEntries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	entries, total, err := h.query.ListEntries(c.Request.Context(), c.Param("account"), c.Param("symbol"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": total})
}
