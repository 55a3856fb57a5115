package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// BalanceProjectionHandler 订阅账本事件，刷新受影响账户的余额缓存。
type BalanceProjectionHandler struct {
	queries *application.LedgerQueries
	logger  *slog.Logger
}

func NewBalanceProjectionHandler(queries *application.LedgerQueries, logger *slog.Logger) *BalanceProjectionHandler {
	return &BalanceProjectionHandler{queries: queries, logger: logger}
}

func (h *BalanceProjectionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var payload struct {
		Symbol string `json:"symbol"`
		Issuer string `json:"issuer"`
		From   string `json:"from"`
		To     string `json:"to"`
		Owner  string `json:"owner"`
	}
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal ledger event", "topic", msg.Topic, "error", err)
		return err
	}

	var accounts []string
	switch msg.Topic {
	case domain.TokensIssuedEventType:
		accounts = []string{payload.Issuer, payload.To}
	case domain.TransferredEventType:
		accounts = []string{payload.From, payload.To}
	case domain.VestingGrantedEventType, domain.VestingUnlockedEventType:
		accounts = []string{payload.Owner}
	case domain.TokenCreatedEventType:
		return nil
	default:
		h.logger.WarnContext(ctx, "unknown ledger event topic", "topic", msg.Topic)
		return nil
	}

	for _, account := range accounts {
		if account == "" {
			continue
		}
		if err := h.queries.Refresh(ctx, account, payload.Symbol); err != nil {
			h.logger.ErrorContext(ctx, "failed to refresh balance projection",
				"account", account, "symbol", payload.Symbol, "error", err)
			return err
		}
	}
	return nil
}
