// Package notification contains the delivery channels signals fan out to:
// an in-process inbox, a websocket broadcaster and an HTTP chat-bot push.
// Channels are independent; a failure in one never blocks the others.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/signalcraft/engine/types"
)

// Message is one formatted signal notification
type Message struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	StrategyID string       `json:"strategy_id"`
	Signal     types.Signal `json:"signal"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Channel is one notification transport. Send must be safe for concurrent
// use; the dispatcher fans a signal out to all channels at once.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// FormatMessage builds the user-facing notification for a signal. Price
// levels are rounded to a displayable precision.
func FormatMessage(userID, strategyID string, sig types.Signal) Message {
	title := fmt.Sprintf("%s signal: %s", strategyID, sig.Type)
	body := sig.Reason
	if sig.StopLoss != nil && sig.TakeProfit != nil {
		body = fmt.Sprintf("%s (SL %s / TP %s)",
			sig.Reason,
			decimal.NewFromFloat(*sig.StopLoss).Round(4),
			decimal.NewFromFloat(*sig.TakeProfit).Round(4))
	}
	return Message{
		ID:         uuid.NewString(),
		UserID:     userID,
		StrategyID: strategyID,
		Signal:     sig,
		Title:      title,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
}
