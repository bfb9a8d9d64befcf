package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/signalcraft/engine/types"
)

func TestInbox_NewestFirstAndCap(t *testing.T) {
	inbox := NewInbox(3)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := inbox.Send(ctx, Message{ID: id}); err != nil {
			t.Fatalf("Send returned error: %v", err)
		}
	}

	got := inbox.Recent()
	if len(got) != 3 {
		t.Fatalf("Expected 3 messages after cap, got %d", len(got))
	}
	if got[0].ID != "d" || got[2].ID != "b" {
		t.Errorf("Expected newest-first order d,c,b, got %s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}
	if inbox.Len() != 3 {
		t.Errorf("Expected Len 3, got %d", inbox.Len())
	}
}

func TestInbox_ForUser(t *testing.T) {
	inbox := NewInbox(10)
	ctx := context.Background()

	inbox.Send(ctx, Message{ID: "1", UserID: "alice"})
	inbox.Send(ctx, Message{ID: "2", UserID: "bob"})
	inbox.Send(ctx, Message{ID: "3", UserID: "alice"})

	alice := inbox.ForUser("alice")
	if len(alice) != 2 {
		t.Fatalf("Expected 2 messages for alice, got %d", len(alice))
	}
	if alice[0].ID != "3" {
		t.Errorf("Expected newest alice message first, got %s", alice[0].ID)
	}
}

func TestFormatMessage(t *testing.T) {
	sl := 99.12345
	tp := 107.5
	sig := types.Signal{
		Type:       types.SignalBuy,
		Reason:     "fast EMA crossed above slow EMA",
		StopLoss:   &sl,
		TakeProfit: &tp,
		Timestamp:  time.Now().UTC(),
	}

	msg := FormatMessage("alice", "ema-scalp-btc", sig)
	if msg.ID == "" {
		t.Error("Expected a generated message ID")
	}
	if msg.UserID != "alice" || msg.StrategyID != "ema-scalp-btc" {
		t.Errorf("Unexpected addressing: user=%s strategy=%s", msg.UserID, msg.StrategyID)
	}
	if !strings.Contains(msg.Title, "buy") {
		t.Errorf("Expected signal type in title, got %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "99.1235") || !strings.Contains(msg.Body, "107.5") {
		t.Errorf("Expected rounded price levels in body, got %q", msg.Body)
	}
}

func TestFormatMessage_NoLevels(t *testing.T) {
	sig := types.Signal{Type: types.SignalSell, Reason: "score crossed below exit threshold"}
	msg := FormatMessage("bob", "sentiment-eth", sig)
	if msg.Body != sig.Reason {
		t.Errorf("Expected plain reason body without levels, got %q", msg.Body)
	}
}
