package notify

import (
	"context"
	"log/slog"

	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
)

// LogNotifier 只把通知寫進 log，沒有設定通知服務時使用
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier 建立只寫 log 的 Notifier
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyFundsLow(ctx context.Context, address string) error {
	n.log.InfoContext(ctx, "funds low", slog.String("address", address))
	return nil
}

func (n *LogNotifier) NotifyApproachingPayInLimit(ctx context.Context, address string) error {
	n.log.InfoContext(ctx, "approaching pay in limit", slog.String("address", address))
	return nil
}

var (
	_ usecase.Notifier    = (*LogNotifier)(nil)
	_ NotificationHandler = (*LogNotifier)(nil)
)
