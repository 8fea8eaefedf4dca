package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	pkggrpc "github.com/JoeShih716/go-moneybox/pkg/grpc"
)

// GRPCNotifier 透過 gRPC 呼叫外部通知服務 (Email / SMS)
type GRPCNotifier struct {
	pool    *pkggrpc.Pool
	target  string
	timeout time.Duration
	log     *slog.Logger
}

// NewGRPCNotifier 建立 GRPCNotifier
//
// 參數:
//
//	pool: gRPC 連線池
//	target: 通知服務地址
//	timeout: 單次呼叫逾時，0 表示沿用 ctx
//	log: logger
func NewGRPCNotifier(pool *pkggrpc.Pool, target string, timeout time.Duration, log *slog.Logger) *GRPCNotifier {
	return &GRPCNotifier{
		pool:    pool,
		target:  target,
		timeout: timeout,
		log:     log,
	}
}

// NotifyFundsLow 餘額過低
func (n *GRPCNotifier) NotifyFundsLow(ctx context.Context, address string) error {
	return n.send(ctx, MethodNotifyFundsLow, address)
}

// NotifyApproachingPayInLimit 即將達到入帳上限
func (n *GRPCNotifier) NotifyApproachingPayInLimit(ctx context.Context, address string) error {
	return n.send(ctx, MethodNotifyApproachingPayInLimit, address)
}

func (n *GRPCNotifier) send(ctx context.Context, method, address string) error {
	conn, err := n.pool.GetConnection(n.target)
	if err != nil {
		return err
	}
	req, err := structpb.NewStruct(map[string]any{"address": address})
	if err != nil {
		return err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := conn.Invoke(ctx, method, req, &emptypb.Empty{}); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	n.log.Debug("notification sent", slog.String("method", method), slog.String("address", address))
	return nil
}

var _ usecase.Notifier = (*GRPCNotifier)(nil)
