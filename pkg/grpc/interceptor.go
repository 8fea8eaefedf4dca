package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingUnaryClientInterceptor 記錄每次 client 呼叫的方法、耗時與狀態碼
func LoggingUnaryClientInterceptor(log *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logCall(ctx, log, "grpc client call", method, cc.Target(), start, err)
		return err
	}
}

// LoggingUnaryServerInterceptor 記錄每次 server 處理的方法、耗時與狀態碼
func LoggingUnaryServerInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, log, "grpc server call", info.FullMethod, "", start, err)
		return resp, err
	}
}

func logCall(ctx context.Context, log *slog.Logger, msg, method, target string, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("code", status.Code(err).String()),
		slog.Duration("elapsed", time.Since(start)),
	}
	if target != "" {
		attrs = append(attrs, slog.String("target", target))
	}
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.Any("error", err))
	}
	log.LogAttrs(ctx, level, msg, attrs...)
}
