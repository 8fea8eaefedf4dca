// notify_sink 是本地開發用的通知服務，收到通知只寫 log
package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/JoeShih716/go-moneybox/internal/app/core/adapter/out/notify"
	pkggrpc "github.com/JoeShih716/go-moneybox/pkg/grpc"
	"github.com/JoeShih716/go-moneybox/pkg/logger"
)

func main() {
	addr := os.Getenv("MONEYBOX_NOTIFY_ADDR")
	if addr == "" {
		addr = ":50052"
	}
	log := logger.New(logger.Config{Level: "debug", Prefix: "notify-sink"})

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("failed to listen", slog.Any("error", err))
		os.Exit(1)
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(pkggrpc.LoggingUnaryServerInterceptor(log)))
	notify.RegisterNotificationService(s, notify.NewLogNotifier(log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down notify sink")
		s.GracefulStop()
	}()

	log.Info("starting notify sink", slog.String("addr", addr))
	if err := s.Serve(lis); err != nil {
		log.Error("failed to serve", slog.Any("error", err))
		os.Exit(1)
	}
}
