package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-moneybox/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/JoeShih716/go-moneybox/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-moneybox/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-moneybox/internal/app/core/adapter/out/notify"
	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	"github.com/JoeShih716/go-moneybox/internal/config"
	pkggrpc "github.com/JoeShih716/go-moneybox/pkg/grpc"
	"github.com/JoeShih716/go-moneybox/pkg/logger"
	"github.com/JoeShih716/go-moneybox/pkg/mysql"
	"github.com/JoeShih716/go-moneybox/pkg/wal"
)

func main() {
	// 1. 載入設定 (.env 先載入，MONEYBOX_CONFIG 也可以寫在裡面)
	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// 2. 初始化 Logger
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server exited")
}

// run 組裝所有元件並阻塞到 ctx 結束
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var cleanups []func()
	defer func() {
		// 反向釋放，跟 defer 順序一致
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	// 3. 初始化 MySQL Client (有設定才連)
	var dbClient *mysql.Client
	if cfg.MySQL.Enabled() {
		client, err := mysql.NewClient(cfg.MySQL, log)
		if err != nil {
			return fmt.Errorf("connect mysql: %w", err)
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		dbClient = client
		log.Info("connected to mysql", slog.String("host", cfg.MySQL.Host))
	}

	// 4. 初始化 Store
	storeCtx, stopStore := context.WithCancel(context.Background())
	defer stopStore()
	store, closeStore, err := buildStore(storeCtx, cfg, dbClient, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func() {
		stopStore()
		closeStore()
	})

	// 5. 初始化 Notifier
	notifier, closeNotifier := buildNotifier(cfg, log)
	cleanups = append(cleanups, closeNotifier)

	// 6. 初始化 UseCase 與 gRPC Adapter (Driving Adapter)
	coreUseCase := usecase.NewCoreUseCase(store, notifier)
	grpcServer := grpc_adapter.NewGrpcServer(coreUseCase, log)

	// 7. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(pkggrpc.LoggingUnaryServerInterceptor(log)))
	grpc_adapter.RegisterMoneyboxServer(s, grpcServer)
	if cfg.Server.Reflection {
		reflection.Register(s) // 描述檔已由 adapter 註冊，grpcurl list / describe 皆可用
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting grpc server", slog.String("addr", cfg.Server.GRPCAddr), slog.String("store", string(cfg.Store.Type)))
		serveErr <- s.Serve(lis)
	}()

	// Graceful Shutdown: 先停 Server，再停 Store 迴圈、關 WAL
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
		s.GracefulStop()
		return nil
	case err := <-serveErr:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// buildStore 依設定建立 AccountStore
//
// 回傳的 close 函式負責等待核心迴圈結束並關閉 WAL，呼叫前需先 cancel ctx。
func buildStore(ctx context.Context, cfg *config.Config, dbClient *mysql.Client, log *slog.Logger) (usecase.AccountStore, func(), error) {
	if cfg.Store.Type == config.StoreTypeMySQL {
		repo := mysql_adapter.NewAccountStore(dbClient)
		if err := repo.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return repo, func() {}, nil
	}

	accounts, err := loadAccounts(ctx, cfg, dbClient)
	if err != nil {
		return nil, nil, err
	}
	log.Info("loaded accounts", slog.Int("count", len(accounts)))

	// 初始化 WAL
	walFile, err := wal.NewWAL(cfg.Store.WALPath, wal.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("init wal: %w", err)
	}
	closeWAL := func() {
		if err := walFile.Close(); err != nil {
			log.Error("failed to close wal", slog.Any("error", err))
		}
	}

	switch cfg.Store.Type {
	case config.StoreTypeLMAX:
		store, err := memory_adapter.NewLMAXStore(accounts, walFile)
		if err != nil {
			closeWAL()
			return nil, nil, fmt.Errorf("init lmax store: %w", err)
		}
		store.Start(ctx)
		return store, func() {
			<-store.Done()
			closeWAL()
		}, nil
	default:
		store, err := memory_adapter.NewMutexStore(accounts, walFile)
		if err != nil {
			closeWAL()
			return nil, nil, fmt.Errorf("init mutex store: %w", err)
		}
		return store, closeWAL, nil
	}
}

// loadAccounts 記憶體 Store 的初始資料：優先 MySQL，其次 seed 檔，都沒有則為空
func loadAccounts(ctx context.Context, cfg *config.Config, dbClient *mysql.Client) (map[uuid.UUID]*domain.Account, error) {
	switch {
	case dbClient != nil:
		accounts, err := mysql_adapter.NewAccountStore(dbClient).LoadAllAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load accounts from mysql: %w", err)
		}
		return accounts, nil
	case cfg.Store.SeedFile != "":
		return config.LoadSeed(cfg.Store.SeedFile)
	default:
		return map[uuid.UUID]*domain.Account{}, nil
	}
}

// buildNotifier 有設定 target 走 gRPC 通知服務，否則只寫 log
func buildNotifier(cfg *config.Config, log *slog.Logger) (usecase.Notifier, func()) {
	if cfg.Notifier.Target == "" {
		log.Warn("notifier target not set, notifications are only logged")
		return notify.NewLogNotifier(log), func() {}
	}

	pool := pkggrpc.NewPool(pkggrpc.WithInterceptor(pkggrpc.LoggingUnaryClientInterceptor(log)))
	n := notify.NewGRPCNotifier(pool, cfg.Notifier.Target, cfg.Notifier.Timeout, log)
	return n, func() { _ = pool.Close() }
}
