package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	grpc_adapter "github.com/JoeShih716/go-moneybox/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-moneybox/pkg/logger"
)

const (
	TotalCount  = 100000
	Concurrency = 500
	Target      = "localhost:50051"
)

// 對應 config/seed.yaml 的兩個帳戶
var (
	fromAccountID = uuid.MustParse("3f1c2a9e-6b1d-4c55-9a57-0d6a3c8e2b11")
	toAccountID   = uuid.MustParse("7b9d4f12-2e8a-4b6c-8f3d-5a1e9c7d0e22")
	amount        = decimal.RequireFromString("0.01")
)

func main() {
	log := logger.New(logger.Config{Level: "info", Prefix: "rpc-client"})

	conn, err := grpc.NewClient(Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Error("did not connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		rejected  atomic.Int64
		failed    atomic.Int64
	)
	wg.Add(TotalCount)
	sem := make(chan struct{}, Concurrency)

	startTime := time.Now()

	for i := 0; i < TotalCount; i++ {
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			// 偶數轉帳、奇數提款
			method, req := transferRequest()
			if idx%2 == 1 {
				method, req = withdrawRequest()
			}

			resp := new(structpb.Struct)
			if err := conn.Invoke(ctx, method, req, resp); err != nil {
				failed.Add(1)
				if idx%10000 == 0 {
					log.Warn("request failed", slog.Int("idx", idx), slog.Any("error", err))
				}
				return
			}
			if resp.GetFields()["success"].GetBoolValue() {
				succeeded.Add(1)
				return
			}
			rejected.Add(1)
			if idx%10000 == 0 {
				log.Info("request rejected", slog.Int("idx", idx), slog.String("message", resp.GetFields()["message"].GetStringValue()))
			}
		}(i)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %v\n", TotalCount, elapsed)
	fmt.Printf("Succeeded: %d, Rejected: %d, Failed: %d\n", succeeded.Load(), rejected.Load(), failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(TotalCount)/elapsed.Seconds())
}

func transferRequest() (string, *structpb.Struct) {
	return grpc_adapter.MethodTransfer, &structpb.Struct{Fields: map[string]*structpb.Value{
		"from_account_id": structpb.NewStringValue(fromAccountID.String()),
		"to_account_id":   structpb.NewStringValue(toAccountID.String()),
		"amount":          structpb.NewStringValue(amount.String()),
	}}
}

func withdrawRequest() (string, *structpb.Struct) {
	return grpc_adapter.MethodWithdraw, &structpb.Struct{Fields: map[string]*structpb.Value{
		"account_id": structpb.NewStringValue(toAccountID.String()),
		"amount":     structpb.NewStringValue(amount.String()),
	}}
}
