package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
)

// businessErrors 業務邏輯錯誤，回傳 Success=false (Soft Failure)
var businessErrors = []error{
	domain.ErrInsufficientFunds,
	domain.ErrPayInLimitExceeded,
	domain.ErrAmountMustBePositive,
	domain.ErrCannotTransferToSameAccount,
	domain.ErrAccountNotFound,
}

// GrpcServer 實作 MoneyboxServer，把 gRPC 請求轉給 CoreUseCase
type GrpcServer struct {
	core *usecase.CoreUseCase
	log  *slog.Logger
}

// NewGrpcServer 建立 gRPC Driving Adapter
func NewGrpcServer(core *usecase.CoreUseCase, log *slog.Logger) *GrpcServer {
	return &GrpcServer{
		core: core,
		log:  log,
	}
}

// Transfer 轉帳，業務錯誤以 success=false 回傳
func (s *GrpcServer) Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// 1. 解析參數
	fromID, err := uuidField(req, "from_account_id")
	if err != nil {
		return softFailure(err)
	}
	toID, err := uuidField(req, "to_account_id")
	if err != nil {
		return softFailure(err)
	}
	amount, err := decimalField(req, "amount")
	if err != nil {
		return softFailure(err)
	}

	// 2. 執行轉帳
	if err := s.core.Transfer(ctx, fromID, toID, amount); err != nil {
		return s.failure(ctx, MethodTransfer, err)
	}

	// 3. [Optional] 取得 from 最新餘額 (Best Effort)
	return s.success(ctx, fromID)
}

// Withdraw 提款，業務錯誤以 success=false 回傳
func (s *GrpcServer) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := uuidField(req, "account_id")
	if err != nil {
		return softFailure(err)
	}
	amount, err := decimalField(req, "amount")
	if err != nil {
		return softFailure(err)
	}

	if err := s.core.Withdraw(ctx, accountID, amount); err != nil {
		return s.failure(ctx, MethodWithdraw, err)
	}
	return s.success(ctx, accountID)
}

// GetAccount 查詢帳戶，錯誤以 gRPC status code 回傳
func (s *GrpcServer) GetAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := uuidField(req, "account_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	account, err := s.core.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		s.log.ErrorContext(ctx, "get account failed", slog.String("account_id", accountID.String()), slog.Any("error", err))
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(map[string]any{
		"account_id":  account.ID.String(),
		"balance":     account.Balance.String(),
		"withdrawn":   account.Withdrawn.String(),
		"paid_in":     account.PaidIn.String(),
		"owner_email": account.NotificationAddress(),
	})
}

func (s *GrpcServer) success(ctx context.Context, accountID uuid.UUID) (*structpb.Struct, error) {
	resp := map[string]any{
		"success": true,
		"message": "",
	}
	if account, err := s.core.GetAccount(ctx, accountID); err == nil {
		resp["balance"] = account.Balance.String()
	}
	return structpb.NewStruct(resp)
}

// failure 業務錯誤回 Soft Failure，其餘 (Store / Notifier) 記錄後同樣回 Soft Failure
func (s *GrpcServer) failure(ctx context.Context, method string, err error) (*structpb.Struct, error) {
	if !isBusinessError(err) {
		s.log.ErrorContext(ctx, "operation failed", slog.String("method", method), slog.Any("error", err))
	}
	return softFailure(err)
}

func isBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func softFailure(err error) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

func uuidField(req *structpb.Struct, name string) (uuid.UUID, error) {
	raw := req.GetFields()[name].GetStringValue()
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// decimalField 接受字串或數字，建議用字串避免 float 精度問題
func decimalField(req *structpb.Struct, name string) (decimal.Decimal, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing %s", name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		// NaN / Inf 會讓 decimal.NewFromFloat panic
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return decimal.Zero, fmt.Errorf("invalid %s", name)
		}
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, fmt.Errorf("invalid %s", name)
	}
}

var _ MoneyboxServer = (*GrpcServer)(nil)
