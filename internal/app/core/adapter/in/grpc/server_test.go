package grpc_test

import (
	"context"
	"log/slog"
	"math"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/JoeShih716/go-moneybox/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-moneybox/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	pkggrpc "github.com/JoeShih716/go-moneybox/pkg/grpc"
)

type countingNotifier struct {
	fundsLow int
	payIn    int
}

func (n *countingNotifier) NotifyFundsLow(context.Context, string) error {
	n.fundsLow++
	return nil
}

func (n *countingNotifier) NotifyApproachingPayInLimit(context.Context, string) error {
	n.payIn++
	return nil
}

type testEnv struct {
	conn     *grpc.ClientConn
	from     *domain.Account
	to       *domain.Account
	notifier *countingNotifier
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	from := domain.NewAccount(uuid.New(), &domain.User{ID: uuid.New(), Email: "john.doe@gmail.com"}, decimal.NewFromInt(1000))
	to := domain.NewAccount(uuid.New(), &domain.User{ID: uuid.New(), Email: "peter.fiddle@gmail.com"}, decimal.NewFromInt(200))
	store, err := memory.NewMutexStore(map[uuid.UUID]*domain.Account{from.ID: from, to.ID: to}, nil)
	require.NoError(t, err)

	notifier := &countingNotifier{}
	core := usecase.NewCoreUseCase(store, notifier)

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer(grpc.UnaryInterceptor(pkggrpc.LoggingUnaryServerInterceptor(slog.Default())))
	grpcadapter.RegisterMoneyboxServer(s, grpcadapter.NewGrpcServer(core, slog.Default()))
	reflection.Register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{conn: conn, from: from, to: to, notifier: notifier}
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, fields map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	resp := new(structpb.Struct)
	err = conn.Invoke(context.Background(), method, req, resp)
	return resp, err
}

func TestTransfer(t *testing.T) {
	env := setup(t)

	resp, err := invoke(t, env.conn, grpcadapter.MethodTransfer, map[string]any{
		"from_account_id": env.from.ID.String(),
		"to_account_id":   env.to.ID.String(),
		"amount":          "600",
	})
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["success"].GetBoolValue())
	assert.Equal(t, "400", resp.GetFields()["balance"].GetStringValue())
	assert.Equal(t, 1, env.notifier.fundsLow)

	acc, err := invoke(t, env.conn, grpcadapter.MethodGetAccount, map[string]any{"account_id": env.to.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "800", acc.GetFields()["balance"].GetStringValue())
	assert.Equal(t, "600", acc.GetFields()["paid_in"].GetStringValue())
	assert.Equal(t, "peter.fiddle@gmail.com", acc.GetFields()["owner_email"].GetStringValue())
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	env := setup(t)

	resp, err := invoke(t, env.conn, grpcadapter.MethodTransfer, map[string]any{
		"from_account_id": env.from.ID.String(),
		"to_account_id":   env.to.ID.String(),
		"amount":          "1000.01",
	})
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["success"].GetBoolValue())
	assert.Equal(t, "insufficient funds to make transfer", resp.GetFields()["message"].GetStringValue())
}

func TestTransfer_PayInLimit(t *testing.T) {
	env := setup(t)

	resp, err := invoke(t, env.conn, grpcadapter.MethodTransfer, map[string]any{
		"from_account_id": env.from.ID.String(),
		"to_account_id":   env.to.ID.String(),
		"amount":          4001,
	})
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["success"].GetBoolValue())
	assert.Equal(t, "account pay in limit reached", resp.GetFields()["message"].GetStringValue())
}

func TestTransfer_InvalidRequest(t *testing.T) {
	env := setup(t)

	resp, err := invoke(t, env.conn, grpcadapter.MethodTransfer, map[string]any{
		"from_account_id": "not-a-uuid",
		"to_account_id":   env.to.ID.String(),
		"amount":          "1",
	})
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["success"].GetBoolValue())
	assert.Contains(t, resp.GetFields()["message"].GetStringValue(), "invalid from_account_id")

	resp, err = invoke(t, env.conn, grpcadapter.MethodTransfer, map[string]any{
		"from_account_id": env.from.ID.String(),
		"to_account_id":   env.to.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "missing amount", resp.GetFields()["message"].GetStringValue())
}

func TestWithdraw(t *testing.T) {
	env := setup(t)

	resp, err := invoke(t, env.conn, grpcadapter.MethodWithdraw, map[string]any{
		"account_id": env.from.ID.String(),
		"amount":     "100.50",
	})
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["success"].GetBoolValue())
	assert.Equal(t, "899.5", resp.GetFields()["balance"].GetStringValue())
	assert.Equal(t, 0, env.notifier.fundsLow)

	resp, err = invoke(t, env.conn, grpcadapter.MethodWithdraw, map[string]any{
		"account_id": env.from.ID.String(),
		"amount":     "5000",
	})
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["success"].GetBoolValue())
	assert.Equal(t, "insufficient funds to withdraw from", resp.GetFields()["message"].GetStringValue())
}

func TestGetAccount_Errors(t *testing.T) {
	env := setup(t)

	_, err := invoke(t, env.conn, grpcadapter.MethodGetAccount, map[string]any{"account_id": uuid.New().String()})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = invoke(t, env.conn, grpcadapter.MethodGetAccount, map[string]any{"account_id": "bad"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestWithdraw_AmountParsing(t *testing.T) {
	tests := []struct {
		name    string
		amount  *structpb.Value
		success bool
		message string
		balance string
	}{
		{name: "NaN", amount: structpb.NewNumberValue(math.NaN()), message: "invalid amount"},
		{name: "positive infinity", amount: structpb.NewNumberValue(math.Inf(1)), message: "invalid amount"},
		{name: "negative infinity", amount: structpb.NewNumberValue(math.Inf(-1)), message: "invalid amount"},
		{name: "negative number", amount: structpb.NewNumberValue(-5), message: "amount must be positive"},
		{name: "negative string", amount: structpb.NewStringValue("-5"), message: "amount must be positive"},
		{name: "zero", amount: structpb.NewNumberValue(0), message: "amount must be positive"},
		{name: "not a number", amount: structpb.NewStringValue("ten"), message: "invalid amount"},
		{name: "bool", amount: structpb.NewBoolValue(true), message: "invalid amount"},
		{name: "float rounding", amount: structpb.NewNumberValue(0.1), success: true, balance: "999.9"},
		{name: "decimal string", amount: structpb.NewStringValue("0.1"), success: true, balance: "999.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)
			req := &structpb.Struct{Fields: map[string]*structpb.Value{
				"account_id": structpb.NewStringValue(env.from.ID.String()),
				"amount":     tt.amount,
			}}

			resp := new(structpb.Struct)
			require.NoError(t, env.conn.Invoke(context.Background(), grpcadapter.MethodWithdraw, req, resp))

			assert.Equal(t, tt.success, resp.GetFields()["success"].GetBoolValue())
			if tt.success {
				assert.Equal(t, tt.balance, resp.GetFields()["balance"].GetStringValue())
				return
			}
			assert.Contains(t, resp.GetFields()["message"].GetStringValue(), tt.message)
		})
	}
}

func TestGrpcServer_NaNAmountDoesNotPanic(t *testing.T) {
	store, err := memory.NewMutexStore(nil, nil)
	require.NoError(t, err)
	srv := grpcadapter.NewGrpcServer(usecase.NewCoreUseCase(store, &countingNotifier{}), slog.Default())
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"from_account_id": structpb.NewStringValue(uuid.NewString()),
		"to_account_id":   structpb.NewStringValue(uuid.NewString()),
		"amount":          structpb.NewNumberValue(math.NaN()),
	}}

	var resp *structpb.Struct
	assert.NotPanics(t, func() {
		resp, err = srv.Transfer(context.Background(), req)
	})
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["success"].GetBoolValue())
	assert.Equal(t, "invalid amount", resp.GetFields()["message"].GetStringValue())
}

func TestReflection_DescribesService(t *testing.T) {
	env := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := grpc_reflection_v1.NewServerReflectionClient(env.conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&grpc_reflection_v1.ServerReflectionRequest{
		MessageRequest: &grpc_reflection_v1.ServerReflectionRequest_FileContainingSymbol{
			FileContainingSymbol: grpcadapter.MoneyboxServiceName,
		},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	require.Nil(t, resp.GetErrorResponse())

	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.NotEmpty(t, files)
	var fdp descriptorpb.FileDescriptorProto
	require.NoError(t, proto.Unmarshal(files[0], &fdp))

	assert.Equal(t, "moneybox/v1/moneybox.proto", fdp.GetName())
	assert.Equal(t, "moneybox.v1", fdp.GetPackage())
	require.Len(t, fdp.GetService(), 1)
	var methods []string
	for _, m := range fdp.GetService()[0].GetMethod() {
		methods = append(methods, m.GetName())
		assert.Equal(t, ".google.protobuf.Struct", m.GetInputType())
	}
	assert.Equal(t, []string{"Transfer", "Withdraw", "GetAccount"}, methods)
}
