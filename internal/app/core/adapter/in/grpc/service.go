package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"

	pkggrpc "github.com/JoeShih716/go-moneybox/pkg/grpc"
)

// 對外的 gRPC 服務，訊息統一使用 google.protobuf.Struct，金額以十進位字串傳遞
const (
	MoneyboxServiceName = "moneybox.v1.MoneyboxService"

	MethodTransfer   = "/" + MoneyboxServiceName + "/Transfer"
	MethodWithdraw   = "/" + MoneyboxServiceName + "/Withdraw"
	MethodGetAccount = "/" + MoneyboxServiceName + "/GetAccount"

	moneyboxProtoPath = "moneybox/v1/moneybox.proto"
)

// 註冊描述檔，server reflection 才能 describe 這個服務
func init() {
	structDesc := (&structpb.Struct{}).ProtoReflect().Descriptor()
	err := pkggrpc.RegisterServiceFile(moneyboxProtoPath, protoreflect.FullName(MoneyboxServiceName), []pkggrpc.MethodSpec{
		{Name: "Transfer", Input: structDesc, Output: structDesc},
		{Name: "Withdraw", Input: structDesc, Output: structDesc},
		{Name: "GetAccount", Input: structDesc, Output: structDesc},
	})
	if err != nil {
		panic(err)
	}
}

// MoneyboxServer 服務端介面
type MoneyboxServer interface {
	// Transfer {from_account_id, to_account_id, amount} -> {success, message, balance}
	Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Withdraw {account_id, amount} -> {success, message, balance}
	Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetAccount {account_id} -> {account_id, balance, withdrawn, paid_in, owner_email}
	GetAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterMoneyboxServer 把 MoneyboxServer 註冊到 gRPC server
func RegisterMoneyboxServer(s grpc.ServiceRegistrar, srv MoneyboxServer) {
	s.RegisterService(&moneyboxServiceDesc, srv)
}

var moneyboxServiceDesc = grpc.ServiceDesc{
	ServiceName: MoneyboxServiceName,
	HandlerType: (*MoneyboxServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Transfer", Handler: unaryHandler(MethodTransfer, MoneyboxServer.Transfer)},
		{MethodName: "Withdraw", Handler: unaryHandler(MethodWithdraw, MoneyboxServer.Withdraw)},
		{MethodName: "GetAccount", Handler: unaryHandler(MethodGetAccount, MoneyboxServer.GetAccount)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: moneyboxProtoPath,
}

func unaryHandler(fullMethod string, call func(MoneyboxServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MoneyboxServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MoneyboxServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
