package notify

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	pkggrpc "github.com/JoeShih716/go-moneybox/pkg/grpc"
)

// 通知服務的 gRPC 名稱，request 為 {"address": string}
const (
	NotificationServiceName = "moneybox.v1.NotificationService"

	MethodNotifyFundsLow              = "/" + NotificationServiceName + "/NotifyFundsLow"
	MethodNotifyApproachingPayInLimit = "/" + NotificationServiceName + "/NotifyApproachingPayInLimit"

	notificationProtoPath = "moneybox/v1/notification.proto"
)

func init() {
	structDesc := (&structpb.Struct{}).ProtoReflect().Descriptor()
	emptyDesc := (&emptypb.Empty{}).ProtoReflect().Descriptor()
	err := pkggrpc.RegisterServiceFile(notificationProtoPath, protoreflect.FullName(NotificationServiceName), []pkggrpc.MethodSpec{
		{Name: "NotifyFundsLow", Input: structDesc, Output: emptyDesc},
		{Name: "NotifyApproachingPayInLimit", Input: structDesc, Output: emptyDesc},
	})
	if err != nil {
		panic(err)
	}
}

// NotificationHandler 通知服務端要實作的介面
type NotificationHandler interface {
	NotifyFundsLow(ctx context.Context, address string) error
	NotifyApproachingPayInLimit(ctx context.Context, address string) error
}

// RegisterNotificationService 把 handler 註冊到 gRPC server
func RegisterNotificationService(s grpc.ServiceRegistrar, h NotificationHandler) {
	s.RegisterService(&notificationServiceDesc, h)
}

var notificationServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationHandler)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NotifyFundsLow",
			Handler: notificationHandler(MethodNotifyFundsLow, func(h NotificationHandler) func(context.Context, string) error {
				return h.NotifyFundsLow
			}),
		},
		{
			MethodName: "NotifyApproachingPayInLimit",
			Handler: notificationHandler(MethodNotifyApproachingPayInLimit, func(h NotificationHandler) func(context.Context, string) error {
				return h.NotifyApproachingPayInLimit
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: notificationProtoPath,
}

func notificationHandler(fullMethod string, pick func(NotificationHandler) func(context.Context, string) error) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := func(ctx context.Context, req any) (any, error) {
			address := req.(*structpb.Struct).GetFields()["address"].GetStringValue()
			if err := pick(srv.(NotificationHandler))(ctx, address); err != nil {
				return nil, err
			}
			return &emptypb.Empty{}, nil
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, call)
	}
}
