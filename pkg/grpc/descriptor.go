package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// MethodSpec 描述一個 unary 方法的輸入與輸出訊息
type MethodSpec struct {
	Name   string
	Input  protoreflect.MessageDescriptor
	Output protoreflect.MessageDescriptor
}

// RegisterServiceFile 為手寫的 ServiceDesc 產生對應的 .proto 描述並註冊到 protoregistry.GlobalFiles，
// 讓 server reflection 可以 describe 服務。同一個 path 重複註冊時直接略過。
//
// 參數:
//
//	path: 檔案路徑，需與 ServiceDesc.Metadata 一致 (例如 "moneybox/v1/moneybox.proto")
//	service: 服務完整名稱 (例如 "moneybox.v1.MoneyboxService")
//	methods: 方法列表
func RegisterServiceFile(path string, service protoreflect.FullName, methods []MethodSpec) error {
	if _, err := protoregistry.GlobalFiles.FindFileByPath(path); err == nil {
		return nil
	}

	sd := &descriptorpb.ServiceDescriptorProto{Name: proto.String(string(service.Name()))}
	var deps []string
	seen := make(map[string]bool)
	for _, m := range methods {
		for _, md := range []protoreflect.MessageDescriptor{m.Input, m.Output} {
			if dep := md.ParentFile().Path(); !seen[dep] {
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
		sd.Method = append(sd.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.Name),
			InputType:  proto.String("." + string(m.Input.FullName())),
			OutputType: proto.String("." + string(m.Output.FullName())),
		})
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(path),
		Package:    proto.String(string(service.Parent())),
		Dependency: deps,
		Service:    []*descriptorpb.ServiceDescriptorProto{sd},
		Syntax:     proto.String("proto3"),
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		return fmt.Errorf("build descriptor %s: %w", path, err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		return fmt.Errorf("register descriptor %s: %w", path, err)
	}
	return nil
}
