package puzzle

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ncw/gmp"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ErrMalformed matches every *ParseError.
var ErrMalformed = errors.New("malformed puzzle")

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse puzzle: %s", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

const (
	fieldModulus    = "modulus"
	fieldBase       = "base"
	fieldSteps      = "remaining_steps"
	fieldMaskedKey  = "masked_key"
	fieldCiphertext = "ciphertext"
	fieldKeyBits    = "key_bits"
)

// The persisted form is the text encoding of this proto2 message:
//
//	message Puzzle {
//	  required string modulus = 1;
//	  required string base = 2;
//	  required uint64 remaining_steps = 3;
//	  required string masked_key = 4;
//	  optional bytes ciphertext = 5;
//	  optional uint32 key_bits = 6;
//	}
//
// Integers are decimal strings so the file stays readable.
var puzzleDesc = buildDescriptor()

func field(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, label descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   typ.Enum(),
		Label:  label.Enum(),
	}
}

func buildDescriptor() protoreflect.MessageDescriptor {
	const (
		req = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
		opt = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	)
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("timelock/puzzle.proto"),
		Package: proto.String("timelock"),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Puzzle"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field(fieldModulus, 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, req),
				field(fieldBase, 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, req),
				field(fieldSteps, 3, descriptorpb.FieldDescriptorProto_TYPE_UINT64, req),
				field(fieldMaskedKey, 4, descriptorpb.FieldDescriptorProto_TYPE_STRING, req),
				field(fieldCiphertext, 5, descriptorpb.FieldDescriptorProto_TYPE_BYTES, opt),
				field(fieldKeyBits, 6, descriptorpb.FieldDescriptorProto_TYPE_UINT32, opt),
			},
		}},
	}
	fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		panic(fmt.Errorf("build puzzle descriptor: %w", err))
	}
	return fd.Messages().ByName("Puzzle")
}

func fieldByName(name string) protoreflect.FieldDescriptor {
	return puzzleDesc.Fields().ByName(protoreflect.Name(name))
}

// Marshal encodes p in the persisted text form. Each comment is written as a
// leading "# " line; the parser skips them.
func Marshal(p *Puzzle, comments ...string) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("marshal puzzle: %w", err)
	}
	msg := dynamicpb.NewMessage(puzzleDesc)
	msg.Set(fieldByName(fieldModulus), protoreflect.ValueOfString(p.Modulus.String()))
	msg.Set(fieldByName(fieldBase), protoreflect.ValueOfString(p.Base.String()))
	msg.Set(fieldByName(fieldSteps), protoreflect.ValueOfUint64(p.Steps))
	msg.Set(fieldByName(fieldMaskedKey), protoreflect.ValueOfString(p.MaskedKey.String()))
	if p.HasPayload() {
		msg.Set(fieldByName(fieldCiphertext), protoreflect.ValueOfBytes(p.Ciphertext))
	}
	if p.KeyBits != 0 {
		msg.Set(fieldByName(fieldKeyBits), protoreflect.ValueOfUint32(p.KeyBits))
	}
	body, err := prototext.MarshalOptions{Multiline: true}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal puzzle: %w", err)
	}
	var buf bytes.Buffer
	for _, c := range comments {
		for _, line := range strings.Split(c, "\n") {
			buf.WriteString("# " + line + "\n")
		}
	}
	if len(comments) > 0 {
		buf.WriteByte('\n')
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

func parseInt(msg *dynamicpb.Message, name string) (*gmp.Int, error) {
	s := msg.Get(fieldByName(name)).String()
	v, ok := new(gmp.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid integer %q", name, s)
	}
	return v, nil
}

// Unmarshal decodes the persisted text form. Unknown fields, missing
// required fields and values of the wrong type are all rejected.
func Unmarshal(data []byte) (*Puzzle, error) {
	msg := dynamicpb.NewMessage(puzzleDesc)
	if err := prototext.Unmarshal(data, msg); err != nil {
		return nil, &ParseError{Err: err}
	}
	p := &Puzzle{Steps: msg.Get(fieldByName(fieldSteps)).Uint()}
	var err error
	if p.Modulus, err = parseInt(msg, fieldModulus); err != nil {
		return nil, &ParseError{Err: err}
	}
	if p.Base, err = parseInt(msg, fieldBase); err != nil {
		return nil, &ParseError{Err: err}
	}
	if p.MaskedKey, err = parseInt(msg, fieldMaskedKey); err != nil {
		return nil, &ParseError{Err: err}
	}
	if fd := fieldByName(fieldCiphertext); msg.Has(fd) {
		p.Ciphertext = append([]byte{}, msg.Get(fd).Bytes()...)
	}
	if fd := fieldByName(fieldKeyBits); msg.Has(fd) {
		p.KeyBits = uint32(msg.Get(fd).Uint())
	}
	if err := p.Validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return p, nil
}
