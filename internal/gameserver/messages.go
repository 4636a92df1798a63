package gameserver

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/delve/internal/game/event"
)

// Message fields.
//
// Client messages carry request_id, profile (first message only), command and the
// command's arguments. Server messages carry kind and, per kind:
//   - joined: request_id, profile
//   - result: request_id, command, ok, and ui for clear_ui_flags
//   - error: request_id, message
//   - event: event, payload
const (
	fieldRequestID = "request_id"
	fieldProfile   = "profile"
	fieldCommand   = "command"
	fieldKind      = "kind"
	fieldOK        = "ok"
	fieldMessage   = "message"
	fieldEvent     = "event"
	fieldPayload   = "payload"
	fieldUI        = "ui"

	fieldHeroID    = "hero_id"
	fieldItemID    = "item_id"
	fieldSlot      = "slot"
	fieldIndex     = "index"
	fieldPosition  = "position"
	fieldKey       = "key"
	fieldValue     = "value"
	fieldUpgradeID = "upgrade_id"
)

// Server message kinds.
const (
	kindJoined = "joined"
	kindResult = "result"
	kindError  = "error"
	kindEvent  = "event"
)

func newMessage(kind, requestID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKind:      structpb.NewStringValue(kind),
		fieldRequestID: structpb.NewStringValue(requestID),
	}}
}

func resultMessage(requestID, command string, ok bool) *structpb.Struct {
	msg := newMessage(kindResult, requestID)
	msg.Fields[fieldCommand] = structpb.NewStringValue(command)
	msg.Fields[fieldOK] = structpb.NewBoolValue(ok)
	return msg
}

func errorMessage(requestID string, err error) *structpb.Struct {
	msg := newMessage(kindError, requestID)
	msg.Fields[fieldMessage] = structpb.NewStringValue(err.Error())
	return msg
}

// eventMessage encodes a bus event. Payloads are converted through their JSON form.
func eventMessage(name event.Name, payload any) (*structpb.Struct, error) {
	pv, err := toValue(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", name, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKind:    structpb.NewStringValue(kindEvent),
		fieldEvent:   structpb.NewStringValue(string(name)),
		fieldPayload: pv,
	}}, nil
}

func toValue(v any) (*structpb.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return structpb.NewValue(decoded)
}

func toStruct(v any) (*structpb.Struct, error) {
	pv, err := toValue(v)
	if err != nil {
		return nil, err
	}
	s := pv.GetStructValue()
	if s == nil {
		return nil, fmt.Errorf("%T does not encode to an object", v)
	}
	return s, nil
}

func stringArg(msg *structpb.Struct, key string) (string, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	return s.StringValue, nil
}

func intArg(msg *structpb.Struct, key string) (int, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("field %q must be an integer", key)
	}
	return int(n.NumberValue), nil
}

func boolArg(msg *structpb.Struct, key string) (bool, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return false, fmt.Errorf("missing field %q", key)
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("field %q must be a bool", key)
	}
	return b.BoolValue, nil
}
