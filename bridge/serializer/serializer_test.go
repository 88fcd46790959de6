package serializer

import (
	"reflect"
	"testing"

	"docbridge/bridge/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() ISerializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTConnStats},

		// Connection create request
		{
			MsgType: common.MsgTConnCreate,
			Target:  "mongodb://localhost:27017/game",
			Options: map[string]int64{"maxPoolSize": 10},
		},

		// Connection create response
		{
			MsgType: common.MsgTConnCreate,
			ConnID:  "7d8e11a2-4c1b-4b8e-9a34-1f2d3c4b5a69",
		},

		// Find request with a filter
		{
			MsgType:    common.MsgTDocFind,
			ConnID:     "7d8e11a2-4c1b-4b8e-9a34-1f2d3c4b5a69",
			Database:   "game",
			Collection: "players",
			Filter:     []byte(`{"steam_id":"STEAM_0:1:1234"}`),
		},

		// Find response
		{
			MsgType: common.MsgTDocFind,
			Value:   []byte(`{"steam_id":"STEAM_0:1:1234","kills":42}`),
			Ok:      true,
		},

		// Update response with counters
		{
			MsgType:  common.MsgTDocUpdate,
			Matched:  1,
			Modified: 1,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "connection not found",
			ErrKind: string(common.KindNotFound),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d mismatch after round trip.\nOriginal: %+v\nResult:   %+v", i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeInvalidData tests that invalid input surfaces an error
func TestDeserializeInvalidData(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			var msg common.Message
			if err := serializer.Deserialize([]byte{0x01, 0xff, 0x02}, &msg); err == nil {
				t.Errorf("Expected error when deserializing garbage data")
			}
		})
	}
}

// TestErrorResponseRoundTrip verifies the error classification survives the wire
func TestErrorResponseRoundTrip(t *testing.T) {
	resp := common.NewErrorResponse(common.KindTimeout, "request timed out")

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(*resp)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !result.Failed() {
				t.Errorf("Expected a failed message")
			}

			if kind := common.KindOf(result.AsError()); kind != common.KindTimeout {
				t.Errorf("Expected kind %v, got %v", common.KindTimeout, kind)
			}
		})
	}
}
