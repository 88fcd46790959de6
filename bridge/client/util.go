package client

import (
	"github.com/lni/dragonboat/v4/logger"

	"docbridge/bridge/common"
	"docbridge/bridge/serializer"
)

var Logger = logger.GetLogger("client")

// decodeResponse deserializes a response and verifies it against the
// request. Error responses come back as classified errors, a response
// whose type does not match the request is rejected.
func decodeResponse(reqType common.MessageType, respBytes []byte, serializer serializer.ISerializer) (*common.Message, error) {
	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, common.WrapError(common.KindUnknown, err, "failed to deserialize response")
	}

	// Check if the response is an error response
	if resp.Failed() {
		return nil, resp.AsError()
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != reqType {
		return nil, common.NewError(common.KindUnknown,
			"unexpected message type: %s, expected %s", resp.MsgType, reqType)
	}

	return resp, nil
}
