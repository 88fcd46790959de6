package server

import (
	"docbridge/bridge/common"
	"docbridge/bridge/registry"
)

// IBridgeAdapter translates protocol messages into registry operations.
// An adapter handles exactly one request and returns the response message,
// it never returns nil.
type IBridgeAdapter interface {
	Handle(req *common.Message, reg *registry.Registry) *common.Message
}
