package server

import (
	"context"
	"encoding/json"
	"fmt"

	"docbridge/bridge/common"
	"docbridge/bridge/driver"
	"docbridge/bridge/registry"
)

// NewRegistryAdapter returns the adapter handling connection lifecycle
// and document operation messages against a connection registry.
func NewRegistryAdapter() IBridgeAdapter {
	return &registryAdapterImpl{}
}

type registryAdapterImpl struct{}

func (adapter *registryAdapterImpl) Handle(req *common.Message, reg *registry.Registry) *common.Message {
	// Check for nil registry
	if reg == nil {
		return common.NewErrorResponse(common.KindUnknown, "handler: registry is nil")
	}

	// Handle different message types
	switch req.MsgType {

	// Connection lifecycle

	case common.MsgTConnCreate:
		connID, err := reg.Create(req.Target, req.Options)
		return common.NewConnCreateResponse(connID, err)

	case common.MsgTConnClose:
		closed := reg.Close(req.ConnID)
		return common.NewConnCloseResponse(closed)

	case common.MsgTConnPing:
		health := reg.Ping(req.ConnID)
		switch health {
		case registry.Healthy:
			return common.NewConnPingResponse(true, nil)
		case registry.Unhealthy:
			return common.NewConnPingResponse(false, nil)
		default:
			return common.NewConnPingResponse(false,
				common.NewError(common.KindNotFound, "connection %s not found", req.ConnID))
		}

	case common.MsgTConnStats:
		snapshot, err := json.Marshal(reg.Stats())
		return common.NewConnStatsResponse(snapshot, err)

	// Document operations

	case common.MsgTDocInsert:
		var insertedID string
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			insertedID, err = h.InsertOne(ctx, req.Database, req.Collection, req.Document)
			return err
		})
		return common.NewDocInsertResponse(insertedID, err)

	case common.MsgTDocFind:
		var doc []byte
		var found bool
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			doc, found, err = h.FindOne(ctx, req.Database, req.Collection, req.Filter)
			return err
		})
		return common.NewDocFindResponse(doc, found, err)

	case common.MsgTDocUpdate:
		var matched, modified int64
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			matched, modified, err = h.UpdateOne(ctx, req.Database, req.Collection, req.Filter, req.Update)
			return err
		})
		return common.NewDocUpdateResponse(matched, modified, err)

	case common.MsgTDocDelete:
		var deleted int64
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			deleted, err = h.DeleteOne(ctx, req.Database, req.Collection, req.Filter)
			return err
		})
		return common.NewDocDeleteResponse(deleted, err)

	case common.MsgTDocFindMany:
		var docs [][]byte
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			docs, err = h.Find(ctx, req.Database, req.Collection, req.Filter, req.Limit)
			return err
		})
		return common.NewDocFindManyResponse(docs, err)

	case common.MsgTDocInsertMany:
		var insertedIDs []string
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			insertedIDs, err = h.InsertMany(ctx, req.Database, req.Collection, req.Documents)
			return err
		})
		return common.NewDocInsertManyResponse(insertedIDs, err)

	case common.MsgTDocUpdateMany:
		var matched, modified int64
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			matched, modified, err = h.UpdateMany(ctx, req.Database, req.Collection, req.Filter, req.Update)
			return err
		})
		return common.NewDocUpdateManyResponse(matched, modified, err)

	case common.MsgTDocDeleteMany:
		var deleted int64
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			deleted, err = h.DeleteMany(ctx, req.Database, req.Collection, req.Filter)
			return err
		})
		return common.NewDocDeleteManyResponse(deleted, err)

	case common.MsgTDocCount:
		var count int64
		err := reg.Exec(req.ConnID, func(ctx context.Context, h driver.IDriver) error {
			var err error
			count, err = h.CountDocuments(ctx, req.Database, req.Collection, req.Filter)
			return err
		})
		return common.NewDocCountResponse(count, err)

	default:
		return common.NewErrorResponse(common.KindRequestRejected,
			fmt.Sprintf("unsupported message type: %s", req.MsgType),
		)
	}
}
