package client

import (
	"docbridge/bridge/common"
	"docbridge/bridge/dispatch"
)

// Collection is a handle for document operations against one collection
// through one server-side connection. It is cheap to create and safe
// for concurrent use.
type Collection struct {
	client     *Client
	connID     string
	database   string
	collection string
}

// UpdateResult is the outcome of an UpdateOne or UpdateMany call
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// --------------------------------------------------------------------------
// Synchronous Operations
// --------------------------------------------------------------------------

// InsertOne inserts a JSON document and returns the generated id
func (c *Collection) InsertOne(document []byte) (string, error) {
	resp, err := c.client.invokeSync(c.insertReq(document), dispatch.UseConfigRetries)
	if err != nil {
		return "", err
	}
	return resp.InsertedID, nil
}

// FindOne returns the first document matching the JSON filter. The
// boolean reports whether a document matched at all.
func (c *Collection) FindOne(filter []byte) ([]byte, bool, error) {
	resp, err := c.client.invokeSync(c.findReq(filter), dispatch.UseConfigRetries)
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

// UpdateOne applies a JSON update to the first matching document
func (c *Collection) UpdateOne(filter, update []byte) (UpdateResult, error) {
	resp, err := c.client.invokeSync(c.updateReq(filter, update), dispatch.UseConfigRetries)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: resp.Matched, Modified: resp.Modified}, nil
}

// DeleteOne removes the first matching document and returns the delete count
func (c *Collection) DeleteOne(filter []byte) (int64, error) {
	resp, err := c.client.invokeSync(c.deleteReq(filter), dispatch.UseConfigRetries)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// CountDocuments counts the documents matching the JSON filter
func (c *Collection) CountDocuments(filter []byte) (int64, error) {
	resp, err := c.client.invokeSync(c.countReq(filter), dispatch.UseConfigRetries)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Find returns every document matching the JSON filter, up to limit
// documents (0 = no bound)
func (c *Collection) Find(filter []byte, limit int64) ([][]byte, error) {
	resp, err := c.client.invokeSync(c.findManyReq(filter, limit), dispatch.UseConfigRetries)
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// InsertMany inserts a batch of JSON documents and returns the
// generated ids in input order
func (c *Collection) InsertMany(documents [][]byte) ([]string, error) {
	resp, err := c.client.invokeSync(c.insertManyReq(documents), dispatch.UseConfigRetries)
	if err != nil {
		return nil, err
	}
	return resp.InsertedIDs, nil
}

// UpdateMany applies a JSON update to every matching document
func (c *Collection) UpdateMany(filter, update []byte) (UpdateResult, error) {
	resp, err := c.client.invokeSync(c.updateManyReq(filter, update), dispatch.UseConfigRetries)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: resp.Matched, Modified: resp.Modified}, nil
}

// DeleteMany removes every matching document and returns the delete count
func (c *Collection) DeleteMany(filter []byte) (int64, error) {
	resp, err := c.client.invokeSync(c.deleteManyReq(filter), dispatch.UseConfigRetries)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// --------------------------------------------------------------------------
// Asynchronous Operations
// --------------------------------------------------------------------------

// InsertOneAsync submits an insert and returns the task id. The
// callback fires from ProcessCompletions.
func (c *Collection) InsertOneAsync(document []byte, callback func(insertedID string, err error)) (string, error) {
	return c.client.invokeAsync(c.insertReq(document), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback("", err)
				return
			}
			callback(resp.InsertedID, nil)
		})
}

// FindOneAsync submits a find and returns the task id
func (c *Collection) FindOneAsync(filter []byte, callback func(document []byte, found bool, err error)) (string, error) {
	return c.client.invokeAsync(c.findReq(filter), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(nil, false, err)
				return
			}
			callback(resp.Value, resp.Ok, nil)
		})
}

// UpdateOneAsync submits an update and returns the task id
func (c *Collection) UpdateOneAsync(filter, update []byte, callback func(result UpdateResult, err error)) (string, error) {
	return c.client.invokeAsync(c.updateReq(filter, update), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(UpdateResult{}, err)
				return
			}
			callback(UpdateResult{Matched: resp.Matched, Modified: resp.Modified}, nil)
		})
}

// DeleteOneAsync submits a delete and returns the task id
func (c *Collection) DeleteOneAsync(filter []byte, callback func(deleted int64, err error)) (string, error) {
	return c.client.invokeAsync(c.deleteReq(filter), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(0, err)
				return
			}
			callback(resp.Count, nil)
		})
}

// CountDocumentsAsync submits a count and returns the task id
func (c *Collection) CountDocumentsAsync(filter []byte, callback func(count int64, err error)) (string, error) {
	return c.client.invokeAsync(c.countReq(filter), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(0, err)
				return
			}
			callback(resp.Count, nil)
		})
}

// FindAsync submits a multi-document find and returns the task id
func (c *Collection) FindAsync(filter []byte, limit int64, callback func(documents [][]byte, err error)) (string, error) {
	return c.client.invokeAsync(c.findManyReq(filter, limit), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(nil, err)
				return
			}
			callback(resp.Values, nil)
		})
}

// InsertManyAsync submits a batch insert and returns the task id
func (c *Collection) InsertManyAsync(documents [][]byte, callback func(insertedIDs []string, err error)) (string, error) {
	return c.client.invokeAsync(c.insertManyReq(documents), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(nil, err)
				return
			}
			callback(resp.InsertedIDs, nil)
		})
}

// UpdateManyAsync submits a multi-document update and returns the task id
func (c *Collection) UpdateManyAsync(filter, update []byte, callback func(result UpdateResult, err error)) (string, error) {
	return c.client.invokeAsync(c.updateManyReq(filter, update), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(UpdateResult{}, err)
				return
			}
			callback(UpdateResult{Matched: resp.Matched, Modified: resp.Modified}, nil)
		})
}

// DeleteManyAsync submits a multi-document delete and returns the task id
func (c *Collection) DeleteManyAsync(filter []byte, callback func(deleted int64, err error)) (string, error) {
	return c.client.invokeAsync(c.deleteManyReq(filter), dispatch.UseConfigRetries,
		func(resp *common.Message, err error) {
			if err != nil {
				callback(0, err)
				return
			}
			callback(resp.Count, nil)
		})
}

// --------------------------------------------------------------------------
// Request Builders
// --------------------------------------------------------------------------

func (c *Collection) insertReq(document []byte) *common.Message {
	return common.NewDocInsertRequest(c.connID, c.database, c.collection, document)
}

func (c *Collection) findReq(filter []byte) *common.Message {
	return common.NewDocFindRequest(c.connID, c.database, c.collection, filter)
}

func (c *Collection) updateReq(filter, update []byte) *common.Message {
	return common.NewDocUpdateRequest(c.connID, c.database, c.collection, filter, update)
}

func (c *Collection) deleteReq(filter []byte) *common.Message {
	return common.NewDocDeleteRequest(c.connID, c.database, c.collection, filter)
}

func (c *Collection) countReq(filter []byte) *common.Message {
	return common.NewDocCountRequest(c.connID, c.database, c.collection, filter)
}

func (c *Collection) findManyReq(filter []byte, limit int64) *common.Message {
	return common.NewDocFindManyRequest(c.connID, c.database, c.collection, filter, limit)
}

func (c *Collection) insertManyReq(documents [][]byte) *common.Message {
	return common.NewDocInsertManyRequest(c.connID, c.database, c.collection, documents)
}

func (c *Collection) updateManyReq(filter, update []byte) *common.Message {
	return common.NewDocUpdateManyRequest(c.connID, c.database, c.collection, filter, update)
}

func (c *Collection) deleteManyReq(filter []byte) *common.Message {
	return common.NewDocDeleteManyRequest(c.connID, c.database, c.collection, filter)
}
