package common

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Connection lifecycle fields
	Target  string           `json:"target,omitempty"`  // Used for: ConnCreate requests (connection string)
	Options map[string]int64 `json:"options,omitempty"` // Used for: ConnCreate requests (pool options)
	ConnID  string           `json:"conn_id,omitempty"` // Used for: all per-connection operations

	// Document operation fields (request)
	Database   string   `json:"database,omitempty"`
	Collection string   `json:"collection,omitempty"`
	Filter     []byte   `json:"filter,omitempty"`    // JSON document
	Document   []byte   `json:"document,omitempty"`  // Used for: DocInsert
	Documents  [][]byte `json:"documents,omitempty"` // Used for: DocInsertMany
	Update     []byte   `json:"update,omitempty"`    // Used for: DocUpdate, DocUpdateMany
	Limit      int64    `json:"limit,omitempty"`     // Used for: DocFindMany (0 = no limit)

	// Response only fields
	Ok          bool     `json:"ok,omitempty"`           // Used for: ConnClose, DocFind (found), ConnPing (healthy)
	Value       []byte   `json:"value,omitempty"`        // Used for: DocFind result, ConnStats snapshot
	Values      [][]byte `json:"values,omitempty"`       // Used for: DocFindMany results
	InsertedID  string   `json:"inserted_id,omitempty"`  // Used for: DocInsert responses
	InsertedIDs []string `json:"inserted_ids,omitempty"` // Used for: DocInsertMany responses
	Matched     int64    `json:"matched,omitempty"`      // Used for: DocUpdate, DocUpdateMany responses
	Modified    int64    `json:"modified,omitempty"`     // Used for: DocUpdate, DocUpdateMany responses
	Count       int64    `json:"count,omitempty"`        // Used for: DocCount, DocDelete, DocDeleteMany responses
	Err         string   `json:"err,omitempty"`          // Empty if no error, otherwise the error message
	ErrKind     string   `json:"err_kind,omitempty"`     // Classification of Err, see Kind
}

// Failed reports whether the message is an error response
func (m *Message) Failed() bool {
	return m.MsgType == MsgTError || m.Err != ""
}

// AsError converts an error response into a classified error.
// Returns nil for non-error messages.
func (m *Message) AsError() error {
	if !m.Failed() {
		return nil
	}
	kind := Kind(m.ErrKind)
	if kind == "" {
		kind = KindUnknown
	}
	return NewError(kind, "%s", m.Err)
}

// setErr fills the error fields of a response from an error value
func (m *Message) setErr(err error) *Message {
	if err != nil {
		m.Err = err.Error()
		m.ErrKind = string(KindOf(err))
	}
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewConnCreateRequest creates a new connection create request
func NewConnCreateRequest(target string, options map[string]int64) *Message {
	return &Message{
		MsgType: MsgTConnCreate,
		Target:  target,
		Options: options,
	}
}

// NewConnCreateResponse creates a new connection create response
func NewConnCreateResponse(connID string, err error) *Message {
	msg := &Message{
		MsgType: MsgTConnCreate,
		ConnID:  connID,
	}
	return msg.setErr(err)
}

// NewConnCloseRequest creates a new connection close request
func NewConnCloseRequest(connID string) *Message {
	return &Message{
		MsgType: MsgTConnClose,
		ConnID:  connID,
	}
}

// NewConnCloseResponse creates a new connection close response.
// Ok reports whether a live connection was actually closed.
func NewConnCloseResponse(closed bool) *Message {
	return &Message{
		MsgType: MsgTConnClose,
		Ok:      closed,
	}
}

// NewConnPingRequest creates a new connection ping request
func NewConnPingRequest(connID string) *Message {
	return &Message{
		MsgType: MsgTConnPing,
		ConnID:  connID,
	}
}

// NewConnPingResponse creates a new connection ping response
func NewConnPingResponse(healthy bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTConnPing,
		Ok:      healthy,
	}
	return msg.setErr(err)
}

// NewConnStatsRequest creates a new registry stats request
func NewConnStatsRequest() *Message {
	return &Message{MsgType: MsgTConnStats}
}

// NewConnStatsResponse creates a new registry stats response.
// The snapshot is a JSON encoded registry.Stats value.
func NewConnStatsResponse(snapshot []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTConnStats,
		Value:   snapshot,
	}
	return msg.setErr(err)
}

// NewDocInsertRequest creates a new insert-one request
func NewDocInsertRequest(connID, database, collection string, document []byte) *Message {
	return &Message{
		MsgType:    MsgTDocInsert,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Document:   document,
	}
}

// NewDocInsertResponse creates a new insert-one response
func NewDocInsertResponse(insertedID string, err error) *Message {
	msg := &Message{
		MsgType:    MsgTDocInsert,
		InsertedID: insertedID,
	}
	return msg.setErr(err)
}

// NewDocFindRequest creates a new find-one request
func NewDocFindRequest(connID, database, collection string, filter []byte) *Message {
	return &Message{
		MsgType:    MsgTDocFind,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
	}
}

// NewDocFindResponse creates a new find-one response.
// Ok reports whether a document matched the filter.
func NewDocFindResponse(document []byte, found bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocFind,
		Value:   document,
		Ok:      found,
	}
	return msg.setErr(err)
}

// NewDocUpdateRequest creates a new update-one request
func NewDocUpdateRequest(connID, database, collection string, filter, update []byte) *Message {
	return &Message{
		MsgType:    MsgTDocUpdate,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
		Update:     update,
	}
}

// NewDocUpdateResponse creates a new update-one response
func NewDocUpdateResponse(matched, modified int64, err error) *Message {
	msg := &Message{
		MsgType:  MsgTDocUpdate,
		Matched:  matched,
		Modified: modified,
	}
	return msg.setErr(err)
}

// NewDocDeleteRequest creates a new delete-one request
func NewDocDeleteRequest(connID, database, collection string, filter []byte) *Message {
	return &Message{
		MsgType:    MsgTDocDelete,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
	}
}

// NewDocDeleteResponse creates a new delete-one response
func NewDocDeleteResponse(deleted int64, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocDelete,
		Count:   deleted,
	}
	return msg.setErr(err)
}

// NewDocFindManyRequest creates a new multi-document find request.
// limit bounds the result size, 0 means no bound.
func NewDocFindManyRequest(connID, database, collection string, filter []byte, limit int64) *Message {
	return &Message{
		MsgType:    MsgTDocFindMany,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
		Limit:      limit,
	}
}

// NewDocFindManyResponse creates a new multi-document find response
func NewDocFindManyResponse(documents [][]byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocFindMany,
		Values:  documents,
	}
	return msg.setErr(err)
}

// NewDocInsertManyRequest creates a new multi-document insert request
func NewDocInsertManyRequest(connID, database, collection string, documents [][]byte) *Message {
	return &Message{
		MsgType:    MsgTDocInsertMany,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Documents:  documents,
	}
}

// NewDocInsertManyResponse creates a new multi-document insert response
func NewDocInsertManyResponse(insertedIDs []string, err error) *Message {
	msg := &Message{
		MsgType:     MsgTDocInsertMany,
		InsertedIDs: insertedIDs,
	}
	return msg.setErr(err)
}

// NewDocUpdateManyRequest creates a new multi-document update request
func NewDocUpdateManyRequest(connID, database, collection string, filter, update []byte) *Message {
	return &Message{
		MsgType:    MsgTDocUpdateMany,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
		Update:     update,
	}
}

// NewDocUpdateManyResponse creates a new multi-document update response
func NewDocUpdateManyResponse(matched, modified int64, err error) *Message {
	msg := &Message{
		MsgType:  MsgTDocUpdateMany,
		Matched:  matched,
		Modified: modified,
	}
	return msg.setErr(err)
}

// NewDocDeleteManyRequest creates a new multi-document delete request
func NewDocDeleteManyRequest(connID, database, collection string, filter []byte) *Message {
	return &Message{
		MsgType:    MsgTDocDeleteMany,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
	}
}

// NewDocDeleteManyResponse creates a new multi-document delete response
func NewDocDeleteManyResponse(deleted int64, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocDeleteMany,
		Count:   deleted,
	}
	return msg.setErr(err)
}

// NewDocCountRequest creates a new count request
func NewDocCountRequest(connID, database, collection string, filter []byte) *Message {
	return &Message{
		MsgType:    MsgTDocCount,
		ConnID:     connID,
		Database:   database,
		Collection: collection,
		Filter:     filter,
	}
}

// NewDocCountResponse creates a new count response
func NewDocCountResponse(count int64, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocCount,
		Count:   count,
	}
	return msg.setErr(err)
}

// NewErrorResponse creates a generic error response
func NewErrorResponse(kind Kind, msg string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     msg,
		ErrKind: string(kind),
	}
}

// --------------------------------------------------------------------------
// Message Types
// --------------------------------------------------------------------------

// MessageType defines the type of message
type MessageType string

const (
	// Connection lifecycle operations

	MsgTConnCreate MessageType = "conn.create"
	MsgTConnClose  MessageType = "conn.close"
	MsgTConnPing   MessageType = "conn.ping"
	MsgTConnStats  MessageType = "conn.stats"

	// Document operations

	MsgTDocInsert     MessageType = "doc.insertOne"
	MsgTDocFind       MessageType = "doc.findOne"
	MsgTDocUpdate     MessageType = "doc.updateOne"
	MsgTDocDelete     MessageType = "doc.deleteOne"
	MsgTDocCount      MessageType = "doc.count"
	MsgTDocFindMany   MessageType = "doc.find"
	MsgTDocInsertMany MessageType = "doc.insertMany"
	MsgTDocUpdateMany MessageType = "doc.updateMany"
	MsgTDocDeleteMany MessageType = "doc.deleteMany"

	// Control messages

	MsgTError MessageType = "error"
)
