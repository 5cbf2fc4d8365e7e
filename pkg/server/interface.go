/*
Package server implements msgpack IPC for the document search session.

The protocol is a request/response stream over stdin/stdout. Each request
carries an ID field, an op, and the fields that op needs; the response
echoes the ID so clients can multiplex.

Completion requests look like:

	{"id": "req_001", "op": "complete", "t": "ame", "l": 15}

and come back ranked the way the vocabulary provider ranks them:

	{"id": "req_001", "s": ["amenity", "america"], "c": 2, "tm": 2}

Search ops drive the session controller: "search" submits a query and
answers with the first result page, "page" navigates inside the current
result set, "state" reports the session without changing it. "types" and
"cloud" proxy the backend's directory endpoints; "click" appends a cloud
word to the query text.

msgpack encoding keeps messages compact and self-delimiting, so no
newline framing is needed on the pipe.
*/
package server

// Request is one incoming IPC message.
type Request struct {
	ID       string   `msgpack:"id"`
	Op       string   `msgpack:"op"`
	Text     string   `msgpack:"t,omitempty"`
	Limit    int      `msgpack:"l,omitempty"`
	Mode     string   `msgpack:"m,omitempty"`
	Types    []string `msgpack:"ty,omitempty"`
	Page     int      `msgpack:"p,omitempty"`
	Filename string   `msgpack:"f,omitempty"`
}

// CompleteResponse answers a "complete" op.
type CompleteResponse struct {
	ID          string   `msgpack:"id"`
	Suggestions []string `msgpack:"s"`
	Count       int      `msgpack:"c"`
	TimeTaken   int64    `msgpack:"tm"`
}

// ResultItem is the wire shape of one matched document.
type ResultItem struct {
	Filename         string `msgpack:"f"`
	Context          string `msgpack:"x,omitempty"`
	Date             string `msgpack:"d,omitempty"`
	Type             string `msgpack:"y,omitempty"`
	TotalOccurrences int    `msgpack:"n"`
}

// SearchResponse answers "search", "page" and "state" ops.
type SearchResponse struct {
	ID          string       `msgpack:"id"`
	Status      string       `msgpack:"st"`
	Query       string       `msgpack:"q"`
	Items       []ResultItem `msgpack:"r"`
	Suggestions []string     `msgpack:"s,omitempty"`
	Page        int          `msgpack:"p"`
	TotalPages  int          `msgpack:"tp"`
	TotalItems  int          `msgpack:"ti"`
	TimeTaken   int64        `msgpack:"tm,omitempty"`
}

// TypesResponse answers a "types" op.
type TypesResponse struct {
	ID    string   `msgpack:"id"`
	Types []string `msgpack:"ty"`
}

// CloudWord is one scaled word-cloud entry.
type CloudWord struct {
	Word   string  `msgpack:"w"`
	Weight float64 `msgpack:"wt"`
}

// CloudResponse answers a "cloud" op.
type CloudResponse struct {
	ID    string      `msgpack:"id"`
	Words []CloudWord `msgpack:"ws"`
}

// ClickResponse answers a "click" op with the updated query text.
type ClickResponse struct {
	ID   string `msgpack:"id"`
	Text string `msgpack:"t"`
}

// StatusResponse answers "health" and signals readiness on startup.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"st"`
}

// ErrorResponse reports a failed op.
type ErrorResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Error  string `msgpack:"e"`
	Status int    `msgpack:"sc"`
}
