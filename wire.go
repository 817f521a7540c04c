package snowql

import "encoding/json"

// This file holds the JSON envelope shapes exchanged with the
// Snowflake HTTPS query API. Field tags mirror the wire's actual
// (inconsistently cased) key names; the Go field names follow this
// package's own conventions rather than the wire's.

// loginRequest is the body of POST /session/v1/login-request.
type loginRequest struct {
	Data loginRequestData `json:"data"`
}

type loginRequestData struct {
	AccountName       string         `json:"ACCOUNT_NAME"`
	LoginName         string         `json:"LOGIN_NAME"`
	Password          string         `json:"PASSWORD"`
	ClientAppID       string         `json:"CLIENT_APP_ID"`
	ClientAppVersion  string         `json:"CLIENT_APP_VERSION"`
	SessionParameters map[string]any `json:"SESSION_PARAMETERS,omitempty"`
}

// loginResponse is the body returned by a login request.
type loginResponse struct {
	Data    loginResponseData `json:"data"`
	Message string             `json:"message"`
	Code    string             `json:"code"`
	Success bool               `json:"success"`
}

type loginResponseData struct {
	Token       string `json:"token"`
	MasterToken string `json:"masterToken"`
}

// queryRequest is the body of POST /queries/v1/query-request.
type queryRequest struct {
	Data queryRequestData `json:"data"`
}

type queryRequestData struct {
	AsyncExec           bool           `json:"asyncExec"`
	Parameters          map[string]any `json:"parameters,omitempty"`
	QuerySubmissionTime int64          `json:"querySubmissionTime"`
	SequenceID          uint32         `json:"sequenceId"`
	SQLText             string         `json:"sqlText"`
}

// wireRowType is the per-column schema element as it arrives in the
// response's rowtype array (see rowtype.go for the conversion). The
// columnar decoders use this same schema; Arrow field metadata is not
// read.
type wireRowType struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ExtTypeName string `json:"ext_type_name,omitempty"`
	Nullable    bool   `json:"nullable"`
	Precision   *int64 `json:"precision,omitempty"`
	Scale       *int64 `json:"scale,omitempty"`
	ByteLength  *int64 `json:"byte_length,omitempty"`
}

// wireChunk names one out-of-band result chunk.
type wireChunk struct {
	URL      string `json:"url"`
	RowCount int    `json:"rowCount"`
}

// internalResult is the `data` payload of a successful query-request
// response, or of a successful RESULT_SCAN follow-up after an async
// query completes.
type internalResult struct {
	RowType           []wireRowType     `json:"rowtype"`
	RowSet            [][]any           `json:"rowset,omitempty"`
	RowSetBase64      string            `json:"rowsetbase64,omitempty"`
	QueryID           string            `json:"queryId"`
	QueryResultFormat string            `json:"queryResultFormat"`
	Total             int64             `json:"total"`
	Chunks            []wireChunk       `json:"chunks,omitempty"`
	ChunkHeaders      map[string]string `json:"chunkHeaders,omitempty"`
	Qrmk              string            `json:"qrmk,omitempty"`

	// async init fields
	QueryAbortsAfterSecs int64  `json:"queryAbortsAfterSecs,omitempty"`
	GetResultURL         string `json:"getResultUrl,omitempty"`
	ProgressDesc         string `json:"progressDesc,omitempty"`
}

// queryResponse is the full envelope returned by a query-request.
// Data is left raw because its shape depends on Success: an
// internalResult when true, an ErrorResult when false.
type queryResponse struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
}

// ErrorResult carries the server's detail about an execution failure,
// whether surfaced synchronously (query-request with success=false)
// or via the async monitoring endpoint's terminal failure status.
type ErrorResult struct {
	ErrorType      string `json:"error_type,omitempty"`
	ErrorCode      string `json:"error_code,omitempty"`
	InternalError  bool   `json:"internal_error,omitempty"`
	Line           int    `json:"line,omitempty"`
	Pos            int    `json:"pos,omitempty"`
	QueryID        string `json:"query_id,omitempty"`
	QueryDetailURL string `json:"query_detail_url,omitempty"`
}

// monitoringResponse is the body of GET /monitoring/queries/<id>.
type monitoringResponse struct {
	Data    monitoringResponseData `json:"data"`
	Success bool                   `json:"success"`
}

type monitoringResponseData struct {
	Queries []monitoringQuery `json:"queries"`
}

type monitoringQuery struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	ErrorResult *ErrorResult `json:"error_result,omitempty"`
	Message     string       `json:"message,omitempty"`
}
