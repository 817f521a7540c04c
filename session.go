package snowql

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is a logical connection to Snowflake: a login token plus the
// monotonic sequence counter attached to every submission. Apart from
// the one-time setup calls SetMetrics and SetResultFormat, it is
// read-only after construction except for the sequence counter, which
// is safe for concurrent use. There is no explicit logout; the caller
// simply drops the value.
type Session struct {
	cfg       *Config
	rest      *restClient
	metrics   *Metrics
	transport http.RoundTripper

	host    string
	account string
	region  string

	sequenceCounter uint32 // atomic; starts at 1

	resultFormat string // "json" or "arrow"
}

// Open performs the login handshake and returns a ready-to-use
// Session. The returned Session's HTTP client is built once here and
// reused for every subsequent request.
func Open(ctx context.Context, cfg *Config) (*Session, error) {
	host := cfg.host()
	transport, err := cfg.transport()
	if err != nil {
		return nil, err
	}
	rc := newRestClient(host, &http.Client{Transport: transport})

	s := &Session{
		cfg:          cfg,
		rest:         rc,
		metrics:      noopMetrics(),
		transport:    transport,
		host:         host,
		account:      cfg.accountName(),
		region:       cfg.region(),
		resultFormat: "arrow",
	}

	reqID := requestIDFromContext(ctx)
	token, err := login(ctx, rc, cfg, reqID)
	if err != nil {
		return nil, err
	}
	rc.setToken(token)
	atomic.StoreUint32(&s.sequenceCounter, 1)
	return s, nil
}

// SetMetrics attaches a Metrics instance to be updated as the session
// executes queries. Safe to call once before first use; not
// goroutine-safe against concurrent Execute calls.
func (s *Session) SetMetrics(m *Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetResultFormat chooses the wire encoding requested on every
// submission: "json" or "arrow" (the default).
func (s *Session) SetResultFormat(format string) {
	if format == "json" || format == "arrow" {
		s.resultFormat = format
	}
}

func (s *Session) nextSequenceID() uint32 {
	return atomic.AddUint32(&s.sequenceCounter, 1) - 1
}

func (s *Session) queryResultFormatParam() string {
	if s.resultFormat == "json" {
		return "JSON"
	}
	return "ARROW"
}

// Result is the caller-facing outcome of Execute / ExecuteAsync: the
// column schema, the query id, a human-readable detail URL, the
// server-reported total row count, and the decoded rows.
type Result struct {
	RowType        []RowType
	QueryID        string
	QueryDetailURL string
	Total          int64
	Rows           [][]Value
}

// VecResult returns each row as a positional slice of Values, in
// column order.
func (r *Result) VecResult() [][]Value { return r.Rows }

// MapResult returns each row as a name->Value map.
func (r *Result) MapResult() []map[string]Value {
	out := make([]map[string]Value, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]Value, len(row))
		for c, v := range row {
			m[r.RowType[c].Name] = v
		}
		out[i] = m
	}
	return out
}

// JSONMapResult returns each row as a name->json map, re-serializing
// every decoded Value back to JSON.
func (r *Result) JSONMapResult() ([]map[string]json.RawMessage, error) {
	out := make([]map[string]json.RawMessage, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]json.RawMessage, len(row))
		for c, v := range row {
			raw, err := valueToJSON(v)
			if err != nil {
				return nil, err
			}
			m[r.RowType[c].Name] = raw
		}
		out[i] = m
	}
	return out, nil
}

func valueToJSON(v Value) (json.RawMessage, error) {
	if v.Null {
		return json.RawMessage("null"), nil
	}
	var out any
	switch v.Kind {
	case KindBoolean:
		out = v.Bool
	case KindI64:
		out = v.I64
	case KindI128:
		out = fmt.Sprintf("%d:%d", v.I128.Hi, v.I128.Lo)
	case KindFloat:
		out = v.Float
	case KindDecimal:
		out = v.Dec.String()
	case KindString:
		out = v.Str
	case KindBinary:
		out = fmt.Sprintf("%x", v.Bin)
	case KindDate:
		out = v.Time.Format("2006-01-02")
	case KindTime:
		out = v.Time.Format("15:04:05.999999999")
	case KindTimestampNTZ, KindTimestampLTZ, KindTimestampTZ:
		out = v.Time.Format(time.RFC3339Nano)
	case KindObject, KindGeography, KindGeometry:
		out = v.Obj
	case KindArray:
		out = v.Arr
	case KindVariant:
		raw, err := json.Marshal(v.Variant)
		if err != nil {
			return nil, newSerializationError(err)
		}
		return raw, nil
	default:
		return v.Raw, nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, newSerializationError(err)
	}
	return raw, nil
}

// Execute submits sql synchronously: submit, receive inline rows plus
// a chunk list, fetch every chunk, decode, and assemble the result.
func (s *Session) Execute(ctx context.Context, sql string) (*Result, error) {
	deadline, hasDeadline := s.deadlineFor(ctx)
	ir, err := s.submit(ctx, sql, false, deadline, hasDeadline)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, ir, deadline)
}

// ExecuteAsync submits sql asynchronously, polls the monitoring
// endpoint until the query reaches a terminal status, and on success
// scans the result via RESULT_SCAN.
func (s *Session) ExecuteAsync(ctx context.Context, sql string) (*Result, error) {
	deadline, hasDeadline := s.deadlineFor(ctx)
	ir, err := s.submit(ctx, sql, true, deadline, hasDeadline)
	if err != nil {
		return nil, err
	}

	remaining := time.Until(deadline)
	if !hasDeadline {
		remaining = 0
	}
	if err := s.poll(ctx, ir.QueryID, remaining); err != nil {
		return nil, err
	}

	scan := fmt.Sprintf("SELECT * FROM TABLE(RESULT_SCAN('%s'))", strings.ReplaceAll(ir.QueryID, "'", "''"))
	if hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	return s.Execute(ctx, scan)
}

func (s *Session) deadlineFor(ctx context.Context) (time.Time, bool) {
	if dl, ok := ctx.Deadline(); ok {
		return dl, true
	}
	if s.cfg.OverallTimeout > 0 {
		return time.Now().Add(time.Duration(s.cfg.OverallTimeout)), true
	}
	return time.Time{}, false
}

func (s *Session) submit(ctx context.Context, sql string, async bool, deadline time.Time, hasDeadline bool) (*internalResult, error) {
	seq := s.nextSequenceID()
	body := queryRequest{Data: queryRequestData{
		AsyncExec: async,
		Parameters: map[string]any{
			"PYTHON_CONNECTOR_QUERY_RESULT_FORMAT": s.queryResultFormatParam(),
		},
		QuerySubmissionTime: time.Now().UnixMilli(),
		SequenceID:          seq,
		SQLText:             sql,
	}}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newSerializationError(err)
	}

	params := makeQueryParams()

	var remaining time.Duration
	if hasDeadline {
		remaining = time.Until(deadline)
	}

	var out *internalResult
	op := func() error {
		var resp queryResponse
		err := s.rest.postJSON(ctx, pathQueryRequest, params, payload, &resp, nil)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && isRetryableStatus(se.code) {
				s.metrics.SubmitRetryCount.Inc()
			}
			return err
		}
		if !resp.Success {
			var detail ErrorResult
			if err := json.Unmarshal(resp.Data, &detail); err != nil {
				return newDeserializationError("data", string(resp.Data), err)
			}
			return newExecutionError(resp.Message, s.classifyErrorResult(detail, resp.Message), nil)
		}
		var ir internalResult
		if err := json.Unmarshal(resp.Data, &ir); err != nil {
			return newDeserializationError("data", string(resp.Data), err)
		}
		out = &ir
		return nil
	}

	withFields(ctx, loggerField{"sequence_id", seq}, loggerField{"async", async}).Debug("submitting query")

	b := newSubmitBackoff(remaining)
	if err := runWithBackoff(ctx, b, op); err != nil {
		s.metrics.SubmitCount.WithLabelValues("failure").Inc()
		withFields(ctx).WithError(err).Error("query submission failed")
		return nil, err
	}
	s.metrics.SubmitCount.WithLabelValues("success").Inc()
	withFields(contextWithQueryID(ctx, out.QueryID)).Info("query submitted")
	return out, nil
}

func makeQueryParams() url.Values {
	params := url.Values{}
	params.Set("requestId", uuid.New().String())
	params.Set("request_guid", uuid.New().String())
	return params
}

// classifyErrorResult fills in error_type/line/pos by pattern-matching
// message, per the poll-loop classification rules, reused here since a
// sync submission can also surface a compilation error inline. It also
// (re)computes QueryDetailURL the way every original result constructor
// does, rather than trusting whatever the wire happened to send.
func (s *Session) classifyErrorResult(er ErrorResult, message string) *ErrorResult {
	classifyMessageInto(&er, message)
	er.QueryDetailURL = s.queryDetailURL(er.QueryID)
	return &er
}

// queryDetailURL builds the human-readable Snowsight deep link for
// queryID, joining region/account the way the original client does:
// region first when present, account always.
func (s *Session) queryDetailURL(queryID string) string {
	components := []string{}
	if s.region != "" {
		components = append(components, s.region)
	}
	components = append(components, s.account)
	path := strings.Join(components, "/")
	return fmt.Sprintf("https://app.snowflake.com/%s/#/compute/history/queries/%s/detail", path, queryID)
}

func (s *Session) assemble(ctx context.Context, ir *internalResult, deadline time.Time) (*Result, error) {
	rowTypes := make([]RowType, len(ir.RowType))
	for i, w := range ir.RowType {
		rowTypes[i] = rowTypeFromWire(w)
	}

	var rows [][]Value
	switch {
	case ir.RowSetBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(ir.RowSetBase64)
		if err != nil {
			return nil, newDeserializationError("rowsetbase64", "", err)
		}
		inline, err := decodeArrowChunkRows(rowTypes, bytes.NewReader(decoded))
		if err != nil {
			return nil, err
		}
		rows = groupRows(inline, len(rowTypes))
	case ir.RowSet != nil:
		for _, rawRow := range ir.RowSet {
			row := make([]Value, len(rowTypes))
			for c, cell := range rawRow {
				raw, err := json.Marshal(cell)
				if err != nil {
					return nil, newSerializationError(err)
				}
				v, err := decodeJSONCell(rowTypes[c], raw)
				if err != nil {
					return nil, err
				}
				row[c] = v
			}
			rows = append(rows, row)
		}
	}

	if len(ir.Chunks) > 0 {
		d := newChunkDownloader(s.chunkParallelism(), ir.QueryResultFormat, ir.Qrmk, ir.ChunkHeaders, rowTypes)
		d.metrics = s.metrics
		if s.transport != nil {
			d.httpClient.Transport = s.transport
		}
		chunkRows, err := d.downloadAll(ctx, chunksFromWire(ir.Chunks), deadline)
		if err != nil {
			return nil, err
		}
		for _, flat := range chunkRows {
			rows = append(rows, groupRows(flat, len(rowTypes))...)
		}
	}

	return &Result{
		RowType:        rowTypes,
		QueryID:        ir.QueryID,
		QueryDetailURL: s.queryDetailURL(ir.QueryID),
		Total:          ir.Total,
		Rows:           rows,
	}, nil
}

func (s *Session) chunkParallelism() int {
	if s.cfg.MaxParallelDownloads > 0 {
		return s.cfg.MaxParallelDownloads
	}
	return 1
}

func groupRows(flat []Value, width int) [][]Value {
	if width == 0 {
		return nil
	}
	rows := make([][]Value, len(flat)/width)
	for i := range rows {
		rows[i] = flat[i*width : (i+1)*width]
	}
	return rows
}
