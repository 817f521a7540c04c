package snowql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) (*Session, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	rc := newRestClient(strings.TrimPrefix(srv.URL, "http://"), srv.Client())
	rc.scheme = "http"
	rc.setToken("tok")
	s := &Session{
		cfg:          &Config{},
		rest:         rc,
		metrics:      noopMetrics(),
		resultFormat: "json",
		account:      "acct",
		region:       "r",
	}
	return s, srv
}

func TestExecuteInlineJSONRowset(t *testing.T) {
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": {
				"rowtype": [
					{"name":"n","type":"fixed","nullable":true,"precision":5,"scale":0},
					{"name":"s","type":"text","nullable":true}
				],
				"rowset": [["1","a"],["2","b"]],
				"queryId": "q-abc",
				"queryResultFormat": "json",
				"total": 2
			},
			"success": true
		}`))
	})
	defer srv.Close()

	res, err := s.Execute(context.Background(), "select 1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.QueryID != "q-abc" {
		t.Errorf("QueryID = %q, want q-abc", res.QueryID)
	}
	wantURL := "https://app.snowflake.com/r/acct/#/compute/history/queries/q-abc/detail"
	if res.QueryDetailURL != wantURL {
		t.Errorf("QueryDetailURL = %q, want %q", res.QueryDetailURL, wantURL)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
	}
	if res.Rows[0][0].I64 != 1 || res.Rows[1][0].I64 != 2 {
		t.Errorf("Rows = %+v", res.Rows)
	}
	if res.Rows[0][1].Str != "a" {
		t.Errorf("Rows[0][1] = %+v, want Str=a", res.Rows[0][1])
	}

	maps := res.MapResult()
	if maps[0]["s"].Str != "a" {
		t.Errorf("MapResult = %+v", maps)
	}
}

// TestExecuteCompilationError covers S7: a synchronous submission whose
// envelope carries success=false and a SQL compilation error message
// must surface a KindExecution *Error with QueryDetail populated from
// the message, by the same classification rules poll.go applies.
func TestExecuteCompilationError(t *testing.T) {
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": {"error_type":"","line":0,"pos":0,"query_id":"q-bad"},
			"message": "SQL compilation error: line 1, position 7\ninvalid identifier 'FOO'",
			"success": false
		}`))
	})
	defer srv.Close()

	_, err := s.Execute(context.Background(), "select foo")
	if err == nil {
		t.Fatal("expected error")
	}
	sfErr, ok := err.(*Error)
	if !ok || sfErr.Kind != KindExecution {
		t.Fatalf("err = %v, want KindExecution", err)
	}
	if sfErr.QueryDetail == nil || sfErr.QueryDetail.ErrorType != "COMPILATION" {
		t.Errorf("QueryDetail = %+v, want ErrorType COMPILATION", sfErr.QueryDetail)
	}
	if sfErr.QueryDetail.Line != 1 || sfErr.QueryDetail.Pos != 7 {
		t.Errorf("QueryDetail line/pos = %d/%d, want 1/7", sfErr.QueryDetail.Line, sfErr.QueryDetail.Pos)
	}
}

func TestGroupRows(t *testing.T) {
	flat := []Value{{I64: 1}, {I64: 2}, {I64: 3}, {I64: 4}}
	rows := groupRows(flat, 2)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0][0].I64 != 1 || rows[0][1].I64 != 2 || rows[1][0].I64 != 3 || rows[1][1].I64 != 4 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestQueryDetailURL(t *testing.T) {
	withRegion := &Session{account: "acct", region: "r"}
	if got, want := withRegion.queryDetailURL("q-1"), "https://app.snowflake.com/r/acct/#/compute/history/queries/q-1/detail"; got != want {
		t.Errorf("queryDetailURL() = %q, want %q", got, want)
	}

	noRegion := &Session{account: "acct"}
	if got, want := noRegion.queryDetailURL("q-1"), "https://app.snowflake.com/acct/#/compute/history/queries/q-1/detail"; got != want {
		t.Errorf("queryDetailURL() = %q, want %q", got, want)
	}
}

func TestChunkParallelismDefault(t *testing.T) {
	s := &Session{cfg: &Config{}}
	if got := s.chunkParallelism(); got != 1 {
		t.Errorf("chunkParallelism() = %d, want 1", got)
	}
	s.cfg.MaxParallelDownloads = 4
	if got := s.chunkParallelism(); got != 4 {
		t.Errorf("chunkParallelism() = %d, want 4", got)
	}
}
