package snowql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClassifyStatus(t *testing.T) {
	cases := map[string]pollStatus{
		"Success":                 pollSuccess,
		"Running":                 pollRunning,
		"Queued":                  pollRunning,
		"ResumingWarehouse":       pollRunning,
		"QueuedReparingWarehouse": pollRunning,
		"Blocked":                 pollRunning,
		"NoData":                  pollNoData,
		"Aborting":                pollFailed,
		"FailedWithError":         pollFailed,
		"Aborted":                 pollFailed,
		"FailedWithIncident":      pollFailed,
		"Disconnected":            pollFailed,
	}
	for status, want := range cases {
		if got := classifyStatus(status); got != want {
			t.Errorf("classifyStatus(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestClassifyMessageIntoCompilationError(t *testing.T) {
	er := &ErrorResult{}
	classifyMessageInto(er, "SQL compilation error: line 3, position 12\nunexpected 'FROM'")
	if er.ErrorType != "COMPILATION" {
		t.Errorf("ErrorType = %q, want COMPILATION", er.ErrorType)
	}
	if er.Line != 3 {
		t.Errorf("Line = %d, want 3", er.Line)
	}
	if er.Pos != 12 {
		t.Errorf("Pos = %d, want 12", er.Pos)
	}
}

// TestPollNoDataExhaustion covers S8: a monitoring endpoint that always
// reports an empty queries array must fail after maxNoDataRetry
// consecutive observations rather than retrying forever.
func TestPollNoDataExhaustion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"data":{"queries":[]},"success":true}`))
	}))
	defer srv.Close()

	rc := newRestClient(strings.TrimPrefix(srv.URL, "http://"), srv.Client())
	rc.scheme = "http"
	s := &Session{cfg: &Config{}, rest: rc, metrics: noopMetrics()}

	err := s.poll(context.Background(), "q-1", time.Hour)
	if err == nil {
		t.Fatal("expected error after NoData exhaustion")
	}
	sfErr, ok := err.(*Error)
	if !ok || sfErr.Kind != KindExecution {
		t.Fatalf("err = %v, want KindExecution", err)
	}
	if got := atomic.LoadInt32(&calls); int(got) != maxNoDataRetry {
		t.Errorf("calls = %d, want %d", got, maxNoDataRetry)
	}
}

// TestPollSucceedsAfterRunning covers the common async path: a few
// Running observations followed by Success.
func TestPollSucceedsAfterRunning(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.Write([]byte(`{"data":{"queries":[{"id":"q-1","status":"Running"}]},"success":true}`))
			return
		}
		w.Write([]byte(`{"data":{"queries":[{"id":"q-1","status":"Success"}]},"success":true}`))
	}))
	defer srv.Close()

	rc := newRestClient(strings.TrimPrefix(srv.URL, "http://"), srv.Client())
	rc.scheme = "http"
	s := &Session{cfg: &Config{}, rest: rc, metrics: noopMetrics()}

	if err := s.poll(context.Background(), "q-1", 10*time.Second); err != nil {
		t.Fatalf("poll: %v", err)
	}
}

// TestPollFailedWithErrorClassifiesCompilation covers S7: a terminal
// FailedWithError status whose message matches the compilation-error
// pattern must surface a KindExecution *Error with QueryDetail.ErrorType
// set to COMPILATION and Line/Pos populated from the message.
func TestPollFailedWithErrorClassifiesCompilation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"queries":[{"id":"q-1","status":"FailedWithError","message":"SQL compilation error: line 2, position 5\nunexpected token"}]},"success":true}`))
	}))
	defer srv.Close()

	rc := newRestClient(strings.TrimPrefix(srv.URL, "http://"), srv.Client())
	rc.scheme = "http"
	s := &Session{cfg: &Config{}, rest: rc, metrics: noopMetrics()}

	err := s.poll(context.Background(), "q-1", 10*time.Second)
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
	if sfErr.QueryDetail.Line != 2 || sfErr.QueryDetail.Pos != 5 {
		t.Errorf("QueryDetail line/pos = %d/%d, want 2/5", sfErr.QueryDetail.Line, sfErr.QueryDetail.Pos)
	}
}

func TestMaxNoDataRetryConst(t *testing.T) {
	if maxNoDataRetry != 24 {
		t.Fatalf("maxNoDataRetry = %d, want 24", maxNoDataRetry)
	}
}
