package snowql

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChunkDownloaderJSONOrderPreserved(t *testing.T) {
	bodies := []string{
		`["1", "a"]`,
		`["2", "b"]`,
		`["3", "c"]`,
	}
	var servers []*httptest.Server
	for _, b := range bodies {
		b := b
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(b))
		}))
		servers = append(servers, srv)
		defer srv.Close()
	}

	rowType := []RowType{
		{Name: "n", LogicalType: "fixed", Precision: 5},
		{Name: "s", LogicalType: "text"},
	}
	var chunks []Chunk
	for _, srv := range servers {
		chunks = append(chunks, Chunk{URL: srv.URL, RowCount: 1})
	}

	for _, parallel := range []int{1, 3} {
		d := newChunkDownloader(parallel, "json", "", nil, rowType)
		rows, err := d.downloadAll(context.Background(), chunks, time.Time{})
		if err != nil {
			t.Fatalf("downloadAll(parallel=%d): %v", parallel, err)
		}
		for i, want := range []int64{1, 2, 3} {
			if rows[i][0].I64 != want {
				t.Errorf("parallel=%d chunk %d = %+v, want I64=%d", parallel, i, rows[i][0], want)
			}
		}
	}
}

func TestMaybeGunzipPlain(t *testing.T) {
	r, err := maybeGunzip(strings.NewReader("[1,2,3]"))
	if err != nil {
		t.Fatalf("maybeGunzip: %v", err)
	}
	body, _ := io.ReadAll(r)
	if string(body) != "[1,2,3]" {
		t.Errorf("got %q", body)
	}
}

func TestMaybeGunzipCompressed(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		gw := gzip.NewWriter(pw)
		gw.Write([]byte("hello"))
		gw.Close()
		pw.Close()
	}()
	r, err := maybeGunzip(pr)
	if err != nil {
		t.Fatalf("maybeGunzip: %v", err)
	}
	body, _ := io.ReadAll(r)
	if string(body) != "hello" {
		t.Errorf("got %q", body)
	}
}
