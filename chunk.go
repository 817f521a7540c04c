package snowql

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Chunk names one out-of-band HTTPS payload carrying additional rows
// of the current result set.
type Chunk struct {
	URL      string
	RowCount int
}

func chunksFromWire(w []wireChunk) []Chunk {
	out := make([]Chunk, len(w))
	for i, c := range w {
		out[i] = Chunk{URL: c.URL, RowCount: c.RowCount}
	}
	return out
}

// chunkDownloader fetches and decodes result chunks with bounded
// parallelism, delivering decoded rows strictly in chunk-list order
// regardless of completion order.
type chunkDownloader struct {
	httpClient           *http.Client
	maxParallelDownloads int
	format               string // "json" or "arrow"
	qrmk                 string
	chunkHeaders         map[string]string
	rowType              []RowType
	metrics              *Metrics
}

func newChunkDownloader(maxParallel int, format, qrmk string, chunkHeaders map[string]string, rowType []RowType) *chunkDownloader {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &chunkDownloader{
		httpClient:           &http.Client{},
		maxParallelDownloads: maxParallel,
		format:               format,
		qrmk:                 qrmk,
		chunkHeaders:         chunkHeaders,
		rowType:              rowType,
		metrics:              noopMetrics(),
	}
}

func (d *chunkDownloader) headers() map[string]string {
	if len(d.chunkHeaders) > 0 {
		h := make(map[string]string, len(d.chunkHeaders))
		for k, v := range d.chunkHeaders {
			h[k] = v
		}
		return h
	}
	return map[string]string{
		headerSSECAlgorithm: sseCAES256,
		headerSSECKey:       d.qrmk,
	}
}

// downloadAll fetches every chunk with bounded concurrency and returns
// their decoded rows in chunk-list order. Deadline is checked after
// each chunk is delivered; a zero or negative remaining deadline
// aborts the whole download with an execution error.
func (d *chunkDownloader) downloadAll(ctx context.Context, chunks []Chunk, deadline time.Time) ([][]Value, error) {
	results := make([][]Value, len(chunks))
	sem := semaphore.NewWeighted(int64(d.maxParallelDownloads))
	g, gctx := errgroup.WithContext(ctx)

	for i, ch := range chunks {
		i, ch := i, ch
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			rows, err := d.downloadOne(gctx, ch)
			if err != nil {
				return err
			}
			results[i] = rows
			if !deadline.IsZero() && time.Now().After(deadline) {
				return newExecutionError("deadline exceeded during chunk download", nil, nil)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if sfErr, ok := err.(*Error); ok {
			return nil, sfErr
		}
		return nil, newChunkError("downloading chunk", err)
	}
	return results, nil
}

func (d *chunkDownloader) downloadOne(ctx context.Context, ch Chunk) ([]Value, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ch.URL, nil)
	if err != nil {
		return nil, newChunkError("building chunk request", err)
	}
	for k, v := range d.headers() {
		req.Header.Set(k, v)
	}
	req.Header.Set(headerUserAgent, userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, newChunkError("fetching chunk", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, newChunkError(fmt.Sprintf("chunk fetch returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := maybeGunzip(resp.Body)
	if err != nil {
		return nil, newChunkError("decompressing chunk", err)
	}
	counting := &countingReader{r: body}

	var rows []Value
	switch d.format {
	case "arrow":
		rows, err = decodeArrowChunkRows(d.rowType, counting)
	default:
		rows, err = decodeJSONChunkRows(d.rowType, counting)
	}
	if err != nil {
		return nil, err
	}

	d.metrics.ChunkDownloadSecs.WithLabelValues(d.format).Observe(time.Since(start).Seconds())
	d.metrics.ChunkBytes.Add(float64(counting.n))
	return rows, nil
}

// countingReader tallies bytes read through it so chunk-download
// metrics can report total uncompressed volume.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// maybeGunzip peeks the first two bytes for the gzip magic number
// (0x1f 0x8b) and transparently decompresses if present.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

// decodeJSONChunkRows decodes a JSON chunk body: per spec.md §6.4, the
// body is the comma-separated *inner* contents of a row array (e.g.
// `["1","a"],["2","b"]`, or just `["1","a"]` for a single row) and
// gets an outer `[ ]` pair added to become a valid array of row
// arrays; a body that already starts with `[[` is parsed as-is.
func decodeJSONChunkRows(rowType []RowType, r io.Reader) ([]Value, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, newChunkError("reading chunk body", err)
	}
	trimmed := bytes.TrimSpace(raw)
	if !looksPreWrapped(trimmed) {
		var buf bytes.Buffer
		buf.WriteByte('[')
		buf.Write(trimmed)
		buf.WriteByte(']')
		trimmed = buf.Bytes()
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, newDeserializationError("chunk", "", err)
	}

	var out []Value
	for _, row := range rows {
		for colIdx, cell := range row {
			v, err := decodeJSONCell(rowType[colIdx], cell)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// looksPreWrapped distinguishes an already-wrapped array-of-rows body
// (`[[...],[...]]`) from the bare comma-separated row list the wire
// actually sends, which still starts with a single row's own `[` and
// so cannot be told apart from "wrapped" by checking only the first
// byte: a single unwrapped row (`["1","a"]`) and a multi-row unwrapped
// body (`["1","a"],["2","b"]`) both start with `[` followed by the
// first cell, never by a second `[`.
func looksPreWrapped(trimmed []byte) bool {
	if len(trimmed) < 2 || trimmed[0] != '[' {
		return false
	}
	rest := bytes.TrimLeft(trimmed[1:], " \t\r\n")
	return len(rest) > 0 && rest[0] == '['
}

// decodeArrowChunkRows decodes an Arrow IPC stream chunk body,
// record batch by record batch, column by column.
func decodeArrowChunkRows(rowType []RowType, r io.Reader) ([]Value, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, newDeserializationError("chunk", "", err)
	}
	defer reader.Release()

	var out []Value
	for reader.Next() {
		rec := reader.Record()
		numRows := int(rec.NumRows())
		rowVals := make([][]Value, len(rowType))
		for colIdx, col := range rec.Columns() {
			vals, err := decodeArrowColumn(rowType[colIdx], col)
			if err != nil {
				return nil, err
			}
			rowVals[colIdx] = vals
		}
		for r := 0; r < numRows; r++ {
			for c := range rowType {
				out = append(out, rowVals[c][r])
			}
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, newDeserializationError("chunk", "", err)
	}
	return out, nil
}
