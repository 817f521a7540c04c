package snowql

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxNoDataRetry = 24

var (
	lineRe = regexp.MustCompile(`line (\d+)`)
	posRe  = regexp.MustCompile(`position (\d+)`)
)

// classifyMessageInto fills in ErrorResult.ErrorType/Line/Pos by
// pattern-matching the server's message, leaving any fields the
// server already populated untouched.
func classifyMessageInto(er *ErrorResult, message string) {
	if er == nil {
		return
	}
	if er.ErrorType == "" && strings.HasPrefix(message, "SQL compilation error") {
		er.ErrorType = "COMPILATION"
	}
	if m := lineRe.FindStringSubmatch(message); m != nil && er.Line == 0 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			er.Line = n
		}
	}
	if m := posRe.FindStringSubmatch(message); m != nil && er.Pos == 0 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			er.Pos = n
		}
	}
}

// pollStatus classifies a monitoring status string.
type pollStatus int

const (
	pollRunning pollStatus = iota
	pollSuccess
	pollFailed
	pollNoData
)

func classifyStatus(status string) pollStatus {
	switch status {
	case "Success":
		return pollSuccess
	case "Running", "Queued", "ResumingWarehouse", "QueuedReparingWarehouse", "Blocked":
		return pollRunning
	case "NoData":
		return pollNoData
	case "Aborting", "FailedWithError", "Aborted", "FailedWithIncident", "Disconnected":
		return pollFailed
	default:
		return pollRunning
	}
}

// poll drives the async status poll loop until the query reaches a
// terminal status, per the backoff schedule (initial=500ms, max=5s,
// capped by remaining). NoData responses are transient but bounded:
// after maxNoDataRetry consecutive observations, polling fails.
func (s *Session) poll(ctx context.Context, queryID string, remaining time.Duration) error {
	noDataCount := 0
	iterations := 0
	b := newPollBackoff(remaining)

	op := func() error {
		iterations++
		var resp monitoringResponse
		path := pathMonitoring + url.PathEscape(queryID)
		err := s.rest.getJSON(ctx, path, nil, &resp, map[string]string{headerAccept: contentTypeJSON})
		if err != nil {
			return err
		}
		if len(resp.Data.Queries) == 0 {
			noDataCount++
			if noDataCount >= maxNoDataRetry {
				return newExecutionError("cannot retrieve status for query "+queryID+": NoData exhausted after "+strconv.Itoa(maxNoDataRetry)+" retries", nil, nil)
			}
			return retryable(errPollNoData)
		}
		noDataCount = 0

		q := resp.Data.Queries[0]
		switch classifyStatus(q.Status) {
		case pollSuccess:
			withFields(contextWithQueryID(ctx, queryID), loggerField{"iterations", iterations}).Debug("query reached terminal success")
			return nil
		case pollFailed:
			er := q.ErrorResult
			if er == nil {
				er = &ErrorResult{QueryID: queryID}
			}
			classifyMessageInto(er, q.Message)
			er.QueryDetailURL = s.queryDetailURL(queryID)
			return newExecutionError("query "+queryID+" failed with status "+q.Status, er, nil)
		case pollNoData:
			noDataCount++
			if noDataCount >= maxNoDataRetry {
				return newExecutionError("cannot retrieve status for query "+queryID+": NoData exhausted after "+strconv.Itoa(maxNoDataRetry)+" retries", nil, nil)
			}
			return retryable(errPollNoData)
		default:
			return retryable(errPollNotTerminal)
		}
	}

	err := runWithBackoff(ctx, b, op)
	s.metrics.PollIterations.Observe(float64(iterations))
	return err
}
