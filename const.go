package snowql

import "fmt"

// Standing HTTP headers and wire constants used on every request to the
// main Snowflake host. Chunk downloads and the monitoring endpoint
// override a subset of these (see restful.go and poll.go).
const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	headerUserAgent     = "User-Agent"

	contentTypeJSON        = "application/json"
	acceptTypeSnowflake    = "application/snowflake"
	authorizationNoneToken = `Snowflake Token="None"`

	headerSSECAlgorithm = "x-amz-server-side-encryption-customer-algorithm"
	headerSSECKey       = "x-amz-server-side-encryption-customer-key"
	sseCAES256          = "AES256"
)

// clientName and clientVersion identify this library on the wire; they
// mirror the teacher's CLIENT_APP_ID/CLIENT_APP_VERSION login fields and
// the User-Agent header sent on every request.
const (
	clientName    = "snowql-go"
	clientVersion = "1.0.0"
)

var userAgent = fmt.Sprintf("%s/%s", clientName, clientVersion)

func authorizationHeader(token string) string {
	if token == "" {
		return authorizationNoneToken
	}
	return fmt.Sprintf(`Snowflake Token="%s"`, token)
}

const (
	pathLoginRequest = "/session/v1/login-request"
	pathQueryRequest = "/queries/v1/query-request"
	pathMonitoring   = "/monitoring/queries/"
)
