package snowql

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/google/uuid"
)

const (
	clientAppID      = "PythonConnector"
	clientAppVersion = "2.9.0"
)

// login performs the handshake producing a bearer token, per the
// request/response shapes in wire.go. It does not mutate cfg or rc;
// the caller stores the returned token on the session.
func login(ctx context.Context, rc *restClient, cfg *Config, reqID uuid.UUID) (string, error) {
	body := loginRequest{
		Data: loginRequestData{
			AccountName:      cfg.accountName(),
			LoginName:        cfg.User,
			Password:         cfg.Password,
			ClientAppID:      clientAppID,
			ClientAppVersion: clientAppVersion,
			SessionParameters: map[string]any{
				"TIMEZONE":                "Etc/GMT",
				"CLIENT_PREFETCH_THREADS": 4,
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", newSerializationError(err)
	}

	q := url.Values{}
	q.Set("request_id", reqID.String())
	q.Set("request_guid", uuid.New().String())
	q.Set("databaseName", cfg.Database)
	q.Set("schemaName", cfg.Schema)
	q.Set("warehouse", cfg.Warehouse)
	q.Set("roleName", cfg.Role)

	withFields(ctx, loggerField{"account", cfg.accountName()}, loggerField{"request_id", reqID.String()}).Debug("sending login request")

	var resp loginResponse
	if err := rc.postJSON(ctx, pathLoginRequest, q, payload, &resp, nil); err != nil {
		withFields(ctx).WithError(err).Error("login request failed")
		return "", newAuthError("login request failed", err)
	}
	if !resp.Success {
		withFields(ctx).WithField("message", resp.Message).Warn("login rejected")
		return "", newAuthError("login rejected: "+resp.Message, nil)
	}
	if resp.Data.Token == "" {
		return "", newAuthError("login response carried no token", nil)
	}
	withFields(ctx).Info("login succeeded")
	return resp.Data.Token, nil
}
