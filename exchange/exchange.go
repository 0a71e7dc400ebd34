// Package exchange implements [ckassist.TemplateService] for the Template
// Exchange API.
//
// Each call is a single authenticated HTTP round trip. Status codes are
// mapped onto the ckassist error taxonomy: 404 on read becomes
// [ckassist.ErrNotFound], 401 becomes [ckassist.ErrAuthenticationFailed] and
// anything else unsuccessful becomes a [*ckassist.RemoteError].
package exchange

const (
	templatesPath = "/api/templates"
	apiKeyHeader  = "x-api-key"
)

// apiUpsertRequest is the JSON body of a create/update call. Metadata is
// omitted only when nil; an empty object is still sent.
type apiUpsertRequest struct {
	SessionID string          `json:"sessionId"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Status    string          `json:"status"`
	Metadata  *map[string]any `json:"metadata,omitempty"`
}
