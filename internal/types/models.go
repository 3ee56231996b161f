package types

// Job is one end-to-end fulfillment run for a single recording notification.
// It doubles as the webhook request body; it lives only in memory for the
// duration of one pipeline run and has no persisted identity.
type Job struct {
	ContactID string `json:"contactId"`
	FileName  string `json:"fileName"`
}
