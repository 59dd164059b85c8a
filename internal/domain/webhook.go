package domain

// Webhook describes the notification target invoked after a diff job has
// produced an IntentDiff. Body is an arbitrary JSON object whose string
// values may contain "{ variable }" placeholders rendered by the notifier.
type Webhook struct {
	URL  string         `json:"url"`
	Body map[string]any `json:"body"`
}
