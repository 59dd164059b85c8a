// Package notifier delivers drift notifications to caller-supplied webhooks.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"netdrift/internal/domain"
)

// Placeholder names usable inside webhook body values. Each occurrence of
// "{ name }" is replaced with the corresponding value before delivery.
const (
	PlaceholderIntentHostname            = "intent_hostname"
	PlaceholderIntentConfigHash          = "intent_config_hash"
	PlaceholderIntentDescription         = "intent_description"
	PlaceholderIntentLastDiscoveryID     = "intent_last_discovery_id"
	PlaceholderIntentLastDiscoveryStatus = "intent_last_discovery_status"
	PlaceholderIntentLastDiscoveryMsg    = "intent_last_discovery_message"
	PlaceholderIntentDiff                = "intent_diff"
	PlaceholderIntent                    = "intent"
	PlaceholderIntentID                  = "intent_id"
	PlaceholderIntentDiffID              = "intent_diff_id"
)

// Notifier posts rendered webhook bodies over HTTP.
type Notifier struct {
	client *http.Client
}

// New creates a notifier with the given delivery timeout.
func New(timeout time.Duration) *Notifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{client: &http.Client{Timeout: timeout}}
}

// Notify renders the webhook body against the intent and diff and posts it
// as JSON. Any non-2xx response is an error; delivery is not retried.
func (n *Notifier) Notify(ctx context.Context, webhook *domain.Webhook, intent *domain.Intent, diff *domain.IntentDiff) error {
	body, err := RenderBody(webhook.Body, intent, diff)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderBody substitutes "{ name }" placeholders inside every string value
// of the body and serializes the result as JSON.
func RenderBody(body map[string]any, intent *domain.Intent, diff *domain.IntentDiff) ([]byte, error) {
	values := placeholderValues(intent, diff)

	rendered := renderValue(body, values)
	out, err := json.Marshal(rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook body: %w", err)
	}
	return out, nil
}

func placeholderValues(intent *domain.Intent, diff *domain.IntentDiff) map[string]string {
	values := map[string]string{}
	if intent != nil {
		values[PlaceholderIntentHostname] = intent.Hostname
		values[PlaceholderIntentConfigHash] = intent.ConfigHash
		values[PlaceholderIntentDescription] = intent.Description
		values[PlaceholderIntentLastDiscoveryID] = intent.LastDiscoveryID
		values[PlaceholderIntentLastDiscoveryStatus] = string(intent.LastDiscoveryStatus)
		values[PlaceholderIntentLastDiscoveryMsg] = intent.LastDiscoveryMessage
		values[PlaceholderIntentID] = intent.ID
	}
	if diff != nil {
		values[PlaceholderIntentDiff] = diff.Diff
		values[PlaceholderIntent] = diff.Intent
		values[PlaceholderIntentDiffID] = diff.ID
	}
	return values
}

// renderValue walks maps, slices and strings, leaving other JSON types
// untouched.
func renderValue(v any, values map[string]string) any {
	switch typed := v.(type) {
	case string:
		return renderString(typed, values)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, child := range typed {
			out[k] = renderValue(child, values)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = renderValue(child, values)
		}
		return out
	default:
		return v
	}
}

func renderString(s string, values map[string]string) string {
	for name, value := range values {
		s = strings.ReplaceAll(s, "{ "+name+" }", value)
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}
