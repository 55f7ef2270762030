// Package slack builds the legacy-compatible webhook payload: a single
// form-encoded "payload" field holding the JSON message.
package slack

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

// Options carry the optional sender identity shown by the chat platform.
type Options struct {
	Username string
	IconURL  string
}

// Message is the payload JSON. Links stay in the generic <url|text> form,
// which this format renders natively.
type Message struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
}

// Attachment groups a body text with its fields.
type Attachment struct {
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Field is one attachment field; Short allows side-by-side layout.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Build converts a message record into the form-encoded wire request. A
// record with no headline is a programmer error.
func Build(rec *message.Record, targetURL string, opts Options) (wire.Request, error) {
	if rec == nil || rec.Headline == "" {
		return wire.Request{}, errors.New("slack: empty message record")
	}

	msg := Message{
		Text:     "⚡️ " + rec.Headline + rec.MentionBlock,
		Username: opts.Username,
		IconURL:  opts.IconURL,
	}

	if rec.Body != "" || len(rec.Fields) > 0 {
		att := Attachment{Text: rec.Body}
		for _, f := range rec.Fields {
			att.Fields = append(att.Fields, Field{Title: f.Name, Value: f.Value, Short: !f.Wide})
		}
		msg.Attachments = []Attachment{att}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return wire.Request{}, fmt.Errorf("slack marshal: %w", err)
	}

	form := url.Values{"payload": {string(payload)}}
	return wire.Request{
		URL:         targetURL,
		ContentType: "application/x-www-form-urlencoded",
		Body:        []byte(form.Encode()),
	}, nil
}
