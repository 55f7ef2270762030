// Package discord builds the native webhook payload: JSON content with
// structured embeds.
package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

// Options carry the optional sender identity shown by the chat platform.
type Options struct {
	Username  string
	AvatarURL string
}

// Message is the native webhook body.
type Message struct {
	Content   string  `json:"content"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Embed holds a description plus structured fields. Embeds without fields
// are never emitted.
type Embed struct {
	Description string       `json:"description,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedField is one embed field; Inline allows side-by-side layout.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// linkPattern matches the composer's generic <url|text> link form.
var linkPattern = regexp.MustCompile(`<([^|>]+)\|([^>]+)>`)

// RewriteLinks converts every <url|text> occurrence to [text](url).
func RewriteLinks(s string) string {
	return linkPattern.ReplaceAllString(s, "[$2]($1)")
}

// Build converts a message record into the native JSON wire request. A
// record with no headline is a programmer error.
func Build(rec *message.Record, targetURL string, opts Options) (wire.Request, error) {
	if rec == nil || rec.Headline == "" {
		return wire.Request{}, errors.New("discord: empty message record")
	}

	msg := Message{
		Content:   "⚡️ " + RewriteLinks(rec.Headline+rec.MentionBlock),
		Username:  opts.Username,
		AvatarURL: opts.AvatarURL,
	}

	if len(rec.Fields) > 0 {
		embed := Embed{Description: RewriteLinks(rec.Body)}
		for _, f := range rec.Fields {
			embed.Fields = append(embed.Fields, EmbedField{
				Name:   RewriteLinks(f.Name),
				Value:  RewriteLinks(f.Value),
				Inline: !f.Wide,
			})
		}
		msg.Embeds = []Embed{embed}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return wire.Request{}, fmt.Errorf("discord marshal: %w", err)
	}

	return wire.Request{
		URL:         targetURL,
		ContentType: "application/json",
		Body:        body,
	}, nil
}
