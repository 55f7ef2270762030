// Package message defines the platform-neutral notification record produced
// by the composer and consumed by exactly one wire adapter.
package message

import "github.com/Kondo2021/redmine-messenger/internal/domain/tracker"

// Kind names the notification subtype a record was composed for.
type Kind string

const (
	KindIssueCreated     Kind = "issue.created"
	KindIssueUpdated     Kind = "issue.updated"
	KindChildAdded       Kind = "issue.child_added"
	KindRelationAdded    Kind = "issue.relation_added"
	KindTimeEntryCreated Kind = "time_entry.created"
	KindTimeEntryUpdated Kind = "time_entry.updated"
)

// Field is one formatted name/value pair. Wide=false signals the rendering
// surface may lay the field out inline with its siblings.
type Field struct {
	Name  string
	Value string
	Wide  bool
}

// Record is the assembled notification. Links inside Headline, Body and
// field values use the bracketed-pipe form <url|text>; adapters translate
// it to their own syntax.
type Record struct {
	Headline     string
	Body         string
	Fields       []Field
	MentionBlock string
	Channels     []string
	Project      tracker.ProjectRef
	Kind         Kind
}

// Link renders a link in the composer's generic <url|text> form.
func Link(url, text string) string {
	return "<" + url + "|" + text + ">"
}
