// Package tracker defines the host issue-tracker entities the relay
// observes. They are materialized by the tracker at the moment a mutation
// commits, handed over on the hook endpoints, and discarded after one
// notification attempt.
package tracker

import "context"

// PropertyKind discriminates the two delta shapes a journal can carry.
type PropertyKind string

const (
	// PropertyAttribute is a change to a built-in issue attribute.
	PropertyAttribute PropertyKind = "attr"
	// PropertyCustomField is a change to a custom field value, keyed by the
	// custom field's numeric id.
	PropertyCustomField PropertyKind = "cf"
)

// FieldChange is one delta within a journal. Old/New hold the raw stored
// values; an empty string means the value was absent on that side.
type FieldChange struct {
	Property PropertyKind `json:"property"`
	Key      string       `json:"key"`
	Old      string       `json:"old_value"`
	New      string       `json:"new_value"`
}

// ChangeSet is one journaled update: the ordered deltas plus an optional
// note. Never mutated after construction.
type ChangeSet struct {
	ID           int64         `json:"id"`
	Changes      []FieldChange `json:"details"`
	Notes        string        `json:"notes"`
	PrivateNotes bool          `json:"private_notes"`
	Actor        UserRef       `json:"user"`
}

// Attribute returns the first attribute change with the given key.
func (cs ChangeSet) Attribute(key string) (FieldChange, bool) {
	for _, c := range cs.Changes {
		if c.Property == PropertyAttribute && c.Key == key {
			return c, true
		}
	}
	return FieldChange{}, false
}

// UserRef identifies a tracker user. DiscordUserID/SlackUserID are the
// durable chat-platform identifiers, when the user registered them.
type UserRef struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	Name          string `json:"name"`
	DiscordUserID string `json:"discord_user_id,omitempty"`
	SlackUserID   string `json:"slack_user_id,omitempty"`
}

// ProjectRef identifies the project an entity belongs to.
type ProjectRef struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// CustomValue is one materialized custom field value on an issue.
type CustomValue struct {
	FieldID string `json:"field_id"`
	Name    string `json:"name"`
	Format  string `json:"format"`
	Value   string `json:"value"`
}

// Attachment is a file attached to an issue.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Issue is the work item the notifications are about. Reference attributes
// (Status, Priority, ...) carry the already-resolved display names for the
// current state; journal deltas carry raw ids instead and go through the
// Directory.
type Issue struct {
	ID             int64         `json:"id"`
	Project        ProjectRef    `json:"project"`
	Tracker        string        `json:"tracker"`
	Subject        string        `json:"subject"`
	Description    string        `json:"description"`
	Author         UserRef       `json:"author"`
	Assignee       *UserRef      `json:"assignee,omitempty"`
	IsPrivate      bool          `json:"is_private"`
	ParentID       int64         `json:"parent_id,omitempty"`
	HasChildren    bool          `json:"has_children"`
	StartDate      string        `json:"start_date,omitempty"`
	DueDate        string        `json:"due_date,omitempty"`
	EstimatedHours float64       `json:"estimated_hours,omitempty"`
	DoneRatio      int           `json:"done_ratio"`
	Status         string        `json:"status,omitempty"`
	Priority       string        `json:"priority,omitempty"`
	Category       string        `json:"category,omitempty"`
	Version        string        `json:"version,omitempty"`
	Watchers       []UserRef     `json:"watchers,omitempty"`
	CustomValues   []CustomValue `json:"custom_values,omitempty"`
	Attachments    []Attachment  `json:"attachments,omitempty"`
	URL            string        `json:"url"`
}

// TimeEntry is a logged unit of work, optionally linked to an issue.
type TimeEntry struct {
	ID       int64      `json:"id"`
	Project  ProjectRef `json:"project"`
	Issue    *Issue     `json:"issue,omitempty"`
	User     UserRef    `json:"user"`
	Hours    float64    `json:"hours"`
	Activity string     `json:"activity,omitempty"`
	Comments string     `json:"comments,omitempty"`
	SpentOn  string     `json:"spent_on"`
	URL      string     `json:"url"`
}

// RefKind names a reference attribute namespace for Directory lookups.
type RefKind string

const (
	RefStatus   RefKind = "status"
	RefPriority RefKind = "priority"
	RefCategory RefKind = "category"
	RefVersion  RefKind = "version"
	RefUser     RefKind = "user"
)

// CustomFieldDef describes a custom field: its label and value format
// ("bool", "date", "int", "float", "list", "user", "version", "link",
// "string", "text").
type CustomFieldDef struct {
	ID     string
	Name   string
	Format string
}

// Directory resolves raw ids from journal deltas into display values and
// entities. Implementations must treat a missing row as (zero, false),
// never as an error; the formatting layer renders a sentinel instead.
type Directory interface {
	// DisplayName resolves a reference attribute id to its display name.
	DisplayName(ctx context.Context, kind RefKind, id string) (string, bool)

	// User resolves a user id to a full UserRef including platform ids.
	User(ctx context.Context, id string) (UserRef, bool)

	// Issue resolves an issue id to the issue, with project, assignee and
	// watchers populated.
	Issue(ctx context.Context, id int64) (*Issue, bool)

	// CustomField resolves a custom field id to its definition.
	CustomField(ctx context.Context, id string) (CustomFieldDef, bool)

	// CustomOption resolves a stored list-format value to its label.
	CustomOption(ctx context.Context, fieldID, value string) (string, bool)
}
