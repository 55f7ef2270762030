// Package settings defines the read-only per-project configuration port.
package settings

import "context"

// Target is the configured outbound webhook for a project.
type Target struct {
	URL string
	// Kind is the declared notification platform, "slack" or "discord".
	Kind string
}

// Flags are the per-project notification switches.
type Flags struct {
	PostUpdates               bool
	PostPrivateIssues         bool
	PostPrivateNotes          bool
	NewIncludeDescription     bool
	UpdatedIncludeDescription bool
	DirectUserMessages        bool
	PostTimeEntries           bool
	PostTimeEntryUpdates      bool
	AutoMentions              bool
}

// Project is one project's configuration snapshot, taken at classification
// time; concurrent configuration changes do not affect in-flight
// notifications.
type Project struct {
	ProjectID int64
	Channels  []string
	Webhook   Target
	Flags     Flags
}

// Configured reports whether the snapshot can address a delivery at all.
func (p *Project) Configured() bool {
	return p != nil && len(p.Channels) > 0 && p.Webhook.URL != ""
}

// Reader looks up project configuration. A project with no configuration
// returns (nil, nil): absence is a silent skip, not an error.
type Reader interface {
	ForProject(ctx context.Context, projectID int64) (*Project, error)
}
