package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Kondo2021/redmine-messenger/internal/port/settings"
)

// ForProject loads a project's notification configuration. A project with
// no row is simply not configured and returns (nil, nil).
func (s *Store) ForProject(ctx context.Context, projectID int64) (*settings.Project, error) {
	p := settings.Project{ProjectID: projectID}
	err := s.pool.QueryRow(ctx,
		`SELECT channels, webhook_url, webhook_kind,
		        post_updates, post_private_issues, post_private_notes,
		        new_include_description, updated_include_description,
		        direct_user_messages, post_time_entries, post_time_entry_updates,
		        auto_mentions
		 FROM messenger_settings WHERE project_id = $1`,
		projectID).Scan(
		&p.Channels, &p.Webhook.URL, &p.Webhook.Kind,
		&p.Flags.PostUpdates, &p.Flags.PostPrivateIssues, &p.Flags.PostPrivateNotes,
		&p.Flags.NewIncludeDescription, &p.Flags.UpdatedIncludeDescription,
		&p.Flags.DirectUserMessages, &p.Flags.PostTimeEntries, &p.Flags.PostTimeEntryUpdates,
		&p.Flags.AutoMentions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("settings for project %d: %w", projectID, err)
	}
	return &p, nil
}

var _ settings.Reader = (*Store)(nil)
