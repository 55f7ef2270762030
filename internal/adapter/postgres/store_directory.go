package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

var _ tracker.Directory = (*Store)(nil)

// DisplayName resolves a reference attribute id against the tracker's own
// tables. A missing row is (zero, false), never an error; broken lookups
// are logged and rendered as the unset sentinel upstream.
func (s *Store) DisplayName(ctx context.Context, kind tracker.RefKind, id string) (string, bool) {
	var query string
	switch kind {
	case tracker.RefStatus:
		query = `SELECT name FROM issue_statuses WHERE id = $1`
	case tracker.RefPriority:
		query = `SELECT name FROM enumerations WHERE id = $1 AND type = 'IssuePriority'`
	case tracker.RefCategory:
		query = `SELECT name FROM issue_categories WHERE id = $1`
	case tracker.RefVersion:
		query = `SELECT name FROM versions WHERE id = $1`
	case tracker.RefUser:
		query = `SELECT firstname || ' ' || lastname FROM users WHERE id = $1`
	default:
		return "", false
	}

	var name string
	if err := s.pool.QueryRow(ctx, query, id).Scan(&name); err != nil {
		s.logMiss(err, "display name", string(kind), id)
		return "", false
	}
	return name, true
}

// User resolves a user id with the chat-platform ids joined in.
func (s *Store) User(ctx context.Context, id string) (tracker.UserRef, bool) {
	var u tracker.UserRef
	var discordID, slackID *string
	err := s.pool.QueryRow(ctx,
		`SELECT u.id, u.login, u.firstname || ' ' || u.lastname, m.discord_user_id, m.slack_user_id
		 FROM users u
		 LEFT JOIN messenger_user_ids m ON m.user_id = u.id
		 WHERE u.id = $1`,
		id).Scan(&u.ID, &u.Login, &u.Name, &discordID, &slackID)
	if err != nil {
		s.logMiss(err, "user", "user", id)
		return tracker.UserRef{}, false
	}
	if discordID != nil {
		u.DiscordUserID = *discordID
	}
	if slackID != nil {
		u.SlackUserID = *slackID
	}
	return u, true
}

// Issue resolves an issue with project, assignee and watchers populated,
// enough to compose a parent or relation notification about it.
func (s *Store) Issue(ctx context.Context, id int64) (*tracker.Issue, bool) {
	issue := tracker.Issue{ID: id}
	var assigneeID *int64
	var parentID *int64
	var childCount int
	err := s.pool.QueryRow(ctx,
		`SELECT p.id, p.identifier, p.name, t.name, i.subject, i.is_private,
		        i.assigned_to_id, i.parent_id,
		        (SELECT count(*) FROM issues c WHERE c.parent_id = i.id)
		 FROM issues i
		 JOIN projects p ON p.id = i.project_id
		 JOIN trackers t ON t.id = i.tracker_id
		 WHERE i.id = $1`,
		id).Scan(
		&issue.Project.ID, &issue.Project.Identifier, &issue.Project.Name,
		&issue.Tracker, &issue.Subject, &issue.IsPrivate,
		&assigneeID, &parentID, &childCount)
	if err != nil {
		s.logMiss(err, "issue", "issue", fmt.Sprint(id))
		return nil, false
	}
	issue.HasChildren = childCount > 0
	if parentID != nil {
		issue.ParentID = *parentID
	}
	issue.URL = fmt.Sprintf("%s/issues/%d", s.baseURL, id)

	if assigneeID != nil {
		if u, ok := s.User(ctx, fmt.Sprint(*assigneeID)); ok {
			issue.Assignee = &u
		}
	}

	watchers, err := s.watchers(ctx, id)
	if err != nil {
		s.logMiss(err, "watchers", "issue", fmt.Sprint(id))
		return nil, false
	}
	issue.Watchers = watchers

	return &issue, true
}

// CustomField resolves a custom field definition.
func (s *Store) CustomField(ctx context.Context, id string) (tracker.CustomFieldDef, bool) {
	def := tracker.CustomFieldDef{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT name, field_format FROM custom_fields WHERE id = $1`,
		id).Scan(&def.Name, &def.Format)
	if err != nil {
		s.logMiss(err, "custom field", "custom_field", id)
		return tracker.CustomFieldDef{}, false
	}
	return def, true
}

// CustomOption resolves a list-format stored value to its label.
func (s *Store) CustomOption(ctx context.Context, fieldID, value string) (string, bool) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT name FROM custom_field_enumerations WHERE custom_field_id = $1 AND id = $2`,
		fieldID, value).Scan(&name)
	if err != nil {
		s.logMiss(err, "custom option", "custom_field", fieldID)
		return "", false
	}
	return name, true
}

func (s *Store) watchers(ctx context.Context, issueID int64) ([]tracker.UserRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.login, u.firstname || ' ' || u.lastname, m.discord_user_id, m.slack_user_id
		 FROM watchers w
		 JOIN users u ON u.id = w.user_id
		 LEFT JOIN messenger_user_ids m ON m.user_id = u.id
		 WHERE w.watchable_type = 'Issue' AND w.watchable_id = $1
		 ORDER BY u.id`,
		issueID)
	if err != nil {
		return nil, fmt.Errorf("list watchers: %w", err)
	}
	defer rows.Close()

	var out []tracker.UserRef
	for rows.Next() {
		var u tracker.UserRef
		var discordID, slackID *string
		if err := rows.Scan(&u.ID, &u.Login, &u.Name, &discordID, &slackID); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		if discordID != nil {
			u.DiscordUserID = *discordID
		}
		if slackID != nil {
			u.SlackUserID = *slackID
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) logMiss(err error, what, kind, id string) {
	if errors.Is(err, pgx.ErrNoRows) {
		return
	}
	slog.Error("directory lookup failed", "what", what, "kind", kind, "id", id, "error", err)
}
