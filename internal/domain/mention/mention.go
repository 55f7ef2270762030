// Package mention builds the platform-specific mention block appended to a
// notification headline.
package mention

import (
	"context"
	"strings"

	"github.com/Kondo2021/redmine-messenger/internal/domain/locale"
	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

// Platform selects the mention token syntax.
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformSlack   Platform = "slack"
)

// Recipients is the derived recipient set for one notification. Watchers
// come from the live watcher list at notification time, never from the
// change-set.
type Recipients struct {
	Assignee *tracker.UserRef
	Watchers []tracker.UserRef
}

// Env carries the per-call context for block building.
type Env struct {
	Labels   locale.Catalog
	Platform Platform
	Dir      tracker.Directory
}

// Token returns the mention token for a user: an id-addressed token when
// the user registered a durable platform identifier, a plain @login
// fallback otherwise, and "" when the user contributes nothing.
func Token(u tracker.UserRef, p Platform) string {
	switch p {
	case PlatformDiscord:
		if u.DiscordUserID != "" {
			return "<@" + u.DiscordUserID + ">"
		}
	case PlatformSlack:
		if u.SlackUserID != "" {
			return "<@" + u.SlackUserID + ">"
		}
	}
	if u.Login != "" {
		return "@" + u.Login
	}
	return ""
}

// Block renders at most two labeled lines: the assignee line and the
// watcher line. The actor never appears on either line. When the change-set
// carries an assignee change, both the old and the new assignee are
// mentioned so the outgoing assignee is informed; otherwise the current
// assignee is. Empty recipient sets yield an empty string.
func Block(ctx context.Context, rec Recipients, actor tracker.UserRef, cs *tracker.ChangeSet, env Env) string {
	var lines []string

	assignees := assigneeTokens(ctx, rec, actor, cs, env)
	if len(assignees) > 0 {
		lines = append(lines, "\n\n"+env.Labels.AssigneeLine+": "+strings.Join(assignees, " "))
	}

	watchers := watcherTokens(rec.Watchers, actor, env)
	if len(watchers) > 0 {
		lines = append(lines, "\n"+env.Labels.WatcherLine+": "+strings.Join(watchers, " "))
	}

	return strings.Join(lines, "")
}

func assigneeTokens(ctx context.Context, rec Recipients, actor tracker.UserRef, cs *tracker.ChangeSet, env Env) []string {
	if cs != nil {
		if change, ok := cs.Attribute("assigned_to_id"); ok {
			var tokens []string
			seen := make(map[string]bool)
			for _, id := range []string{change.Old, change.New} {
				if id == "" {
					continue
				}
				u, ok := env.Dir.User(ctx, id)
				if !ok || u.ID == actor.ID {
					continue
				}
				if t := Token(u, env.Platform); t != "" && !seen[t] {
					seen[t] = true
					tokens = append(tokens, t)
				}
			}
			return tokens
		}
	}

	if rec.Assignee == nil || rec.Assignee.ID == actor.ID {
		return nil
	}
	if t := Token(*rec.Assignee, env.Platform); t != "" {
		return []string{t}
	}
	return nil
}

func watcherTokens(watchers []tracker.UserRef, actor tracker.UserRef, env Env) []string {
	var tokens []string
	seen := make(map[string]bool)
	for _, w := range watchers {
		if w.ID == actor.ID {
			continue
		}
		if t := Token(w, env.Platform); t != "" && !seen[t] {
			seen[t] = true
			tokens = append(tokens, t)
		}
	}
	return tokens
}
