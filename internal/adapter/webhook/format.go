// Package webhook formats message records for a configured target and
// delivers them over HTTP.
package webhook

import (
	"strings"

	"github.com/Kondo2021/redmine-messenger/internal/adapter/discord"
	"github.com/Kondo2021/redmine-messenger/internal/adapter/slack"
	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/port/settings"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

// Options carry the sender identity applied to every outgoing payload.
type Options struct {
	Username  string
	AvatarURL string
}

// BuildRequest picks the wire format for the target and renders the record.
// The native JSON format applies only when the target kind says so AND the
// endpoint is not a /slack compatibility URL; everything else gets the
// form-encoded payload.
func BuildRequest(rec *message.Record, target settings.Target, opts Options) (wire.Request, error) {
	if target.Kind == "discord" && !strings.HasSuffix(target.URL, "/slack") {
		return discord.Build(rec, target.URL, discord.Options{
			Username:  opts.Username,
			AvatarURL: opts.AvatarURL,
		})
	}
	return slack.Build(rec, target.URL, slack.Options{
		Username: opts.Username,
		IconURL:  opts.AvatarURL,
	})
}
