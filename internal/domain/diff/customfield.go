package diff

import (
	"context"

	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

// textLimit is the cut-off for free-text custom values; longer values are
// truncated with a trailing ellipsis marker.
const textLimit = 50

func formatCustomChange(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
	def, ok := env.Dir.CustomField(ctx, c.Key)
	if !ok {
		return message.Field{}, false
	}

	old := CustomValueText(ctx, c.Key, def.Format, c.Old, env)
	newVal := CustomValueText(ctx, c.Key, def.Format, c.New, env)

	return message.Field{Name: def.Name, Value: arrow(old, newVal)}, true
}

// CustomValueText renders one stored custom field value according to the
// field's declared format. Blank values render as the unset sentinel;
// unresolvable references fall back to the raw value, never to an error.
func CustomValueText(ctx context.Context, fieldID, format, value string, env Env) string {
	if value == "" {
		return env.Labels.Unset
	}

	switch format {
	case "bool":
		if value == "1" {
			return "Yes"
		}
		return "No"
	case "date":
		return DateText(value)
	case "int", "float":
		return value
	case "list":
		if label, ok := env.Dir.CustomOption(ctx, fieldID, value); ok {
			return label
		}
		return value
	case "user":
		if name, ok := env.Dir.DisplayName(ctx, tracker.RefUser, value); ok {
			return name
		}
		return value
	case "version":
		if name, ok := env.Dir.DisplayName(ctx, tracker.RefVersion, value); ok {
			return name
		}
		return value
	case "link":
		return value
	case "string", "text":
		return truncate(value, textLimit)
	default:
		return value
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-2]) + "..."
}
