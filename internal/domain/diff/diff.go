// Package diff turns a single journal delta into a human-readable field.
// Attribute formatting dispatches through a registry keyed by attribute key,
// open for extension without touching a central conditional.
package diff

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Kondo2021/redmine-messenger/internal/domain/locale"
	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

// Env carries the per-call formatting context: the label catalog and the
// lookup used to resolve reference ids.
type Env struct {
	Labels locale.Catalog
	Dir    tracker.Directory
}

// Formatter renders one attribute change. ok=false means the change
// contributes no field; that is an omission, not an error.
type Formatter func(ctx context.Context, change tracker.FieldChange, env Env) (message.Field, bool)

var (
	mu       sync.RWMutex
	registry = make(map[string]Formatter)
)

// Register makes a formatter available for an attribute key. Registering a
// key twice panics; the builtin table is installed by init.
func Register(key string, f Formatter) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("diff: duplicate formatter for %q", key))
	}
	registry[key] = f
}

// Renders reports whether an attribute key has a registered formatter, i.e.
// whether a change to it can surface in a notification.
func Renders(key string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[key]
	return ok
}

// Format renders one delta. Unrecognized property kinds and keys yield
// (zero, false); the caller omits the field.
func Format(ctx context.Context, change tracker.FieldChange, env Env) (message.Field, bool) {
	switch change.Property {
	case tracker.PropertyAttribute:
		mu.RLock()
		f, ok := registry[change.Key]
		mu.RUnlock()
		if !ok {
			return message.Field{}, false
		}
		return f(ctx, change, env)
	case tracker.PropertyCustomField:
		return formatCustomChange(ctx, change, env)
	default:
		return message.Field{}, false
	}
}

func init() {
	Register("start_date", func(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
		return dateField(env.Labels.FieldStartDate, c, env), true
	})
	Register("due_date", func(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
		return dateField(env.Labels.FieldDueDate, c, env), true
	})
	Register("estimated_hours", func(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
		return message.Field{
			Name:  env.Labels.FieldEstimatedHours,
			Value: arrow(hoursText(c.Old), hoursText(c.New)),
		}, true
	})
	Register("done_ratio", func(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
		return message.Field{
			Name:  env.Labels.FieldDoneRatio,
			Value: arrow(ratioText(c.Old), ratioText(c.New)),
		}, true
	})
	Register("subject", func(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
		return message.Field{
			Name:  env.Labels.FieldSubject,
			Value: arrow(orUnset(c.Old, env), orUnset(c.New, env)),
			Wide:  true,
		}, true
	})

	refField := func(label func(Env) string, kind tracker.RefKind) Formatter {
		return func(ctx context.Context, c tracker.FieldChange, env Env) (message.Field, bool) {
			return message.Field{
				Name:  label(env),
				Value: arrow(refText(ctx, kind, c.Old, env), refText(ctx, kind, c.New, env)),
			}, true
		}
	}
	Register("status_id", refField(func(e Env) string { return e.Labels.FieldStatus }, tracker.RefStatus))
	Register("priority_id", refField(func(e Env) string { return e.Labels.FieldPriority }, tracker.RefPriority))
	Register("category_id", refField(func(e Env) string { return e.Labels.FieldCategory }, tracker.RefCategory))
	Register("fixed_version_id", refField(func(e Env) string { return e.Labels.FieldVersion }, tracker.RefVersion))
	Register("assigned_to_id", refField(func(e Env) string { return e.Labels.FieldAssignee }, tracker.RefUser))

	// description is free text and deliberately emits nothing: the payload
	// would be oversized and the note already carries the narrative.
}

func arrow(oldVal, newVal string) string {
	return oldVal + " → " + newVal
}

func dateField(label string, c tracker.FieldChange, env Env) message.Field {
	old := env.Labels.Unset
	if c.Old != "" {
		old = DateText(c.Old)
	}
	newVal := env.Labels.Unset
	if c.New != "" {
		newVal = DateText(c.New)
	}
	return message.Field{Name: label, Value: arrow(old, newVal)}
}

func orUnset(s string, env Env) string {
	if s == "" {
		return env.Labels.Unset
	}
	return s
}

func refText(ctx context.Context, kind tracker.RefKind, id string, env Env) string {
	if id == "" {
		return env.Labels.Unset
	}
	if name, ok := env.Dir.DisplayName(ctx, kind, id); ok {
		return name
	}
	return env.Labels.Unset
}

func ratioText(s string) string {
	if s == "" {
		return "0%"
	}
	return s + "%"
}

func hoursText(s string) string {
	if s == "" {
		return HoursText(0)
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return HoursText(h)
}

// HoursText renders a decimal hour count as H:MM, rounding to the nearest
// minute. Zero renders as 0:00.
func HoursText(hours float64) string {
	total := int(math.Round(hours * 60))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// DateText renders a YYYY-MM-DD date as YYYY/MM/DD. Anything that does not
// parse passes through unchanged.
func DateText(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("2006/01/02")
}
