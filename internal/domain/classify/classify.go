// Package classify inspects a journaled update and decides which
// notification subtype it produces, if any. The rules short-circuit in a
// fixed order: child-addition, then relation-addition, then tree-cascade
// suppression, then no-meaningful-change suppression, then the generic
// update. Exactly one decision comes out of every change-set.
package classify

import (
	"context"
	"regexp"
	"strconv"

	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

// Kind is the decided notification subtype.
type Kind string

const (
	KindSuppressed    Kind = "suppressed"
	KindUpdate        Kind = "update"
	KindChildAdded    Kind = "child_added"
	KindRelationAdded Kind = "relation_added"
)

// Decision is the classifier output. Parent is set for KindChildAdded (the
// notification re-targets the parent's project); Related and RelationWord
// are set for KindRelationAdded.
type Decision struct {
	Kind         Kind
	Parent       *tracker.Issue
	Related      *tracker.Issue
	RelationWord string
}

// IssueFinder resolves the issues referenced by structural changes.
type IssueFinder interface {
	Issue(ctx context.Context, id int64) (*tracker.Issue, bool)
}

// bookkeepingKeys are structural fields the tracker rewrites on its own;
// changes to them carry no user intent.
var bookkeepingKeys = map[string]bool{
	"lft":        true,
	"rgt":        true,
	"root_id":    true,
	"updated_on": true,
}

// treeKeys are the hierarchy fields cascaded onto a parent when a child is
// edited elsewhere.
var treeKeys = map[string]bool{
	"lft":       true,
	"rgt":       true,
	"root_id":   true,
	"parent_id": true,
}

// relationPattern matches journal relation values like "blocks #42".
var relationPattern = regexp.MustCompile(`(\w+)\s+#(\d+)`)

// Classifier decides the notification subtype for an update.
type Classifier struct {
	Issues IssueFinder
}

// Classify is deterministic: the same issue and change-set always yield the
// same decision.
func (c Classifier) Classify(ctx context.Context, issue *tracker.Issue, cs tracker.ChangeSet) Decision {
	if d, ok := c.childAdded(ctx, cs); ok {
		return d
	}
	if d, ok := c.relationAdded(ctx, cs); ok {
		return d
	}

	meaningful := meaningfulChanges(cs)

	// A parent whose only meaningful changes are tree bookkeeping was not
	// edited by anyone; the update is a cascade from editing a child.
	if issue.HasChildren && allTreeKeys(meaningful) {
		return Decision{Kind: KindSuppressed}
	}

	if len(meaningful) == 0 && cs.Notes == "" {
		return Decision{Kind: KindSuppressed}
	}

	return Decision{Kind: KindUpdate}
}

// childAdded fires when a parent link transitions from absent to present
// and the parent resolves.
func (c Classifier) childAdded(ctx context.Context, cs tracker.ChangeSet) (Decision, bool) {
	change, ok := cs.Attribute("parent_id")
	if !ok || change.Old != "" || change.New == "" {
		return Decision{}, false
	}
	id, err := strconv.ParseInt(change.New, 10, 64)
	if err != nil {
		return Decision{}, false
	}
	parent, ok := c.Issues.Issue(ctx, id)
	if !ok {
		return Decision{}, false
	}
	return Decision{Kind: KindChildAdded, Parent: parent}, true
}

// relationAdded fires when a relations value transitions from absent to
// present, parses as "<word> #<id>" and the referenced issue resolves.
func (c Classifier) relationAdded(ctx context.Context, cs tracker.ChangeSet) (Decision, bool) {
	change, ok := cs.Attribute("relations")
	if !ok || change.Old != "" || change.New == "" {
		return Decision{}, false
	}
	m := relationPattern.FindStringSubmatch(change.New)
	if m == nil {
		return Decision{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Decision{}, false
	}
	related, ok := c.Issues.Issue(ctx, id)
	if !ok {
		return Decision{}, false
	}
	return Decision{Kind: KindRelationAdded, Related: related, RelationWord: m[1]}, true
}

// silentKeys are free-text attributes whose formatter deliberately emits
// nothing; a change-set containing only these cannot surface any field.
var silentKeys = map[string]bool{
	"description": true,
}

// meaningfulChanges drops bookkeeping keys and silent free-text keys.
func meaningfulChanges(cs tracker.ChangeSet) []tracker.FieldChange {
	var out []tracker.FieldChange
	for _, ch := range cs.Changes {
		if ch.Property == tracker.PropertyAttribute {
			if bookkeepingKeys[ch.Key] || silentKeys[ch.Key] {
				continue
			}
		}
		out = append(out, ch)
	}
	return out
}

func allTreeKeys(changes []tracker.FieldChange) bool {
	for _, ch := range changes {
		if ch.Property != tracker.PropertyAttribute || !treeKeys[ch.Key] {
			return false
		}
	}
	return true
}
