// Package service contains the application services: message composition
// and the lifecycle-hook notification pipeline.
package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Kondo2021/redmine-messenger/internal/domain/diff"
	"github.com/Kondo2021/redmine-messenger/internal/domain/locale"
	"github.com/Kondo2021/redmine-messenger/internal/domain/mention"
	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
	"github.com/Kondo2021/redmine-messenger/internal/port/settings"
)

// Composer assembles platform-neutral message records. All gating
// (project flags, private entities, empty channel sets) happens here: a nil
// record means nothing is delivered.
type Composer struct {
	Dir    tracker.Directory
	Labels locale.Catalog
}

// IssueCreated composes the creation notification. Creation bypasses the
// update suppression rules but still honors channel and privacy gates.
func (c *Composer) IssueCreated(ctx context.Context, issue *tracker.Issue, snap *settings.Project) *message.Record {
	if snap == nil {
		return nil
	}
	rec := issueRecipients(issue)
	channels := channelsFor(snap, rec, issue.Author)
	if len(channels) == 0 || snap.Webhook.URL == "" {
		return nil
	}
	if issue.IsPrivate && !snap.Flags.PostPrivateIssues {
		return nil
	}

	var body string
	if issue.Description != "" && snap.Flags.NewIncludeDescription {
		body = issue.Description
	}

	headline := locale.Expand(c.Labels.IssueCreated, map[string]string{
		"project": issue.Project.Name,
		"tracker": issue.Tracker,
		"link":    issueLink(issue),
		"user":    issue.Author.Name,
	})

	return &message.Record{
		Headline:     headline,
		Body:         body,
		Fields:       c.snapshotFields(ctx, issue),
		MentionBlock: mention.Block(ctx, rec, issue.Author, nil, c.mentionEnv(snap)),
		Channels:     channels,
		Project:      issue.Project,
		Kind:         message.KindIssueCreated,
	}
}

// IssueUpdated composes the generic update notification: one formatted
// field per journal delta in journal order, then the note, then a private
// indicator.
func (c *Composer) IssueUpdated(ctx context.Context, issue *tracker.Issue, cs tracker.ChangeSet, snap *settings.Project) *message.Record {
	if snap == nil || !snap.Flags.PostUpdates {
		return nil
	}
	rec := issueRecipients(issue)
	channels := channelsFor(snap, rec, cs.Actor)
	if len(channels) == 0 || snap.Webhook.URL == "" {
		return nil
	}
	if issue.IsPrivate && !snap.Flags.PostPrivateIssues {
		return nil
	}
	if cs.PrivateNotes && !snap.Flags.PostPrivateNotes {
		return nil
	}

	var body string
	if snap.Flags.UpdatedIncludeDescription {
		if change, ok := cs.Attribute("description"); ok && change.New != "" {
			body = change.New
		}
	}

	env := diff.Env{Labels: c.Labels, Dir: c.Dir}
	var fields []message.Field
	for _, change := range cs.Changes {
		if f, ok := diff.Format(ctx, change, env); ok {
			fields = append(fields, f)
		}
	}
	if cs.Notes != "" {
		fields = append(fields, message.Field{Name: c.Labels.FieldNote, Value: cs.Notes, Wide: true})
	}
	if cs.PrivateNotes {
		fields = append(fields, message.Field{Name: c.Labels.FieldPrivateNote})
	}

	link := message.Link(fmt.Sprintf("%s#change-%d", issue.URL, cs.ID), issue.Subject)
	headline := locale.Expand(c.Labels.IssueUpdated, map[string]string{
		"project": issue.Project.Name,
		"tracker": issue.Tracker,
		"link":    link,
		"user":    cs.Actor.Name,
	})

	// Mentions only when the update actually surfaced something.
	var mentions string
	if len(fields) > 0 || cs.Notes != "" {
		mentions = mention.Block(ctx, rec, cs.Actor, &cs, c.mentionEnv(snap))
	}

	return &message.Record{
		Headline:     headline,
		Body:         body,
		Fields:       fields,
		MentionBlock: mentions,
		Channels:     channels,
		Project:      issue.Project,
		Kind:         message.KindIssueUpdated,
	}
}

// ChildAdded composes the notification announcing a child on the parent's
// channels: parent project configuration, parent recipients.
func (c *Composer) ChildAdded(ctx context.Context, child, parent *tracker.Issue, actor tracker.UserRef, parentSnap *settings.Project) *message.Record {
	if parentSnap == nil || !parentSnap.Flags.PostUpdates {
		return nil
	}
	rec := issueRecipients(parent)
	channels := channelsFor(parentSnap, rec, actor)
	if len(channels) == 0 || parentSnap.Webhook.URL == "" {
		return nil
	}
	if parent.IsPrivate && !parentSnap.Flags.PostPrivateIssues {
		return nil
	}

	headline := locale.Expand(c.Labels.ChildAdded, map[string]string{
		"project": parent.Project.Name,
		"parent":  issueLink(parent),
		"child":   issueLink(child),
		"user":    actor.Name,
	})

	return &message.Record{
		Headline:     headline,
		Fields:       []message.Field{{Name: c.Labels.FieldChildIssue, Value: fmt.Sprintf("#%d %s", child.ID, child.Subject)}},
		MentionBlock: mention.Block(ctx, rec, actor, nil, c.mentionEnv(parentSnap)),
		Channels:     channels,
		Project:      parent.Project,
		Kind:         message.KindChildAdded,
	}
}

// RelationAdded composes the notification for a newly linked relation.
func (c *Composer) RelationAdded(ctx context.Context, issue, related *tracker.Issue, word string, cs tracker.ChangeSet, snap *settings.Project) *message.Record {
	if snap == nil || !snap.Flags.PostUpdates {
		return nil
	}
	rec := issueRecipients(issue)
	channels := channelsFor(snap, rec, cs.Actor)
	if len(channels) == 0 || snap.Webhook.URL == "" {
		return nil
	}
	if issue.IsPrivate && !snap.Flags.PostPrivateIssues {
		return nil
	}

	headline := locale.Expand(c.Labels.RelationAdded, map[string]string{
		"project":  issue.Project.Name,
		"relation": c.Labels.Relation(word),
		"link":     issueLink(issue),
		"related":  issueLink(related),
		"user":     cs.Actor.Name,
	})

	return &message.Record{
		Headline:     headline,
		MentionBlock: mention.Block(ctx, rec, cs.Actor, nil, c.mentionEnv(snap)),
		Channels:     channels,
		Project:      issue.Project,
		Kind:         message.KindRelationAdded,
	}
}

// TimeEntryLogged composes the notification for a created or updated time
// entry. Recipients come from the linked issue, when there is one.
func (c *Composer) TimeEntryLogged(ctx context.Context, te *tracker.TimeEntry, created bool, snap *settings.Project) *message.Record {
	if snap == nil {
		return nil
	}
	if created && !snap.Flags.PostTimeEntries {
		return nil
	}
	if !created && !snap.Flags.PostTimeEntryUpdates {
		return nil
	}

	var rec mention.Recipients
	if te.Issue != nil {
		rec = issueRecipients(te.Issue)
	}
	channels := channelsFor(snap, rec, te.User)
	if len(channels) == 0 || snap.Webhook.URL == "" {
		return nil
	}
	if te.Issue != nil && te.Issue.IsPrivate && !snap.Flags.PostPrivateIssues {
		return nil
	}

	fields := []message.Field{
		{Name: c.Labels.FieldHours, Value: strconv.FormatFloat(te.Hours, 'g', -1, 64)},
	}
	if te.Activity != "" {
		fields = append(fields, message.Field{Name: c.Labels.FieldActivity, Value: te.Activity})
	}
	if te.Comments != "" {
		fields = append(fields, message.Field{Name: c.Labels.FieldComments, Value: te.Comments, Wide: true})
	}
	fields = append(fields, message.Field{Name: c.Labels.FieldSpentOn, Value: te.SpentOn})

	vars := map[string]string{
		"project": te.Project.Name,
		"user":    te.User.Name,
	}
	template := c.Labels.TimeEntryCreated
	if !created {
		template = c.Labels.TimeEntryUpdated
	}
	if te.Issue != nil {
		vars["issue"] = issueLink(te.Issue)
		template = c.Labels.TimeEntryCreatedWithIssue
		if !created {
			template = c.Labels.TimeEntryUpdatedWithIssue
		}
	}

	var mentions string
	if snap.Flags.AutoMentions {
		mentions = mention.Block(ctx, rec, te.User, nil, c.mentionEnv(snap))
	}

	kind := message.KindTimeEntryCreated
	if !created {
		kind = message.KindTimeEntryUpdated
	}

	return &message.Record{
		Headline:     locale.Expand(template, vars),
		Fields:       fields,
		MentionBlock: mentions,
		Channels:     channels,
		Project:      te.Project,
		Kind:         kind,
	}
}

// snapshotFields renders the state snapshot shown on a creation
// notification: every populated attribute, non-blank custom fields and
// attachment links.
func (c *Composer) snapshotFields(ctx context.Context, issue *tracker.Issue) []message.Field {
	var fields []message.Field
	add := func(name, value string, wide bool) {
		fields = append(fields, message.Field{Name: name, Value: value, Wide: wide})
	}

	if issue.StartDate != "" {
		add(c.Labels.FieldStartDate, diff.DateText(issue.StartDate), false)
	}
	if issue.DueDate != "" {
		add(c.Labels.FieldDueDate, diff.DateText(issue.DueDate), false)
	}
	if issue.EstimatedHours > 0 {
		add(c.Labels.FieldEstimatedHours, diff.HoursText(issue.EstimatedHours), false)
	}
	if issue.Status != "" {
		add(c.Labels.FieldStatus, issue.Status, false)
	}
	if issue.Priority != "" {
		add(c.Labels.FieldPriority, issue.Priority, false)
	}
	if issue.Category != "" {
		add(c.Labels.FieldCategory, issue.Category, false)
	}
	if issue.Version != "" {
		add(c.Labels.FieldVersion, issue.Version, false)
	}
	if issue.DoneRatio > 0 {
		add(c.Labels.FieldDoneRatio, strconv.Itoa(issue.DoneRatio)+"%", false)
	}

	env := diff.Env{Labels: c.Labels, Dir: c.Dir}
	for _, cv := range issue.CustomValues {
		if cv.Value == "" {
			continue
		}
		if v := diff.CustomValueText(ctx, cv.FieldID, cv.Format, cv.Value, env); v != c.Labels.Unset {
			add(cv.Name, v, false)
		}
	}

	for _, att := range issue.Attachments {
		add(c.Labels.FieldAttachment, message.Link(att.URL, att.Filename), false)
	}

	return fields
}

func (c *Composer) mentionEnv(snap *settings.Project) mention.Env {
	platform := mention.PlatformSlack
	if snap.Webhook.Kind == "discord" {
		platform = mention.PlatformDiscord
	}
	return mention.Env{Labels: c.Labels, Platform: platform, Dir: c.Dir}
}

func issueRecipients(issue *tracker.Issue) mention.Recipients {
	return mention.Recipients{Assignee: issue.Assignee, Watchers: issue.Watchers}
}

func issueLink(issue *tracker.Issue) string {
	return message.Link(issue.URL, issue.Subject)
}

// channelsFor copies the project channel list and, when direct messages are
// enabled, derives one @login channel per recipient. The actor never
// receives a direct message about their own change. Recomputed per event so
// recipient changes take effect immediately.
func channelsFor(snap *settings.Project, rec mention.Recipients, actor tracker.UserRef) []string {
	out := append([]string(nil), snap.Channels...)
	if !snap.Flags.DirectUserMessages {
		return out
	}
	seen := make(map[string]bool)
	add := func(u tracker.UserRef) {
		if u.ID == actor.ID || u.Login == "" {
			return
		}
		ch := "@" + u.Login
		if !seen[ch] {
			seen[ch] = true
			out = append(out, ch)
		}
	}
	if rec.Assignee != nil {
		add(*rec.Assignee)
	}
	for _, w := range rec.Watchers {
		add(w)
	}
	return out
}
