package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Kondo2021/redmine-messenger/internal/domain/locale"
	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
	"github.com/Kondo2021/redmine-messenger/internal/port/settings"
)

type stubDir struct {
	names  map[string]string
	users  map[string]tracker.UserRef
	issues map[int64]*tracker.Issue
}

func (d stubDir) DisplayName(_ context.Context, kind tracker.RefKind, id string) (string, bool) {
	v, ok := d.names[string(kind)+":"+id]
	return v, ok
}

func (d stubDir) User(_ context.Context, id string) (tracker.UserRef, bool) {
	u, ok := d.users[id]
	return u, ok
}

func (d stubDir) Issue(_ context.Context, id int64) (*tracker.Issue, bool) {
	iss, ok := d.issues[id]
	return iss, ok
}

func (d stubDir) CustomField(context.Context, string) (tracker.CustomFieldDef, bool) {
	return tracker.CustomFieldDef{}, false
}

func (d stubDir) CustomOption(context.Context, string, string) (string, bool) { return "", false }

func newComposer(dir tracker.Directory) *Composer {
	return &Composer{Dir: dir, Labels: locale.Japanese()}
}

func configuredSnap() *settings.Project {
	return &settings.Project{
		ProjectID: 1,
		Channels:  []string{"#dev"},
		Webhook:   settings.Target{URL: "https://hooks.example", Kind: "slack"},
		Flags: settings.Flags{
			PostUpdates:           true,
			NewIncludeDescription: true,
		},
	}
}

func sampleIssue() *tracker.Issue {
	return &tracker.Issue{
		ID:          7,
		Project:     tracker.ProjectRef{ID: 1, Identifier: "relay", Name: "Relay"},
		Tracker:     "Bug",
		Subject:     "broken thing",
		Description: "it broke",
		Author:      tracker.UserRef{ID: 3, Login: "alice", Name: "Alice"},
		URL:         "https://tracker.example/issues/7",
	}
}

func TestIssueCreated(t *testing.T) {
	c := newComposer(stubDir{})
	rec := c.IssueCreated(context.Background(), sampleIssue(), configuredSnap())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !strings.Contains(rec.Headline, "<https://tracker.example/issues/7|broken thing>") {
		t.Errorf("headline = %q", rec.Headline)
	}
	if !strings.Contains(rec.Headline, "Alice") {
		t.Errorf("headline missing actor: %q", rec.Headline)
	}
	if rec.Body != "it broke" {
		t.Errorf("body = %q", rec.Body)
	}

	// Without the flag the description stays out.
	snap := configuredSnap()
	snap.Flags.NewIncludeDescription = false
	rec = c.IssueCreated(context.Background(), sampleIssue(), snap)
	if rec.Body != "" {
		t.Errorf("body = %q, want empty", rec.Body)
	}
}

func TestIssueCreatedGates(t *testing.T) {
	c := newComposer(stubDir{})
	issue := sampleIssue()

	if rec := c.IssueCreated(context.Background(), issue, nil); rec != nil {
		t.Error("unconfigured project should compose nothing")
	}

	snap := configuredSnap()
	snap.Channels = nil
	if rec := c.IssueCreated(context.Background(), issue, snap); rec != nil {
		t.Error("no channels should compose nothing")
	}

	snap = configuredSnap()
	snap.Webhook.URL = ""
	if rec := c.IssueCreated(context.Background(), issue, snap); rec != nil {
		t.Error("no webhook URL should compose nothing")
	}

	private := sampleIssue()
	private.IsPrivate = true
	if rec := c.IssueCreated(context.Background(), private, configuredSnap()); rec != nil {
		t.Error("private issue should be gated by default")
	}
	snap = configuredSnap()
	snap.Flags.PostPrivateIssues = true
	if rec := c.IssueCreated(context.Background(), private, snap); rec == nil {
		t.Error("private issue should pass with the flag on")
	}
}

func TestIssueCreatedSnapshotFields(t *testing.T) {
	c := newComposer(stubDir{})
	issue := sampleIssue()
	issue.DueDate = "2024-04-01"
	issue.EstimatedHours = 1.5
	issue.Status = "New"
	issue.DoneRatio = 0
	issue.Attachments = []tracker.Attachment{{Filename: "log.txt", URL: "https://tracker.example/attachments/1"}}

	rec := c.IssueCreated(context.Background(), issue, configuredSnap())
	if rec == nil {
		t.Fatal("expected a record")
	}

	byName := map[string]string{}
	for _, f := range rec.Fields {
		byName[f.Name] = f.Value
	}
	if byName["期日"] != "2024/04/01" {
		t.Errorf("due date = %q", byName["期日"])
	}
	if byName["予定工数"] != "1:30" {
		t.Errorf("estimated hours = %q", byName["予定工数"])
	}
	if byName["ステータス"] != "New" {
		t.Errorf("status = %q", byName["ステータス"])
	}
	if _, ok := byName["進捗率"]; ok {
		t.Error("zero done ratio should not appear")
	}
	if byName["添付ファイル"] != "<https://tracker.example/attachments/1|log.txt>" {
		t.Errorf("attachment = %q", byName["添付ファイル"])
	}
}

func TestIssueUpdatedFields(t *testing.T) {
	dir := stubDir{names: map[string]string{"status:1": "New", "status:2": "Closed"}}
	c := newComposer(dir)

	cs := tracker.ChangeSet{
		ID:    99,
		Actor: tracker.UserRef{ID: 3, Login: "alice", Name: "Alice"},
		Changes: []tracker.FieldChange{
			{Property: tracker.PropertyAttribute, Key: "status_id", Old: "1", New: "2"},
			{Property: tracker.PropertyAttribute, Key: "lft", Old: "1", New: "3"},
		},
		Notes: "closing this",
	}

	rec := c.IssueUpdated(context.Background(), sampleIssue(), cs, configuredSnap())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !strings.Contains(rec.Headline, "#change-99") {
		t.Errorf("headline should anchor the journal: %q", rec.Headline)
	}
	if len(rec.Fields) != 2 {
		t.Fatalf("fields = %+v", rec.Fields)
	}
	if rec.Fields[0].Value != "New → Closed" {
		t.Errorf("status field = %q", rec.Fields[0].Value)
	}
	if rec.Fields[1].Name != "コメント" || rec.Fields[1].Value != "closing this" || !rec.Fields[1].Wide {
		t.Errorf("note field = %+v", rec.Fields[1])
	}
}

func TestIssueUpdatedGates(t *testing.T) {
	c := newComposer(stubDir{})
	cs := tracker.ChangeSet{ID: 99, Actor: tracker.UserRef{ID: 3}, Notes: "hi"}

	snap := configuredSnap()
	snap.Flags.PostUpdates = false
	if rec := c.IssueUpdated(context.Background(), sampleIssue(), cs, snap); rec != nil {
		t.Error("post_updates off should compose nothing")
	}

	private := cs
	private.PrivateNotes = true
	if rec := c.IssueUpdated(context.Background(), sampleIssue(), private, configuredSnap()); rec != nil {
		t.Error("private note should be gated by default")
	}
	snap = configuredSnap()
	snap.Flags.PostPrivateNotes = true
	rec := c.IssueUpdated(context.Background(), sampleIssue(), private, snap)
	if rec == nil {
		t.Fatal("private note should pass with the flag on")
	}
	last := rec.Fields[len(rec.Fields)-1]
	if last.Name != "プライベート注記" {
		t.Errorf("missing private indicator, fields = %+v", rec.Fields)
	}
}

func TestIssueUpdatedDescriptionBody(t *testing.T) {
	c := newComposer(stubDir{})
	cs := tracker.ChangeSet{
		ID:    99,
		Actor: tracker.UserRef{ID: 3},
		Changes: []tracker.FieldChange{
			{Property: tracker.PropertyAttribute, Key: "description", Old: "old", New: "new text"},
		},
		Notes: "rewrote it",
	}

	// Flag off: no body, and the description change surfaces no field.
	rec := c.IssueUpdated(context.Background(), sampleIssue(), cs, configuredSnap())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Body != "" {
		t.Errorf("body = %q", rec.Body)
	}
	if len(rec.Fields) != 1 {
		t.Errorf("fields = %+v", rec.Fields)
	}

	snap := configuredSnap()
	snap.Flags.UpdatedIncludeDescription = true
	rec = c.IssueUpdated(context.Background(), sampleIssue(), cs, snap)
	if rec.Body != "new text" {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestChildAddedUsesParentConfiguration(t *testing.T) {
	c := newComposer(stubDir{})
	child := sampleIssue()
	parent := &tracker.Issue{
		ID:      42,
		Project: tracker.ProjectRef{ID: 2, Identifier: "platform", Name: "Platform"},
		Subject: "umbrella",
		URL:     "https://tracker.example/issues/42",
	}
	parentSnap := &settings.Project{
		ProjectID: 2,
		Channels:  []string{"#platform"},
		Webhook:   settings.Target{URL: "https://hooks.example/platform"},
		Flags:     settings.Flags{PostUpdates: true},
	}

	rec := c.ChildAdded(context.Background(), child, parent, child.Author, parentSnap)
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Project.ID != 2 {
		t.Errorf("record project = %d, want parent project", rec.Project.ID)
	}
	if rec.Channels[0] != "#platform" {
		t.Errorf("channels = %v, want parent channels", rec.Channels)
	}
	if !strings.Contains(rec.Headline, "umbrella") || !strings.Contains(rec.Headline, "broken thing") {
		t.Errorf("headline = %q", rec.Headline)
	}
	if rec.Fields[0].Value != "#7 broken thing" {
		t.Errorf("child field = %q", rec.Fields[0].Value)
	}
}

func TestDirectUserMessageChannels(t *testing.T) {
	c := newComposer(stubDir{})
	issue := sampleIssue()
	issue.Assignee = &tracker.UserRef{ID: 5, Login: "bob"}
	issue.Watchers = []tracker.UserRef{
		{ID: 3, Login: "alice"},
		{ID: 6, Login: "carol"},
	}

	snap := configuredSnap()
	snap.Flags.DirectUserMessages = true

	rec := c.IssueCreated(context.Background(), issue, snap)
	if rec == nil {
		t.Fatal("expected a record")
	}

	got := strings.Join(rec.Channels, " ")
	if !strings.Contains(got, "#dev") || !strings.Contains(got, "@bob") || !strings.Contains(got, "@carol") {
		t.Errorf("channels = %v", rec.Channels)
	}
	// The author does not get a direct message about their own change.
	if strings.Contains(got, "@alice") {
		t.Errorf("actor received a direct message: %v", rec.Channels)
	}
}

func TestTimeEntryLogged(t *testing.T) {
	c := newComposer(stubDir{})
	te := &tracker.TimeEntry{
		ID:       5,
		Project:  tracker.ProjectRef{ID: 1, Identifier: "relay", Name: "Relay"},
		User:     tracker.UserRef{ID: 3, Login: "alice", Name: "Alice"},
		Hours:    1.5,
		Activity: "Development",
		SpentOn:  "2024-03-05",
	}

	snap := configuredSnap()
	if rec := c.TimeEntryLogged(context.Background(), te, true, snap); rec != nil {
		t.Error("post_time_entries off should compose nothing")
	}

	snap.Flags.PostTimeEntries = true
	rec := c.TimeEntryLogged(context.Background(), te, true, snap)
	if rec == nil {
		t.Fatal("expected a record")
	}
	byName := map[string]string{}
	for _, f := range rec.Fields {
		byName[f.Name] = f.Value
	}
	if byName["時間"] != "1.5" {
		t.Errorf("hours = %q", byName["時間"])
	}
	if byName["作業分類"] != "Development" {
		t.Errorf("activity = %q", byName["作業分類"])
	}
	if byName["日付"] != "2024-03-05" {
		t.Errorf("spent on = %q", byName["日付"])
	}

	// Updates need their own flag.
	if rec := c.TimeEntryLogged(context.Background(), te, false, snap); rec != nil {
		t.Error("post_time_entry_updates off should compose nothing")
	}
	snap.Flags.PostTimeEntryUpdates = true
	if rec := c.TimeEntryLogged(context.Background(), te, false, snap); rec == nil {
		t.Error("update should compose with the flag on")
	}
}

func TestTimeEntryLinkedIssueHeadline(t *testing.T) {
	c := newComposer(stubDir{})
	te := &tracker.TimeEntry{
		ID:      5,
		Project: tracker.ProjectRef{ID: 1, Name: "Relay"},
		Issue:   sampleIssue(),
		User:    tracker.UserRef{ID: 3, Name: "Alice"},
		Hours:   2,
		SpentOn: "2024-03-05",
	}
	snap := configuredSnap()
	snap.Flags.PostTimeEntries = true

	rec := c.TimeEntryLogged(context.Background(), te, true, snap)
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !strings.Contains(rec.Headline, "<https://tracker.example/issues/7|broken thing>") {
		t.Errorf("headline = %q", rec.Headline)
	}
}
