// Package locale holds the label and headline-template catalogs. A Catalog
// is a plain value threaded explicitly through every formatting call; there
// is no process-wide locale switch.
package locale

import "strings"

// Catalog carries every user-visible label and template for one language.
// Headline templates use {name} placeholders expanded by Expand.
type Catalog struct {
	Tag string

	// Unset is the sentinel rendered for absent or unresolvable values.
	Unset string

	// Field labels.
	FieldStartDate      string
	FieldDueDate        string
	FieldEstimatedHours string
	FieldAssignee       string
	FieldDoneRatio      string
	FieldStatus         string
	FieldPriority       string
	FieldCategory       string
	FieldVersion        string
	FieldSubject        string
	FieldAttachment     string
	FieldNote           string
	FieldPrivateNote    string
	FieldChildIssue     string
	FieldHours          string
	FieldActivity       string
	FieldComments       string
	FieldSpentOn        string

	// Mention line labels (rendered as "<label>: <tokens>").
	AssigneeLine string
	WatcherLine  string

	// Headline templates.
	IssueCreated              string
	IssueUpdated              string
	ChildAdded                string
	RelationAdded             string
	TimeEntryCreated          string
	TimeEntryCreatedWithIssue string
	TimeEntryUpdated          string
	TimeEntryUpdatedWithIssue string

	// Relations maps a relation word from the journal to its label.
	// RelationDefault is used when the word is unknown.
	Relations       map[string]string
	RelationDefault string
}

// Japanese returns the default catalog. The strings match the messages the
// relay has historically posted.
func Japanese() Catalog {
	return Catalog{
		Tag:   "ja",
		Unset: "未設定",

		FieldStartDate:      "開始日",
		FieldDueDate:        "期日",
		FieldEstimatedHours: "予定工数",
		FieldAssignee:       "担当者",
		FieldDoneRatio:      "進捗率",
		FieldStatus:         "ステータス",
		FieldPriority:       "優先度",
		FieldCategory:       "カテゴリ",
		FieldVersion:        "対象バージョン",
		FieldSubject:        "題名",
		FieldAttachment:     "添付ファイル",
		FieldNote:           "コメント",
		FieldPrivateNote:    "プライベート注記",
		FieldChildIssue:     "子チケット",
		FieldHours:          "時間",
		FieldActivity:       "作業分類",
		FieldComments:       "コメント",
		FieldSpentOn:        "日付",

		AssigneeLine: "👤 担当者",
		WatcherLine:  "👁️ ウォッチャー",

		IssueCreated:              "{project} - {tracker} {link} が {user} によって作成されました。",
		IssueUpdated:              "{project} - {tracker} {link} が {user} によって更新されました。",
		ChildAdded:                "{project} - 親チケット {parent} に 子チケット {child} が {user} によって追加されました。",
		RelationAdded:             "{project} - {relation} {link} と {related} が {user} によって設定されました。",
		TimeEntryCreated:          "{project} に {user} が作業時間を記録しました。",
		TimeEntryCreatedWithIssue: "{project} - {issue} に {user} が作業時間を記録しました。",
		TimeEntryUpdated:          "{project} の作業時間が {user} によって更新されました。",
		TimeEntryUpdatedWithIssue: "{project} - {issue} の作業時間が {user} によって更新されました。",

		Relations: map[string]string{
			"relates":    "関連チケット",
			"related":    "関連チケット",
			"blocks":     "ブロックチケット",
			"blocked":    "ブロックチケット",
			"follows":    "後続チケット",
			"followed":   "後続チケット",
			"precedes":   "先行チケット",
			"duplicates": "重複チケット",
			"duplicated": "重複元チケット",
		},
		RelationDefault: "関連チケット",
	}
}

// English returns the English catalog.
func English() Catalog {
	return Catalog{
		Tag:   "en",
		Unset: "not set",

		FieldStartDate:      "Start date",
		FieldDueDate:        "Due date",
		FieldEstimatedHours: "Estimated time",
		FieldAssignee:       "Assignee",
		FieldDoneRatio:      "% Done",
		FieldStatus:         "Status",
		FieldPriority:       "Priority",
		FieldCategory:       "Category",
		FieldVersion:        "Target version",
		FieldSubject:        "Subject",
		FieldAttachment:     "Attachment",
		FieldNote:           "Comment",
		FieldPrivateNote:    "Private note",
		FieldChildIssue:     "Subtask",
		FieldHours:          "Hours",
		FieldActivity:       "Activity",
		FieldComments:       "Comment",
		FieldSpentOn:        "Date",

		AssigneeLine: "👤 Assignee",
		WatcherLine:  "👁️ Watchers",

		IssueCreated:              "[{project}] {tracker} {link} created by {user}",
		IssueUpdated:              "[{project}] {tracker} {link} updated by {user}",
		ChildAdded:                "[{project}] subtask {child} added to {parent} by {user}",
		RelationAdded:             "[{project}] {relation} set between {link} and {related} by {user}",
		TimeEntryCreated:          "[{project}] time logged by {user}",
		TimeEntryCreatedWithIssue: "[{project}] time logged on {issue} by {user}",
		TimeEntryUpdated:          "[{project}] time entry updated by {user}",
		TimeEntryUpdatedWithIssue: "[{project}] time entry on {issue} updated by {user}",

		Relations: map[string]string{
			"relates":    "Related issue",
			"related":    "Related issue",
			"blocks":     "Blocking issue",
			"blocked":    "Blocked issue",
			"follows":    "Following issue",
			"followed":   "Following issue",
			"precedes":   "Preceding issue",
			"duplicates": "Duplicate issue",
			"duplicated": "Duplicated issue",
		},
		RelationDefault: "Related issue",
	}
}

// ByTag returns the catalog for a language tag, defaulting to Japanese.
func ByTag(tag string) Catalog {
	if strings.EqualFold(tag, "en") {
		return English()
	}
	return Japanese()
}

// Relation returns the label for a relation word, case-insensitively,
// falling back to RelationDefault.
func (c Catalog) Relation(word string) string {
	if label, ok := c.Relations[strings.ToLower(word)]; ok {
		return label
	}
	return c.RelationDefault
}

// Expand substitutes {name} placeholders in a template. Unknown
// placeholders are left as-is.
func Expand(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
