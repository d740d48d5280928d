package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maqsadm/maqsadm/pkg/entity"
)

// Replies default to Uzbek, the app's primary locale.
const (
	LangUzbek   = "uz"
	LangEnglish = "en"
)

func normalizeLang(lang string) string {
	if lang == LangEnglish {
		return LangEnglish
	}
	return LangUzbek
}

func languageInstruction(lang string) string {
	if normalizeLang(lang) == LangEnglish {
		return "Answer in English."
	}
	return "Javobni o'zbek tilida yozing (answer in Uzbek)."
}

func analysisSystemPrompt(lang string) string {
	return "You are a motivational coach inside MaqsadM, a goal-tracking app. " +
		"You get a user's goals and a summary of their recent task completions. " +
		"Write a short, warm, concrete motivational analysis (3-5 sentences): acknowledge progress, " +
		"point out one thing to improve, and encourage tomorrow's work. No lists, no headings. " +
		languageInstruction(lang)
}

func assistantSystemPrompt(lang string) string {
	return "You are a task-creation assistant inside MaqsadM, a goal-tracking app. " +
		"Help the user define one personal task: a title, an optional description, a coin reward " +
		"between 1 and 1000, and a schedule that is either one_time (a single date) or recurring " +
		"(a set of weekdays). Ask short follow-up questions until you know everything, then call " +
		"the create_task tool exactly once. Never invent values the user did not give or agree to. " +
		"After the tool result, confirm to the user what was created. " +
		languageInstruction(lang)
}

func chatSystemPrompt(lang string) string {
	return "You are a productivity coach inside MaqsadM, a goal-tracking app. " +
		"Answer questions about habits, focus and planning. When the user's own tasks matter for " +
		"the answer, call the list_tasks tool to read what is due today before answering. " +
		"Keep answers short and practical. " +
		languageInstruction(lang)
}

// summarizeCompletions renders a bounded plain-text digest of recent activity
// for the analysis prompt. Input is capped so the prompt stays small.
func summarizeCompletions(records []entity.CompletionRecord) string {
	const maxRecords = 50
	if len(records) > maxRecords {
		records = records[:maxRecords]
	}
	if len(records) == 0 {
		return "No tasks completed in the period."
	}
	var coins int64
	days := make(map[string]int)
	for _, rec := range records {
		coins += int64(rec.CoinsAwarded)
		days[rec.CompletionDate.Format("2006-01-02")]++
	}
	ordered := make([]string, 0, len(days))
	for day := range days {
		ordered = append(ordered, day)
	}
	// chronological, the prompt must be stable for identical history
	sort.Strings(ordered)
	var b strings.Builder
	fmt.Fprintf(&b, "Completed %d tasks over %d active days, earned %d coins.\n", len(records), len(days), coins)
	for _, day := range ordered {
		fmt.Fprintf(&b, "- %s: %d tasks\n", day, days[day])
	}
	return b.String()
}

func summarizeTaskList(tasks []entity.TaskWithStatus, date time.Time) string {
	if len(tasks) == 0 {
		return fmt.Sprintf("No tasks due on %s.", date.Format("2006-01-02"))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tasks due on %s:\n", date.Format("2006-01-02"))
	for _, t := range tasks {
		status := "pending"
		if t.IsCompleted {
			status = "done"
		}
		fmt.Fprintf(&b, "- %s (%d coins, %s, %s)\n", t.Task.Title, t.Task.Coins, t.Task.Scope, status)
	}
	return b.String()
}

func fallbackConfirmation(lang string, task *entity.Task) string {
	if normalizeLang(lang) == LangEnglish {
		return fmt.Sprintf("Task %q created, %d coins per completion.", task.Title, task.Coins)
	}
	return fmt.Sprintf("%q vazifasi yaratildi, har bajarilganda %d tanga.", task.Title, task.Coins)
}
