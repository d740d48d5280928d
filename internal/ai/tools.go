package ai

import (
	"github.com/tmc/langchaingo/llms"
)

const (
	createTaskToolName = "create_task"
	listTasksToolName  = "list_tasks"
)

var createTaskTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        createTaskToolName,
		Description: "Create a personal task for the current user once all details are known.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Short task title",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Optional longer description",
				},
				"coins": map[string]any{
					"type":        "integer",
					"description": "Coin reward per completion, 1 to 1000",
				},
				"schedule_kind": map[string]any{
					"type": "string",
					"enum": []string{"one_time", "recurring"},
				},
				"date": map[string]any{
					"type":        "string",
					"description": "Due date YYYY-MM-DD, required for one_time",
				},
				"days": map[string]any{
					"type":        "array",
					"description": "Weekday names, required non-empty for recurring",
					"items":       map[string]any{"type": "string"},
				},
			},
			"required": []string{"title", "coins", "schedule_kind"},
		},
	},
}

var listTasksTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        listTasksToolName,
		Description: "List the current user's tasks due today with completion state.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

type createTaskArgs struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Coins        int      `json:"coins"`
	ScheduleKind string   `json:"schedule_kind"`
	Date         string   `json:"date"`
	Days         []string `json:"days"`
}
