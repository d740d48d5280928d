package ai

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

// maxToolRounds bounds how many times one chat request may loop through
// tool resolution before the model must answer in text.
const maxToolRounds = 3

// Chat answers a productivity question, letting the model read the user's
// tasks due today through the list_tasks tool when it decides it needs them.
func (a *Assistant) Chat(ctx context.Context, userID uuid.UUID, history []Message, lang string) (string, error) {
	content := transcript(chatSystemPrompt(lang), history)
	for range maxToolRounds {
		resp, err := a.model.GenerateContent(ctx, content, llms.WithTools([]llms.Tool{listTasksTool}))
		if err != nil {
			return "", errors.Join(errorvalues.ErrAIUnavailable, err)
		}
		if len(resp.Choices) == 0 {
			return "", errorvalues.ErrAIUnavailable
		}
		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}
		for _, call := range choice.ToolCalls {
			if call.FunctionCall == nil || call.FunctionCall.Name != listTasksToolName {
				continue
			}
			today := time.Now()
			tasks, err := a.tasks.TasksForUser(ctx, userID, today)
			result := summarizeTaskList(tasks, today)
			if err != nil {
				result = "task list unavailable: " + err.Error()
			}
			content = append(content,
				llms.MessageContent{
					Role:  llms.ChatMessageTypeAI,
					Parts: []llms.ContentPart{call},
				},
				llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{llms.ToolCallResponse{
						ToolCallID: call.ID,
						Name:       listTasksToolName,
						Content:    result,
					}},
				},
			)
		}
	}
	return "", errors.New("model kept requesting tools, giving up")
}

// Analyze produces a short motivational write-up from the user's goals and
// their recent completion history. The history digest is bounded so the
// prompt stays small regardless of how active the user is.
func (a *Assistant) Analyze(ctx context.Context, user *entity.User, records []entity.CompletionRecord, lang string) (string, error) {
	goals := user.Goals
	if goals == "" {
		goals = "(user has not written down goals yet)"
	}
	prompt := "User goals:\n" + goals + "\n\nRecent activity:\n" + summarizeCompletions(records)
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, analysisSystemPrompt(lang)),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := a.model.GenerateContent(ctx, content)
	if err != nil {
		return "", errors.Join(errorvalues.ErrAIUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", errorvalues.ErrAIUnavailable
	}
	return resp.Choices[0].Content, nil
}
