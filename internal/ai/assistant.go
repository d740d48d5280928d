package ai

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	errorvalues "github.com/maqsadm/maqsadm/internal/error_values"
	"github.com/maqsadm/maqsadm/internal/service"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

// FlowState is where a task-creation conversation currently stands. The flow
// is an explicit state machine instead of branching on whether a tool call
// happened to be present in a response.
type FlowState string

const (
	// StateGathering: the model still collects task details from the user
	StateGathering FlowState = "gathering"
	// StateToolInvocationPending: the model asked for create_task, arguments
	// are being validated and executed. Transient, never returned to clients
	StateToolInvocationPending FlowState = "tool_invocation_pending"
	// StateConfirmed: the task exists, reply carries the confirmation
	StateConfirmed FlowState = "confirmed"
	// StateFailed: tool arguments were unusable, reply explains why
	StateFailed FlowState = "failed"
)

// Message is one turn of the client-held transcript.
type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// FlowResult is the assistant's answer for one request of the flow.
type FlowResult struct {
	State FlowState    `json:"state"`
	Reply string       `json:"reply"`
	Task  *entity.Task `json:"task,omitempty"`
}

// TaskAPI is the slice of the task service the assistant needs.
type TaskAPI interface {
	CreateTask(ctx context.Context, creatorID uuid.UUID, req *service.CreateTaskRequest) (*entity.Task, error)
	TasksForUser(ctx context.Context, userID uuid.UUID, date time.Time) ([]entity.TaskWithStatus, error)
}

type Assistant struct {
	model llms.Model
	tasks TaskAPI
}

func NewAssistant(model llms.Model, tasks TaskAPI) *Assistant {
	if model == nil || tasks == nil {
		log.Fatal("on ai assistant provided nil model or task api")
	}
	return &Assistant{
		model: model,
		tasks: tasks,
	}
}

// TaskFlow advances the task-creation conversation by one request. The
// transcript is client-held: every call carries the prior messages, the
// server keeps no conversation state.
func (a *Assistant) TaskFlow(ctx context.Context, userID uuid.UUID, history []Message, lang string) (*FlowResult, error) {
	content := transcript(assistantSystemPrompt(lang), history)
	resp, err := a.model.GenerateContent(ctx, content, llms.WithTools([]llms.Tool{createTaskTool}))
	if err != nil {
		return nil, errors.Join(errorvalues.ErrAIUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errorvalues.ErrAIUnavailable
	}
	choice := resp.Choices[0]
	if len(choice.ToolCalls) == 0 {
		return &FlowResult{
			State: StateGathering,
			Reply: choice.Content,
		}, nil
	}

	// StateToolInvocationPending from here on
	call := choice.ToolCalls[0]
	if call.FunctionCall == nil || call.FunctionCall.Name != createTaskToolName {
		return &FlowResult{
			State: StateFailed,
			Reply: "unexpected tool requested by model: " + call.Type,
		}, nil
	}
	var args createTaskArgs
	if err = sonic.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
		return &FlowResult{
			State: StateFailed,
			Reply: "could not parse task details: " + err.Error(),
		}, nil
	}
	req, err := args.toRequest()
	if err != nil {
		return &FlowResult{
			State: StateFailed,
			Reply: err.Error(),
		}, nil
	}
	task, err := a.tasks.CreateTask(ctx, userID, req)
	if err != nil {
		return &FlowResult{
			State: StateFailed,
			Reply: "creating task failed: " + err.Error(),
		}, nil
	}

	reply, err := a.confirm(ctx, content, call, task, lang)
	if err != nil {
		// The task already exists, a lost confirmation must not report failure
		reply = fallbackConfirmation(lang, task)
	}
	return &FlowResult{
		State: StateConfirmed,
		Reply: reply,
		Task:  task,
	}, nil
}

// confirm feeds the tool result back and asks the model for the wrap-up text.
func (a *Assistant) confirm(ctx context.Context, content []llms.MessageContent, call llms.ToolCall, task *entity.Task, lang string) (string, error) {
	taskJSON, err := sonic.Marshal(task)
	if err != nil {
		return "", err
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
				Name:       createTaskToolName,
				Content:    string(taskJSON),
			}},
		},
	)
	resp, err := a.model.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", errors.New("empty confirmation from model")
	}
	return resp.Choices[0].Content, nil
}

func (args createTaskArgs) toRequest() (*service.CreateTaskRequest, error) {
	req := service.CreateTaskRequest{
		Title:       args.Title,
		Description: args.Description,
		Coins:       args.Coins,
		Scope:       entity.ScopePersonal,
	}
	switch entity.ScheduleKind(args.ScheduleKind) {
	case entity.ScheduleOneTime:
		date, err := time.Parse("2006-01-02", args.Date)
		if err != nil {
			return nil, errors.New("invalid task date: " + args.Date)
		}
		req.Schedule = entity.Schedule{
			Kind: entity.ScheduleOneTime,
			Date: date,
		}
	case entity.ScheduleRecurring:
		var days entity.Weekdays
		for _, name := range args.Days {
			d, err := entity.ParseWeekday(name)
			if err != nil {
				return nil, err
			}
			days |= entity.WeekdaysOf(d)
		}
		if days.Empty() {
			return nil, errorvalues.ErrInvalidSchedule
		}
		req.Schedule = entity.Schedule{
			Kind: entity.ScheduleRecurring,
			Days: days,
		}
	default:
		return nil, errors.New("unknown schedule kind: " + args.ScheduleKind)
	}
	return &req, nil
}

func transcript(systemPrompt string, history []Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(history)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, msg.Text))
	}
	return content
}
