// ABOUTME: OpenAI Chat Completions completer
// ABOUTME: Converts the transcript to chat params and reads the choice back

package engine

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o"

type openaiCompleter struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func newOpenAICompleter(apiKey, model string, maxTokens int) *openaiCompleter {
	if model == "" {
		model = defaultOpenAIModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &openaiCompleter{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (p *openaiCompleter) Provider() string {
	return "openai"
}

func (p *openaiCompleter) complete(ctx context.Context, messages []Message, tools []ToolSpec, system string) (*completion, error) {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		converted = append(converted, openai.SystemMessage(system))
	}
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			if len(m.ToolCalls) > 0 {
				toolCalls := make([]openai.ChatCompletionMessageToolCall, 0, len(m.ToolCalls))
				for _, tc := range m.ToolCalls {
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCall{
						ID:   tc.ID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunction{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					})
				}
				assistant := openai.ChatCompletionMessage{
					Role:      "assistant",
					Content:   m.Content,
					ToolCalls: toolCalls,
				}
				converted = append(converted, assistant.ToParam())
			} else {
				converted = append(converted, openai.AssistantMessage(m.Content))
			}
		case "tool":
			converted = append(converted, openai.ToolMessage(m.ToolCallID, m.Content))
		default:
			converted = append(converted, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(p.model),
		Messages:  converted,
		MaxTokens: openai.Int(p.maxTokens),
	}
	if len(tools) > 0 {
		converted := make([]openai.ChatCompletionToolParam, 0, len(tools))
		for _, spec := range tools {
			converted = append(converted, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        spec.Name,
					Description: openai.String(spec.Description),
					Parameters:  openai.FunctionParameters(spec.InputSchema),
				},
			})
		}
		params.Tools = converted
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: no choices returned")
	}

	choice := resp.Choices[0].Message
	result := &completion{
		Content: choice.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.ToolCalls {
		result.Calls = append(result.Calls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}
