// ABOUTME: Scriptable mock completer for tests and offline development
// ABOUTME: YAML rules match user input and script deltas, tool calls, and failures

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// mockScript is the YAML shape of a mock rule file.
type mockScript struct {
	Rules []mockRule `yaml:"rules"`
}

// mockRule answers user turns whose text contains Match. An empty Match is
// a catch-all. FinalContent answers the follow-up round after scripted tool
// calls are resolved.
type mockRule struct {
	Match        string         `yaml:"match"`
	Content      string         `yaml:"content"`
	ChunkSize    int            `yaml:"chunk_size"`
	ToolCalls    []mockToolCall `yaml:"tool_calls"`
	FinalContent string         `yaml:"final_content"`
	Usage        *mockUsage     `yaml:"usage"`
	FailWith     string         `yaml:"fail_with"`
}

type mockToolCall struct {
	Name      string `yaml:"name"`
	Arguments string `yaml:"arguments"`
}

type mockUsage struct {
	InputTokens  int64 `yaml:"input_tokens"`
	OutputTokens int64 `yaml:"output_tokens"`
}

type mockCompleter struct {
	rules []mockRule
	seq   atomic.Int64
}

// newMockCompleter loads rules from path. An empty path yields a pure echo
// engine that never requests tools.
func newMockCompleter(path string) (*mockCompleter, error) {
	if path == "" {
		return &mockCompleter{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var script mockScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &mockCompleter{rules: script.Rules}, nil
}

func (p *mockCompleter) Provider() string {
	return "mock"
}

func (p *mockCompleter) complete(_ context.Context, messages []Message, _ []ToolSpec, _ string) (*completion, error) {
	lastUser := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			lastUser = messages[i].Content
			break
		}
	}
	resuming := len(messages) > 0 && messages[len(messages)-1].Role == "tool"

	rule, matched := p.match(lastUser)
	if !matched {
		content := fmt.Sprintf("You said: %s", lastUser)
		return &completion{Content: content, Usage: p.usageFor(nil, messages, content)}, nil
	}
	if rule.FailWith != "" {
		return nil, errors.New(rule.FailWith)
	}

	if resuming {
		content := rule.FinalContent
		if content == "" {
			content = rule.Content
		}
		return &completion{
			Content:   content,
			ChunkSize: rule.ChunkSize,
			Usage:     p.usageFor(rule, messages, content),
		}, nil
	}

	result := &completion{
		Content:   rule.Content,
		ChunkSize: rule.ChunkSize,
		Usage:     p.usageFor(rule, messages, rule.Content),
	}
	for _, tc := range rule.ToolCalls {
		args := tc.Arguments
		if args == "" {
			args = "{}"
		}
		result.Calls = append(result.Calls, ToolCall{
			ID:        fmt.Sprintf("mock-%s-%d", tc.Name, p.seq.Add(1)),
			Name:      tc.Name,
			Arguments: args,
		})
	}
	return result, nil
}

// match returns the first rule whose Match substring occurs in the text.
func (p *mockCompleter) match(text string) (*mockRule, bool) {
	for i := range p.rules {
		if p.rules[i].Match == "" || strings.Contains(text, p.rules[i].Match) {
			return &p.rules[i], true
		}
	}
	return nil, false
}

func (p *mockCompleter) usageFor(rule *mockRule, messages []Message, content string) Usage {
	if rule != nil && rule.Usage != nil {
		return Usage{InputTokens: rule.Usage.InputTokens, OutputTokens: rule.Usage.OutputTokens}
	}
	var input int64
	for _, m := range messages {
		input += heuristicTokens(m.Content)
	}
	return Usage{InputTokens: input, OutputTokens: heuristicTokens(content)}
}

func heuristicTokens(s string) int64 {
	return int64(len(s)+3) / 4
}
