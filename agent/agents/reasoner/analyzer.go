package reasoner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/krzycho/dbagent/agent/contract"
)

// sqlAnalyzer derives a SQL query from table DDL. It talks to the
// completion API directly: the output is raw SQL text, not a structured
// message, so the graph pipeline would add nothing here.
type sqlAnalyzer struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
}

func NewAnalyzer(client *openaisdk.Client, model, systemPrompt string) (contractx.Analyzer, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: analyzer model is required", contractx.ErrValidation)
	}
	return &sqlAnalyzer{
		client:       client,
		model:        model,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}, nil
}

func (a *sqlAnalyzer) Analyze(ctx context.Context, tableStructures map[string]string, taskDescription string) (string, error) {
	if len(tableStructures) == 0 {
		return "", fmt.Errorf("%w: no table structures to analyze", contractx.ErrValidation)
	}

	var b strings.Builder
	b.WriteString("Given the following database structure:\n\n")
	for _, table := range sortedTables(tableStructures) {
		fmt.Fprintf(&b, "-- %s\n%s\n\n", table, tableStructures[table])
	}
	b.WriteString("Create the SQL query that solves this task:\n")
	b.WriteString(strings.TrimSpace(taskDescription))
	b.WriteString("\n\nReturn only the SQL query, nothing else.")

	completion, err := a.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(a.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(a.systemPrompt),
			openaisdk.UserMessage(b.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: analyzer completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: analyzer returned no choices", contractx.ErrModelInvoke)
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func sortedTables(structures map[string]string) []string {
	tables := make([]string, 0, len(structures))
	for table := range structures {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}
