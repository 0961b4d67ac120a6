package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"costlens/internal/dto"
	"costlens/internal/models"
	"costlens/internal/repository"

	"go.uber.org/zap"
)

var ErrEmptyQuestion = errors.New("no question provided")

const (
	noMatchingDataAnswer = "I couldn't find any data matching your question."
	askErrorPrefix       = "I encountered an error while processing your question: "

	summaryFullRows    = 10
	summaryPreviewRows = 5
)

// QueryWorkspace is the part of the workspace the assistant reads from.
type QueryWorkspace interface {
	Schema(ctx context.Context) (map[string][]models.ColumnInfo, error)
	Query(ctx context.Context, query string) (*models.QueryResult, error)
	Dialect() repository.Dialect
}

// AssistantService answers free-text questions about the cost data. With an
// LLM configured it translates the question to SQL over the workspace;
// otherwise it falls back to the keyword responder.
type AssistantService struct {
	llm       LLM
	workspace QueryWorkspace
	responder *Responder
	logger    *zap.Logger
}

func NewAssistantService(llm LLM, workspace QueryWorkspace, responder *Responder, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		llm:       llm,
		workspace: workspace,
		responder: responder,
		logger:    logger,
	}
}

// Ask returns ErrEmptyQuestion for a blank question. Pipeline failures are
// reported in the response with Success false, not as an error.
func (s *AssistantService) Ask(ctx context.Context, question string) (*dto.AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	if s.llm == nil {
		answer, err := s.responder.Respond(ctx, question)
		if err != nil {
			return nil, err
		}
		return &dto.AskResponse{Success: true, Question: question, Response: answer}, nil
	}

	resp, err := s.answerWithSQL(ctx, question)
	if err != nil {
		s.logger.Warn("Failed to answer question", zap.String("question", question), zap.Error(err))
		return FailedAnswer(question, err), nil
	}
	return resp, nil
}

// FailedAnswer renders err the way /ask reports pipeline failures.
func FailedAnswer(question string, err error) *dto.AskResponse {
	return &dto.AskResponse{
		Success:  false,
		Question: question,
		Error:    err.Error(),
		Response: askErrorPrefix + err.Error(),
	}
}

func (s *AssistantService) answerWithSQL(ctx context.Context, question string) (*dto.AskResponse, error) {
	sqlQuery, err := s.generateSQL(ctx, question)
	if err != nil {
		return nil, err
	}

	result, err := s.workspace.Query(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}

	answer, err := s.summarize(ctx, question, sqlQuery, result)
	if err != nil {
		return nil, err
	}

	rowCount := result.RowCount
	s.logger.Info("Question answered",
		zap.String("sql", sqlQuery),
		zap.Int("row_count", rowCount),
	)
	return &dto.AskResponse{
		Success:  true,
		Question: question,
		Response: answer,
		SQLQuery: sqlQuery,
		Results:  result.Results,
		RowCount: &rowCount,
	}, nil
}

func (s *AssistantService) generateSQL(ctx context.Context, question string) (string, error) {
	schema, err := s.workspace.Schema(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}

	system := buildSQLSystemPrompt(s.workspace.Dialect(), describeSchema(schema))
	content, err := s.llm.Complete(ctx, system, "Generate SQL query for: "+question)
	if err != nil {
		return "", err
	}

	sqlQuery := stripCodeFences(content)
	if sqlQuery == "" {
		return "", ErrEmptyCompletion
	}
	return sqlQuery, nil
}

func (s *AssistantService) summarize(ctx context.Context, question, sqlQuery string, result *models.QueryResult) (string, error) {
	if result.RowCount == 0 {
		return noMatchingDataAnswer, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query executed: %s\n", sqlQuery)
	fmt.Fprintf(&b, "Number of results: %d\n", result.RowCount)

	rows := result.Results
	label := "Results"
	if len(rows) > summaryFullRows {
		rows = rows[:summaryPreviewRows]
		label = "First 5 results"
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	fmt.Fprintf(&b, "%s: %s", label, data)

	prompt := fmt.Sprintf("Original question: %s\n\n%s\n\nPlease provide a natural language response answering the user's question based on this data.", question, b.String())
	return s.llm.Complete(ctx, summarySystemPrompt, prompt)
}

func describeSchema(schema map[string][]models.ColumnInfo) string {
	tables := make([]string, 0, len(schema))
	for table := range schema {
		tables = append(tables, table)
	}
	slices.Sort(tables)

	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		var b strings.Builder
		fmt.Fprintf(&b, "Table: %s\nColumns:\n", table)
		for _, col := range schema[table] {
			fmt.Fprintf(&b, "  - %s (%s)\n", col.Name, col.Type)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

func buildSQLSystemPrompt(dialect repository.Dialect, schema string) string {
	name := "SQLite"
	if dialect == repository.DialectPostgres {
		name = "PostgreSQL"
	}

	return fmt.Sprintf(`You are an expert SQL query generator. Given a database schema and a natural language question, generate a valid %[1]s SELECT query.

Database Schema:
%[2]s
CRITICAL RULES:
1. Only generate SELECT queries
2. Use proper %[1]s syntax
3. Include appropriate WHERE, GROUP BY, ORDER BY clauses as needed
4. Return only the SQL query, no explanations
5. Use table and column names EXACTLY as they appear in the schema, including forward slashes and special characters
6. Column names with forward slashes (/) or other special characters must be enclosed in double quotes, e.g. "lineItem/UnblendedCost"
7. The processed_cost_data table holds normalized records (date, service, region, cost, resource_id, tags); prefer it for cost questions
8. For aggregations, use appropriate functions like COUNT, SUM, AVG, MAX, MIN, etc.
9. Handle case-insensitive text searches with LOWER() function
10. When looking for highest cost, use ORDER BY cost DESC LIMIT 1

Examples:
- For highest cost: SELECT * FROM processed_cost_data ORDER BY cost DESC LIMIT 1
- For cost by service: SELECT service, SUM(cost) AS total FROM processed_cost_data GROUP BY service ORDER BY total DESC
- For raw report columns: SELECT "lineItem/ProductCode", SUM("lineItem/UnblendedCost") FROM cost_data GROUP BY "lineItem/ProductCode"
`, name, schema)
}

const summarySystemPrompt = `You are a helpful data analyst. Given a user's question and the results from a database query, provide a clear, concise natural language response that answers their question.

Rules:
1. Be conversational and helpful
2. Summarize key findings from the data
3. If there are many results, provide highlights or patterns
4. Use specific numbers and data points when relevant
5. Keep the response focused on answering the original question
`
