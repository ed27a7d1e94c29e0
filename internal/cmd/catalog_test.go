package cmd

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/convlog/internal/promptdb"
)

func exchangeStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeLog(t, dir, convID+".jsonl", base,
		`{"id":"ex-1","conversation_id":"`+convID+`","prompt_version_id":"v1","model_name":"gpt-4o","latency_ms":100,"input_tokens":10,"output_tokens":20,"input_messages":[{"role":"user","content":"hi"}],"output_response":"hello","error":null,"timestamp":"2025-03-01T12:00:01Z"}`,
		`{"id":"ex-2","conversation_id":"`+convID+`","prompt_version_id":"v2","model_name":"gpt-4o","latency_ms":300,"input_tokens":30,"output_tokens":40,"input_messages":"again","output_response":"","error":"timeout","timestamp":"2025-03-01T12:00:02Z"}`,
	)
	return dir
}

func TestExchangesStats(t *testing.T) {
	dir := exchangeStore(t)

	out, _, err := run(t, "exchanges", "stats", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall Statistics:")
	assert.Contains(t, out, "200 ms")
	assert.Contains(t, out, "50.0% (1 errors)")
}

func TestExchangesEmpty(t *testing.T) {
	out, _, err := run(t, "exchanges", "stats", "--dir", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Contains(t, out, "No exchanges logged yet.")

	out, _, err = run(t, "exchanges", "list", "--dir", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Contains(t, out, "No logs directory found.")

	out, _, err = run(t, "exchanges", "list", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation logs found.")
}

func TestExchangesStatsByVersion(t *testing.T) {
	dir := exchangeStore(t)

	out, _, err := run(t, "exchanges", "stats-by-version", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "v2")
	assert.Contains(t, out, "100.0%")
}

func TestExchangesConversation(t *testing.T) {
	dir := exchangeStore(t)

	out, _, err := run(t, "exchanges", "conversation", convID, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Exchange 1")
	assert.Contains(t, out, "--- Exchange 2")
	assert.Contains(t, out, "ERROR: timeout")
	assert.Contains(t, out, `"content":"hi"`)

	out, _, err = run(t, "exchanges", "conversation", otherConv, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No exchanges found for conversation: "+otherConv)
}

func TestExchangesRecent(t *testing.T) {
	dir := exchangeStore(t)

	out, _, err := run(t, "exchanges", "recent", "1", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Recent 1 Exchanges:")
	assert.Contains(t, out, "ex-2")
	assert.NotContains(t, out, "ex-1")

	_, _, err = run(t, "exchanges", "recent", "many", "--dir", dir)
	require.Error(t, err)
}

func TestExchangesList(t *testing.T) {
	dir := exchangeStore(t)

	out, _, err := run(t, "exchanges", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Conversations (1 total):")
	assert.Contains(t, out, convID)
}

func TestPromptsWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "prompts.db")
	content := filepath.Join(t.TempDir(), "system.txt")
	require.NoError(t, os.WriteFile(content, []byte("You are a careful code reviewer."), 0644))

	out, _, err := run(t, "prompts", "init", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized successfully.")

	out, _, err = run(t, "prompts", "add-prompt", "reviewer", "Reviews generated code", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Prompt created: reviewer")

	out, _, err = run(t, "prompts", "add-version", "reviewer", "1.0", content, "--db", db)
	require.NoError(t, err)
	m := regexp.MustCompile(`\(ID: ([^)]+)\)`).FindStringSubmatch(out)
	require.Len(t, m, 2)
	versionID := m[1]

	out, _, err = run(t, "prompts", "disable", versionID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	out, _, err = run(t, "prompts", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "0/1 enabled")

	out, _, err = run(t, "prompts", "list-versions", "reviewer", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "DISABLED")

	out, _, err = run(t, "prompts", "show", versionID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "You are a careful code reviewer.")

	_, _, err = run(t, "prompts", "add-prompt", "reviewer", "again", "--db", db)
	assert.ErrorIs(t, err, promptdb.ErrPromptExists)

	_, _, err = run(t, "prompts", "enable", "missing", "--db", db)
	assert.ErrorIs(t, err, promptdb.ErrVersionNotFound)
}

func TestGuardrailsInit(t *testing.T) {
	db := filepath.Join(t.TempDir(), "guardrails.db")

	out, _, err := run(t, "guardrails", "init", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 guardrails for 'code-execution' pipeline")

	out, _, err = run(t, "guardrails", "init", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline 'code-execution' already exists, skipping seed")
	assert.Contains(t, out, "Guardrails:")
}
