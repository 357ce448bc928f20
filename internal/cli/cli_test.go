// internal/cli/cli_test.go
package docqa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/docqa/internal/appconfig"
	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/providerfactory"
	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/tui"
	"github.com/mwiater/docqa/internal/vectorstore/memory"
)

const testDim = 8

// testModel embeds by hashing words into testDim buckets and answers with the
// number of context lines it was given.
type testModel struct{}

func (testModel) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, testDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		vec[h.Sum32()%testDim]++
	}
	return vec, nil
}

func (testModel) Dimension() int { return testDim }
func (testModel) Name() string   { return "test" }

func (testModel) Generate(_ context.Context, contextText, question string) (string, error) {
	lines := strings.Count(contextText, "\n")
	return fmt.Sprintf("answered %q from %d context lines", question, lines), nil
}

// setupCLI writes a config file, points the command tree at an in-memory
// store shared across invocations and returns the config path.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`logFile: %s
provider:
  type: ollama
  apiKey: sk-secret-value-1234
vectorStore:
  type: memory
  collection: test_docs
  vectorSize: %d
  distance: cosine
`, filepath.Join(dir, "docqa.log"), testDim)
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := memory.New(rag.CollectionConfig{Name: "test_docs", VectorSize: testDim, Distance: "Cosine"})
	if err != nil {
		t.Fatal(err)
	}
	origBuild := buildComponents
	buildComponents = func(cfg appconfig.Config) (*providerfactory.Components, error) {
		return providerfactory.Assemble(cfg, testModel{}, testModel{}, store), nil
	}
	t.Cleanup(func() {
		buildComponents = origBuild
		currentConfig = nil
		_ = logging.Close()
	})
	return cfgPath
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	askJSON = false
	dropConfirmed = false
	dumpConfig = false
	forceConfig = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestIngestThenAsk(t *testing.T) {
	cfgPath := setupCLI(t)
	doc := filepath.Join(t.TempDir(), "refunds.txt")
	if err := os.WriteFile(doc, []byte("Refunds are issued within five business days of approval."), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(t, "ingest", doc, "--config", cfgPath)
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK") || !strings.Contains(out, "Indexed 1 of 1 files") {
		t.Fatalf("unexpected ingest output:\n%s", out)
	}

	out, err = executeCommand(t, "ask", "When", "are", "refunds", "issued?", "--json", "--config", cfgPath)
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	var answer rag.Answer
	if err := json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &answer); err != nil {
		t.Fatalf("decode answer: %v\n%s", err, out)
	}
	if len(answer.Sources) != 1 || answer.Sources[0] != "refunds.txt" {
		t.Fatalf("expected refunds.txt as the only source, got %v", answer.Sources)
	}
	if !strings.Contains(answer.Answer, "1 context lines") {
		t.Fatalf("expected the chunk to reach the generator, got %q", answer.Answer)
	}

	out, err = executeCommand(t, "collection", "info", "--config", cfgPath)
	if err != nil {
		t.Fatalf("collection info: %v", err)
	}
	if !strings.Contains(out, "Points:      1") {
		t.Fatalf("expected one point:\n%s", out)
	}
}

func TestIngestReportsUnsupportedFiles(t *testing.T) {
	cfgPath := setupCLI(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "notes.md")
	bad := filepath.Join(dir, "table.csv")
	_ = os.WriteFile(good, []byte("# Notes\nShipping is free over fifty dollars."), 0o600)
	_ = os.WriteFile(bad, []byte("a,b,c"), 0o600)

	out, err := executeCommand(t, "ingest", good, bad, "--config", cfgPath)
	if err == nil {
		t.Fatalf("expected an error when one file fails")
	}
	if !strings.Contains(out, "FAILED") || !strings.Contains(out, "unsupported file format") {
		t.Fatalf("expected unsupported format failure:\n%s", out)
	}
	if !strings.Contains(out, "Indexed 1 of 2 files") {
		t.Fatalf("expected the supported file to be indexed:\n%s", out)
	}
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	cfgPath := setupCLI(t)
	_, err := executeCommand(t, "ask", "   ", "--config", cfgPath)
	if !errors.Is(err, rag.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestPreviewPrintsRetrieval(t *testing.T) {
	cfgPath := setupCLI(t)
	out, err := executeCommand(t, "preview", "anything", "--config", cfgPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "[RAG] Preview query: anything") || !strings.Contains(out, "[RAG] hits: 0") {
		t.Fatalf("unexpected preview output:\n%s", out)
	}
}

func TestCollectionDropRequiresConfirmation(t *testing.T) {
	cfgPath := setupCLI(t)
	if _, err := executeCommand(t, "collection", "drop", "--config", cfgPath); err == nil {
		t.Fatalf("expected drop without --yes to fail")
	}
	out, err := executeCommand(t, "collection", "drop", "--yes", "--config", cfgPath)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if !strings.Contains(out, `dropped collection "test_docs"`) {
		t.Fatalf("unexpected drop output:\n%s", out)
	}
}

func TestShowConfigMasksSecrets(t *testing.T) {
	cfgPath := setupCLI(t)
	out, err := executeCommand(t, "show", "config", "--config", cfgPath)
	if err != nil {
		t.Fatalf("show config: %v", err)
	}
	if !strings.Contains(out, "test_docs") || !strings.Contains(out, "Config file: "+cfgPath) {
		t.Fatalf("expected collection and config path:\n%s", out)
	}
	if strings.Contains(out, "sk-secret-value-1234") {
		t.Fatalf("api key leaked:\n%s", out)
	}
}

func TestMissingExplicitConfigFails(t *testing.T) {
	setupCLI(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := executeCommand(t, "show", "config", "--config", missing); err == nil {
		t.Fatalf("expected an error for a missing explicit config file")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if _, err := executeCommand(t, "config", "init", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.Contains(string(data), "collection: company_knowledge") {
		t.Fatalf("template missing defaults:\n%s", data)
	}

	if _, err := executeCommand(t, "config", "init", path); !errors.Is(err, appconfig.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if _, err := executeCommand(t, "config", "init", path, "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
}

func TestChatCmdPassesSession(t *testing.T) {
	cfgPath := setupCLI(t)
	var got tui.Session
	orig := runChatUI
	runChatUI = func(_ context.Context, asker tui.Answerer, session tui.Session) error {
		if asker == nil {
			t.Fatalf("expected an asker")
		}
		got = session
		return nil
	}
	t.Cleanup(func() { runChatUI = orig })

	if _, err := executeCommand(t, "chat", "--config", cfgPath); err != nil {
		t.Fatalf("chat: %v", err)
	}
	want := tui.Session{Provider: "ollama", ChatModel: "llama3.2", Store: "memory", Collection: "test_docs", TopK: 5}
	if got != want {
		t.Fatalf("session = %+v, want %+v", got, want)
	}
}

func TestListCommands(t *testing.T) {
	out, err := executeCommand(t, "list", "commands")
	if err != nil {
		t.Fatalf("list commands: %v", err)
	}
	for _, want := range []string{"docqa serve", "docqa collection drop", "docqa config init"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}
}
