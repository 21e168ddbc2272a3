package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAITranslatorReturnsRawCompletion(t *testing.T) {
	var gotPath string
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Errorf("model = %v", payload["model"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "```sql\nSELECT 1\n```"}},
			},
		})
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{
		BaseURL: server.URL,
		APIKey:  "k",
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}

	result, err := translator.Translate(context.Background(), Request{Question: "how many students", Dialect: "sqlite"})
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer k" {
		t.Fatalf("auth = %q", gotAuth)
	}
	// The completion must come back untouched; fence handling belongs to the gate.
	if result.SQL != "```sql\nSELECT 1\n```" {
		t.Fatalf("sql = %q", result.SQL)
	}
	if result.Provider != "openai-compatible" || result.Model != "test-model" {
		t.Fatalf("provenance = %q/%q", result.Provider, result.Model)
	}
}

func TestOpenAITranslatorSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	if _, err := translator.Translate(context.Background(), Request{Question: "q"}); err == nil {
		t.Fatal("expected error from 503 response")
	}
}

func TestOllamaTranslatorReturnsRawCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["stream"] != false {
			t.Errorf("stream = %v", payload["stream"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"content": "SELECT COUNT(*) FROM STUDENT"},
		})
	}))
	defer server.Close()

	translator, err := NewOllamaTranslator(OllamaConfig{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	result, err := translator.Translate(context.Background(), Request{Question: "count students", Dialect: "sqlite"})
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if result.SQL != "SELECT COUNT(*) FROM STUDENT" {
		t.Fatalf("sql = %q", result.SQL)
	}
	if result.Provider != "ollama" {
		t.Fatalf("provider = %q", result.Provider)
	}
}

func TestTranslatorConstructorsValidate(t *testing.T) {
	if _, err := NewOpenAITranslator(OpenAIConfig{APIKey: "k", Model: "m"}); err == nil {
		t.Fatal("missing base URL accepted")
	}
	if _, err := NewOpenAITranslator(OpenAIConfig{BaseURL: "http://x", Model: "m"}); err == nil {
		t.Fatal("missing api key accepted")
	}
	if _, err := NewOllamaTranslator(OllamaConfig{BaseURL: "http://x"}); err == nil {
		t.Fatal("missing model accepted")
	}
}

func TestUserPromptCarriesSchemaAndQuestion(t *testing.T) {
	prompt, err := buildUserPrompt(Request{
		Question: "who has the best marks",
		Dialect:  "sqlite",
		Tables:   []TableContext{{TableName: "STUDENT", Columns: []string{"NAME", "MARKS"}}},
	})
	if err != nil {
		t.Fatalf("build prompt failed: %v", err)
	}
	for _, want := range []string{"sqlite", "STUDENT", "MARKS", "who has the best marks"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q: %s", want, prompt)
		}
	}
}
