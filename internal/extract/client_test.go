package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionHandler(t *testing.T, content string, inspect func(chatCompletionRequest)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req chatCompletionRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}
}

const carbonaraJSON = `{"title":"Pâtes carbonara","servings":"4 personnes",
"ingredients":[{"name":"spaghetti","quantity":"400","unit":"g"},{"name":" "}],
"steps":[{"instruction":"Cuire les pâtes","duration":"10 min"},
{"instruction":"Mélanger les jaunes et le parmesan","duration":"bientôt"},
{"instruction":"  "}]}`

func TestFromImage(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(completionHandler(t, "```json\n"+carbonaraJSON+"\n```", func(req chatCompletionRequest) {
		if req.Model != "vision-model" {
			t.Errorf("expected vision model, got %q", req.Model)
		}
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("expected json response format, got %v", req.ResponseFormat)
		}
		raw, _ := json.Marshal(req.Messages[1].Content)
		want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
		if !strings.Contains(string(raw), want) {
			t.Errorf("image data url missing from request: %s", raw)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "text-model", VisionModel: "vision-model"})
	recipe, err := client.FromImage(context.Background(), image, "image/PNG")
	if err != nil {
		t.Fatalf("FromImage returned error: %v", err)
	}
	if recipe.Title != "Pâtes carbonara" {
		t.Fatalf("unexpected title %q", recipe.Title)
	}
	if recipe.ID == "" {
		t.Fatal("expected generated id")
	}
	if recipe.Servings != 4 {
		t.Fatalf("expected 4 servings, got %d", recipe.Servings)
	}
	if len(recipe.Ingredients) != 1 {
		t.Fatalf("expected blank ingredient dropped, got %+v", recipe.Ingredients)
	}
	if len(recipe.Steps) != 2 {
		t.Fatalf("expected blank step dropped, got %+v", recipe.Steps)
	}
	if recipe.Steps[0].Duration != "10 min" {
		t.Fatalf("expected first step duration kept, got %q", recipe.Steps[0].Duration)
	}
	if recipe.Steps[1].Duration != "" {
		t.Fatalf("expected unparseable duration cleared, got %q", recipe.Steps[1].Duration)
	}
}

func TestFromImageRejectsInput(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:0"})

	if _, err := client.FromImage(context.Background(), nil, "image/png"); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := client.FromImage(context.Background(), []byte("x"), "application/pdf"); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestFromImageRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	if _, err := client.FromImage(context.Background(), []byte("x"), "image/jpeg"); !errors.Is(err, ErrAPIKeyRequired) {
		t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestFromImageNoRecipe(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, `{"title":"","steps":[]}`, nil))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
	if _, err := client.FromImage(context.Background(), []byte("x"), "image/jpeg"); !errors.Is(err, ErrNoRecipeFound) {
		t.Fatalf("expected ErrNoRecipeFound, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		completionHandler(t, carbonaraJSON, nil)(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "m"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetry(3, time.Second),
	)
	if _, err := client.FromImage(context.Background(), []byte("x"), "image/jpeg"); err != nil {
		t.Fatalf("FromImage returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("expected single sleep of 2s, got %v", slept)
	}
}

func TestClientBacksOffOnServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "m"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetry(3, time.Second),
	)
	_, err := client.FromImage(context.Background(), []byte("x"), "image/jpeg")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("expected 1s then 2s backoff, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"}, WithSleeper(func(time.Duration) {}))
	if _, err := client.FromImage(context.Background(), []byte("x"), "image/jpeg"); err == nil {
		t.Fatal("expected unauthorized error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain", content: `{"title":"a"}`},
		{name: "fenced", content: "```json\n{\"title\":\"a\"}\n```"},
		{name: "prose around", content: "Voici la recette : {\"title\":\"a\"} bon appétit"},
		{name: "empty", content: "  ", wantErr: true},
		{name: "garbage", content: "not json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Title string `json:"title"`
			}
			err := DecodeLLMJSON(tt.content, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Title != "a" {
				t.Fatalf("unexpected title %q", out.Title)
			}
		})
	}
}
