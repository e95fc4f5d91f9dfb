package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gustalya/gustalya/internal/domain"
)

var (
	ErrEmptyImage       = errors.New("extract: empty image")
	ErrUnsupportedImage = errors.New("extract: unsupported image type")
	ErrNoRecipeFound    = errors.New("extract: no recipe found")
	ErrEmptyPage        = errors.New("extract: page has no readable text")
)

const maxPromptTextRunes = 24000

const recipeSystemPrompt = `You extract cooking recipes. Answer with a single JSON object and nothing else:
{"title": string, "description": string, "servings": number, "category": string,
 "ingredients": [{"name": string, "quantity": string, "unit": string}],
 "steps": [{"instruction": string, "duration": string}]}
Keep the language of the source. "duration" is the cooking or resting time the step
mentions, written like "10 min" or "1 h 30"; leave it empty when the step has none.
If the input does not contain a recipe answer {"title": "", "steps": []}.`

var supportedImageMimes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var fenceStart = regexp.MustCompile("^```[a-zA-Z]*\\s*")

// llmRecipe mirrors the JSON the model is asked for. Servings is kept loose
// because models sometimes answer "4 personnes".
type llmRecipe struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Servings    json.RawMessage     `json:"servings"`
	Ingredients []domain.Ingredient `json:"ingredients"`
	Steps       []domain.Step       `json:"steps"`
}

// FromImage extracts a recipe from a photo of a recipe card or cookbook page.
func (c *Client) FromImage(ctx context.Context, data []byte, mime string) (*domain.Recipe, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if !supportedImageMimes[mime] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, mime)
	}

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	messages := []chatMessage{
		{Role: "system", Content: recipeSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Extract the recipe shown in this picture."},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		}},
	}

	content, err := c.complete(ctx, c.cfg.VisionModel, messages)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(content)
}

// FromURL downloads a recipe page. A schema.org Recipe embedded in the page
// wins; otherwise the visible text is handed to the model.
func (c *Client) FromURL(ctx context.Context, rawURL string) (*domain.Recipe, error) {
	page, err := c.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if recipe, ok := page.structuredRecipe(); ok {
		return recipe, nil
	}

	text := page.Text
	if text == "" {
		return nil, ErrEmptyPage
	}
	if runes := []rune(text); len(runes) > maxPromptTextRunes {
		text = string(runes[:maxPromptTextRunes])
	}

	var prompt strings.Builder
	prompt.WriteString("Extract the recipe from this web page.\n")
	if page.Title != "" {
		fmt.Fprintf(&prompt, "Page title: %s\n", page.Title)
	}
	prompt.WriteString("Page text:\n")
	prompt.WriteString(text)

	messages := []chatMessage{
		{Role: "system", Content: recipeSystemPrompt},
		{Role: "user", Content: prompt.String()},
	}
	content, err := c.complete(ctx, c.cfg.Model, messages)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(content)
}

func decodeRecipe(content string) (*domain.Recipe, error) {
	var raw llmRecipe
	if err := DecodeLLMJSON(content, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Title) == "" && len(raw.Steps) == 0 {
		return nil, ErrNoRecipeFound
	}
	return buildRecipe(raw.Title, raw.Description, raw.Category, parseServings(raw.Servings), raw.Ingredients, raw.Steps)
}

func buildRecipe(title, description, category string, servings int, ingredients []domain.Ingredient, steps []domain.Step) (*domain.Recipe, error) {
	cleanSteps := make([]domain.Step, 0, len(steps))
	for _, step := range steps {
		step.Instruction = strings.TrimSpace(step.Instruction)
		step.Duration = strings.TrimSpace(step.Duration)
		if step.Instruction == "" {
			continue
		}
		// Drop durations cooking mode would not understand.
		if _, ok := step.Seconds(); !ok {
			step.Duration = ""
		}
		cleanSteps = append(cleanSteps, step)
	}

	recipe := domain.NewRecipe("", "", title, cleanSteps)
	recipe.Description = strings.TrimSpace(description)
	recipe.Category = strings.TrimSpace(category)
	recipe.Servings = servings
	for _, ing := range ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ing.Quantity = strings.TrimSpace(ing.Quantity)
		ing.Unit = strings.TrimSpace(ing.Unit)
		recipe.Ingredients = append(recipe.Ingredients, ing)
	}

	if err := recipe.Validate(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return recipe, nil
}

var leadingDigits = regexp.MustCompile(`\d+`)

func parseServings(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, _ := strconv.Atoi(leadingDigits.FindString(s))
		return n
	}
	return 0
}

// DecodeLLMJSON unmarshals model output, tolerating code fences and prose
// around the JSON object.
func DecodeLLMJSON(content string, target any) error {
	cleaned := sanitizeJSONPayload(content)
	if cleaned == "" {
		return errors.New("extract: empty model response")
	}
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("extract: decode model response: %w (payload: %s)", err, snippet(cleaned))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = fenceStart.ReplaceAllString(s, "")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

func snippet(s string) string {
	const limit = 120
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
