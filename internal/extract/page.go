package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gustalya/gustalya/internal/domain"
)

var ErrInvalidURL = errors.New("extract: invalid url")

// page is the useful part of a downloaded HTML document.
type page struct {
	Title  string
	Text   string
	LDJSON []string
}

func (c *Client) fetchPage(ctx context.Context, rawURL string) (*page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.cfg.MaxPageBytes)))
	if err != nil {
		return nil, fmt.Errorf("fetch page: read body: %w", err)
	}
	return parsePage(body)
}

var skippedText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Iframe:   true,
	atom.Template: true,
	atom.Form:     true,
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Ul: true, atom.Ol: true,
}

func parsePage(body []byte) (*page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	p := &page{}
	var text strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.DataAtom == atom.Title && p.Title == "":
				p.Title = strings.TrimSpace(nodeText(n))
				return
			case n.DataAtom == atom.Script && attr(n, "type") == "application/ld+json":
				p.LDJSON = append(p.LDJSON, nodeText(n))
				return
			case skippedText[n.DataAtom]:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				text.WriteString(t)
				text.WriteByte(' ')
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			text.WriteByte('\n')
		}
	}
	walk(doc)

	p.Text = collapseLines(text.String())
	return p, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return ""
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// schema.org Recipe, only the fields cooking mode uses.
type ldRecipe struct {
	Type         json.RawMessage `json:"@type"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     json.RawMessage `json:"recipeCategory"`
	Yield        json.RawMessage `json:"recipeYield"`
	Ingredients  []string        `json:"recipeIngredient"`
	Instructions json.RawMessage `json:"recipeInstructions"`
}

type ldInstruction struct {
	Type            string          `json:"@type"`
	Text            string          `json:"text"`
	Name            string          `json:"name"`
	ItemListElement json.RawMessage `json:"itemListElement"`
}

func (p *page) structuredRecipe() (*domain.Recipe, bool) {
	for _, block := range p.LDJSON {
		for _, candidate := range ldCandidates([]byte(block)) {
			var r ldRecipe
			if err := json.Unmarshal(candidate, &r); err != nil || !hasType(r.Type, "Recipe") {
				continue
			}
			steps := ldSteps(r.Instructions)
			ingredients := make([]domain.Ingredient, 0, len(r.Ingredients))
			for _, line := range r.Ingredients {
				ingredients = append(ingredients, domain.Ingredient{Name: html.UnescapeString(line)})
			}
			recipe, err := buildRecipe(html.UnescapeString(r.Name), html.UnescapeString(r.Description),
				firstString(r.Category), parseServings(firstRaw(r.Yield)), ingredients, steps)
			if err != nil {
				continue
			}
			return recipe, true
		}
	}
	return nil, false
}

// ldCandidates flattens the shapes sites use: a single object, an array of
// objects, or an object holding an @graph.
func ldCandidates(data []byte) []json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		var out []json.RawMessage
		for _, item := range items {
			out = append(out, ldCandidates(item)...)
		}
		return out
	}
	var graph struct {
		Graph []json.RawMessage `json:"@graph"`
	}
	if err := json.Unmarshal(data, &graph); err == nil && len(graph.Graph) > 0 {
		return graph.Graph
	}
	return []json.RawMessage{data}
}

func hasType(raw json.RawMessage, want string) bool {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single == want
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, t := range many {
			if t == want {
				return true
			}
		}
	}
	return false
}

func ldSteps(raw json.RawMessage) []domain.Step {
	if len(raw) == 0 {
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		var steps []domain.Step
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				steps = append(steps, stepFromText(line))
			}
		}
		return steps
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var steps []domain.Step
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			steps = append(steps, stepFromText(s))
			continue
		}
		var in ldInstruction
		if err := json.Unmarshal(item, &in); err != nil {
			continue
		}
		if in.Type == "HowToSection" {
			steps = append(steps, ldSteps(in.ItemListElement)...)
			continue
		}
		if in.Text != "" {
			steps = append(steps, stepFromText(in.Text))
		} else if in.Name != "" {
			steps = append(steps, stepFromText(in.Name))
		}
	}
	return steps
}

// stepDuration finds a duration with an explicit unit inside an instruction.
// Bare numbers are ignored: "préchauffer à 180" is not a timer.
var stepDuration = regexp.MustCompile(`\d+(?:[.,]\d+)?(?:\s*/\s*\d+)?\s*(?:(?:-|a|to)\s*\d+\s*)?(?:heures?|hours?|h\d*|minutes?|mins?|mn|secondes?|seconds?|sec)\b`)

func stepFromText(text string) domain.Step {
	text = strings.TrimSpace(html.UnescapeString(text))
	step := domain.Step{Instruction: text}
	if m := stepDuration.FindString(domain.Fold(text)); m != "" {
		step.Duration = m
	}
	return step
}

func firstString(raw json.RawMessage) string {
	raw = firstRaw(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func firstRaw(raw json.RawMessage) json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		if len(items) == 0 {
			return nil
		}
		return items[0]
	}
	return raw
}
