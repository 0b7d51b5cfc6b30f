package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/recipe"
)

// --- Mocks ---
type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Tasty Recipe</h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix flour and water.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`
		w.Write([]byte(html))
	}))
	defer ts.Close()

	c := NewClipper(&MockTextGenerator{})

	cleanText, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(cleanText, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(cleanText, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(cleanText, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	if !strings.Contains(cleanText, "Tasty Recipe Mix flour and water.") {
		t.Errorf("Expected collapsed body content, got %q", cleanText)
	}
}

func TestFetchAndCleanHTML_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := NewClipper(&MockTextGenerator{}).fetchAndCleanHTML(context.Background(), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("Expected status 404 error, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	s := Summary(ClipResult{
		SourceURL: "http://test.com",
		Recipe: recipe.Recipe{
			Title: "Pancakes",
			Icon:  "🥞",
			Ingredients: []recipe.Ingredient{
				{Name: "Flour", Qty: 200, Unit: "g"},
				{Name: "Eggs", Qty: 2, Notes: "beaten"},
			},
		},
	})

	expectedSubstrings := []string{
		"🥞 Pancakes",
		"Imported from: http://test.com",
		"• 200 g Flour",
		"• 2 Eggs (beaten)",
	}
	for _, sub := range expectedSubstrings {
		if !strings.Contains(s, sub) {
			t.Errorf("Expected summary to contain '%s', got:\n%s", sub, s)
		}
	}
}

func TestClipURL_Success(t *testing.T) {
	aiResponse := "```json\n" + `{"title": "Mock Pie", "icon": "🥧", "ingredients": [{"name": "Apple", "qty": 4}]}` + "\n```"
	mockAI := &MockTextGenerator{Response: aiResponse}
	c := NewClipper(mockAI)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Some Content</body></html>"))
	}))
	defer ts.Close()

	res, err := c.ClipURL(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}

	if res.Recipe.Title != "Mock Pie" {
		t.Errorf("Expected title 'Mock Pie', got '%s'", res.Recipe.Title)
	}
	if len(res.Recipe.Ingredients) != 1 || res.Recipe.Ingredients[0].Qty != 4 {
		t.Errorf("Unexpected ingredients: %+v", res.Recipe.Ingredients)
	}
	if !strings.Contains(mockAI.Prompt, "Some Content") {
		t.Error("Expected page content to be sent to the model")
	}
}

func TestClipURL_NoRecipe(t *testing.T) {
	c := NewClipper(&MockTextGenerator{Response: `{"title": "", "ingredients": []}`})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>About us</body></html>"))
	}))
	defer ts.Close()

	if _, err := c.ClipURL(context.Background(), ts.URL); err == nil {
		t.Fatal("Expected an error for a page without a recipe")
	}
}
