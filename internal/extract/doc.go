// Package extract turns a photo of a recipe card or a recipe web page into a
// domain.Recipe.
//
// Web pages carrying a schema.org Recipe in JSON-LD are decoded directly.
// Everything else goes through an OpenAI-compatible chat completion endpoint
// asked to answer with the recipe JSON shape used across the application:
//
//	{"title": "...", "ingredients": [{"name": "...", "quantity": "..."}],
//	 "steps": [{"instruction": "...", "duration": "10 min"}]}
//
// Step durations stay human strings; cooking mode parses them later.
package extract
