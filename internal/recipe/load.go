// Package recipe loads recipe input from files. Storage, scraping and
// structured recipe formats live outside this system; the loader only
// produces the ordered instruction list the extractor consumes.
package recipe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/kbenzar/stovewatch/internal/domain"
)

// stepPrefixRe strips leading enumeration like "3." or "2)" from plain
// text steps.
var stepPrefixRe = regexp.MustCompile(`(?i)^\s*(?:step\s+)?\d+[.):]\s*`)

// Load reads a recipe from path. ".json" files use the domain.Recipe
// shape; anything else is treated as plain text with one instruction
// per line. A missing id gets a generated one so persisted timer keys
// still have a namespace.
func Load(path string) (domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("reading recipe: %w", err)
	}

	var r domain.Recipe
	if strings.EqualFold(filepath.Ext(path), ".json") {
		r, err = ParseJSON(data)
	} else {
		r = ParseText(string(data))
	}
	if err != nil {
		return domain.Recipe{}, err
	}

	if r.Title == "" {
		r.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r, nil
}

// ParseJSON decodes the JSON recipe shape.
func ParseJSON(data []byte) (domain.Recipe, error) {
	var r domain.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Recipe{}, fmt.Errorf("parsing recipe json: %w", err)
	}
	if r.CookTimeMinutes < 0 {
		r.CookTimeMinutes = 0
	}
	return r, nil
}

// ParseText turns plain text into a recipe: one instruction per
// non-empty line, enumeration prefixes removed. A leading "# Title"
// line becomes the title.
func ParseText(text string) domain.Recipe {
	var r domain.Recipe
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r.Title == "" && len(r.Steps) == 0 && strings.HasPrefix(line, "#") {
			r.Title = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		r.Steps = append(r.Steps, stepPrefixRe.ReplaceAllString(line, ""))
	}
	return r
}
