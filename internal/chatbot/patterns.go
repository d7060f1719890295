// Package chatbot implements the rule-based shopping assistant: intent
// classification, search parameter extraction and reply rendering.
//
// Everything in this package is a pure function of its input text. The
// pattern table is compiled once and never mutated afterwards, so a single
// Classifier or Extractor may be shared by any number of goroutines.
package chatbot

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"shopassist/internal/model"

	"gopkg.in/yaml.v3"
)

// Attribute pattern names
const (
	AttrPriceRange = "price_range"
	AttrMaxPrice   = "max_price"
	AttrMinPrice   = "min_price"
	AttrBrand      = "brand"
	AttrCategory   = "category"
	AttrProductID  = "product_id"
)

var requiredAttributes = []string{
	AttrPriceRange,
	AttrMaxPrice,
	AttrMinPrice,
	AttrBrand,
	AttrCategory,
	AttrProductID,
}

// classifiable intents, "other" is only ever the fallback
var knownIntents = map[model.Intent]bool{
	model.IntentGreeting:   true,
	model.IntentSearch:     true,
	model.IntentFilter:     true,
	model.IntentDetails:    true,
	model.IntentComparison: true,
	model.IntentHelp:       true,
}

//go:embed patterns.yaml
var defaultPatterns []byte

// IntentPatterns is one intent with its patterns in declared order
type IntentPatterns struct {
	Intent   model.Intent
	Patterns []*regexp.Regexp
}

// PatternTable holds the compiled intent and attribute patterns
type PatternTable struct {
	intents    []IntentPatterns
	attributes map[string]*regexp.Regexp
}

type patternFile struct {
	Intents []struct {
		Intent   string   `yaml:"intent"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"intents"`
	Attributes map[string]string `yaml:"attributes"`
}

// LoadPatternTable parses and compiles a YAML pattern document
func LoadPatternTable(data []byte) (*PatternTable, error) {
	var doc patternFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pattern table: %w", err)
	}
	if len(doc.Intents) == 0 {
		return nil, fmt.Errorf("pattern table declares no intents")
	}

	table := &PatternTable{
		intents:    make([]IntentPatterns, 0, len(doc.Intents)),
		attributes: make(map[string]*regexp.Regexp, len(doc.Attributes)),
	}

	seen := make(map[model.Intent]bool)
	for _, def := range doc.Intents {
		intent := model.Intent(def.Intent)
		if !knownIntents[intent] {
			return nil, fmt.Errorf("unknown intent %q in pattern table", def.Intent)
		}
		if seen[intent] {
			return nil, fmt.Errorf("intent %q declared twice", def.Intent)
		}
		seen[intent] = true
		if len(def.Patterns) == 0 {
			return nil, fmt.Errorf("intent %q has no patterns", def.Intent)
		}

		entry := IntentPatterns{Intent: intent}
		for _, expr := range def.Patterns {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("intent %q: invalid pattern %q: %w", def.Intent, expr, err)
			}
			entry.Patterns = append(entry.Patterns, re)
		}
		table.intents = append(table.intents, entry)
	}

	for _, name := range requiredAttributes {
		expr, ok := doc.Attributes[name]
		if !ok || expr == "" {
			return nil, fmt.Errorf("missing attribute pattern %q", name)
		}
	}
	for name, expr := range doc.Attributes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: invalid pattern %q: %w", name, expr, err)
		}
		table.attributes[name] = re
	}

	return table, nil
}

var (
	defaultTableOnce sync.Once
	defaultTable     *PatternTable
	defaultTableErr  error
)

// DefaultPatternTable returns the built-in table, compiled on first use
func DefaultPatternTable() (*PatternTable, error) {
	defaultTableOnce.Do(func() {
		defaultTable, defaultTableErr = LoadPatternTable(defaultPatterns)
	})
	return defaultTable, defaultTableErr
}

// MustDefaultPatternTable is like DefaultPatternTable but panics on error
func MustDefaultPatternTable() *PatternTable {
	table, err := DefaultPatternTable()
	if err != nil {
		panic(err)
	}
	return table
}

// Intents returns the intents in priority order
func (t *PatternTable) Intents() []IntentPatterns {
	out := make([]IntentPatterns, len(t.intents))
	copy(out, t.intents)
	return out
}

// Attribute returns the compiled attribute pattern with the given name
func (t *PatternTable) Attribute(name string) *regexp.Regexp {
	return t.attributes[name]
}
