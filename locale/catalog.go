// Package locale holds the phrase catalogs spoken by the conversation core.
//
// A catalog file is YAML with a language code and a map of phrase ids. An
// entry is either a single string or a list; Text picks one list item at
// random so repeated prompts vary.
//
//	code: en
//	lang:
//	  "yes": ["yes", "yeah"]
//	  not_understood: "Sorry, I didn't understand '{input}'"
package locale

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed en.yaml
var defaultEnglish []byte

// File is the on-disk shape of a catalog.
type File struct {
	Code string             `yaml:"code"`
	Lang map[string]Entries `yaml:"lang"`
}

// Entries is a phrase entry. It decodes from either a YAML scalar or a
// sequence of scalars.
type Entries []string

func (e *Entries) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*e = Entries{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*e = items
		return nil
	default:
		return fmt.Errorf("line %d: phrase must be a string or a list of strings", node.Line)
	}
}

// Catalog maps phrase ids to one or more phrasings for a single language.
// Safe for concurrent use.
type Catalog struct {
	code    string
	mu      sync.RWMutex
	entries map[string][]string
	pick    func(n int) int
}

// New returns an empty catalog for the language code.
func New(code string) *Catalog {
	return &Catalog{
		code:    code,
		entries: make(map[string][]string),
		pick:    rand.IntN,
	}
}

// Default returns a fresh copy of the built-in English catalog.
func Default() *Catalog {
	c, err := Parse(defaultEnglish)
	if err != nil {
		panic(fmt.Sprintf("locale: embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if f.Code == "" {
		return nil, ErrMissingCode
	}

	c := New(f.Code)
	for id, values := range f.Lang {
		c.Set(id, values...)
	}
	return c, nil
}

// Code returns the language code.
func (c *Catalog) Code() string {
	return c.code
}

// WithPicker replaces the random index source used by Text. Intended for
// tests that need a deterministic phrasing.
func (c *Catalog) WithPicker(pick func(n int) int) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pick = pick
	return c
}

// Set replaces the phrasings for id. Empty strings are dropped; an empty
// list removes the entry.
func (c *Catalog) Set(id string, values ...string) {
	values = slices.DeleteFunc(slices.Clone(values), func(s string) bool { return s == "" })

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(values) == 0 {
		delete(c.entries, id)
		return
	}
	c.entries[id] = values
}

// Merge copies every entry of other into c, overriding ids present in both.
// The language code of c is kept.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	other.mu.RLock()
	copied := make(map[string][]string, len(other.entries))
	for id, values := range other.entries {
		copied[id] = slices.Clone(values)
	}
	other.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, values := range copied {
		c.entries[id] = values
	}
}

// Has reports whether id is defined.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// Text returns one phrasing for id, chosen at random when the entry is a
// list.
func (c *Catalog) Text(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values, ok := c.entries[id]
	if !ok {
		return "", false
	}
	if len(values) == 1 {
		return values[0], true
	}
	return values[c.pick(len(values))], true
}

// List returns every phrasing for id. Validators use it to build keyword
// sets such as "yes" and "none".
func (c *Catalog) List(id string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.entries[id])
}

// IDs returns all phrase ids in sorted order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Resolve returns a phrasing for idOrText when it names an entry and the
// argument itself otherwise. A nil catalog resolves everything literally.
func (c *Catalog) Resolve(idOrText string) string {
	if c == nil {
		return idOrText
	}
	if text, ok := c.Text(idOrText); ok {
		return text
	}
	return idOrText
}

// Format resolves idOrText and substitutes {name} placeholders from args.
// Unknown placeholders are left in place.
func (c *Catalog) Format(idOrText string, args map[string]string) string {
	text := c.Resolve(idOrText)
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, 2*len(args))
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
