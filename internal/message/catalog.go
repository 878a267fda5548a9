// internal/message/catalog.go
package message

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

// Message numbers emitted by the gateway
const (
	InternalError       = "ZWEAG100E"
	MethodNotSupported  = "ZWEAG101E"
	ProviderUnavailable = "ZWEAG104E"
	InvalidCredentials  = "ZWEAG120E"
	InvalidInput        = "ZWEAG121E"
	InvalidToken        = "ZWEAG130E"
	TokenNotProvided    = "ZWEAG131E"
	UnknownProvider     = "ZWEAG140E"
)

//go:embed messages.yaml
var defaultCatalog []byte

// Definition is a catalog entry
type Definition struct {
	Number string `yaml:"number"`
	Key    string `yaml:"key"`
	Type   string `yaml:"type"`
	Status int    `yaml:"status"`
	Text   string `yaml:"text"`
}

// Message is a rendered catalog entry as sent to clients
type Message struct {
	Type    string `json:"messageType"`
	Number  string `json:"messageNumber"`
	Content string `json:"messageContent"`
	Key     string `json:"messageKey"`
}

// Response is the error body envelope
type Response struct {
	Messages []Message `json:"messages"`
}

// Catalog resolves message numbers to definitions
type Catalog struct {
	byNumber map[string]Definition
}

// Load parses a YAML catalog
func Load(data []byte) (*Catalog, error) {
	var doc struct {
		Messages []Definition `yaml:"messages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	c := &Catalog{byNumber: make(map[string]Definition, len(doc.Messages))}
	for _, d := range doc.Messages {
		if d.Number == "" || d.Text == "" {
			return nil, fmt.Errorf("message catalog entry requires number and text")
		}
		if _, dup := c.byNumber[d.Number]; dup {
			return nil, fmt.Errorf("duplicate message number %s", d.Number)
		}
		if d.Status == 0 {
			d.Status = http.StatusInternalServerError
		}
		if d.Type == "" {
			d.Type = "ERROR"
		}
		c.byNumber[d.Number] = d
	}
	if _, ok := c.byNumber[InternalError]; !ok {
		return nil, fmt.Errorf("message catalog must define %s", InternalError)
	}
	return c, nil
}

var defaultOnce = sync.OnceValue(func() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded message catalog: %v", err))
	}
	return c
})

// Default returns the embedded catalog
func Default() *Catalog {
	return defaultOnce()
}

// Lookup returns the definition for a message number
func (c *Catalog) Lookup(number string) (Definition, bool) {
	d, ok := c.byNumber[number]
	return d, ok
}

// Build renders a message and returns it with its HTTP status.
// Unknown numbers render as the internal error.
func (c *Catalog) Build(number string, args ...any) (Message, int) {
	d, ok := c.byNumber[number]
	if !ok {
		d = c.byNumber[InternalError]
		args = lastArg(args)
	}
	return Message{
		Type:    d.Type,
		Number:  d.Number,
		Content: fmt.Sprintf(d.Text, args...),
		Key:     d.Key,
	}, d.Status
}

// The internal error template takes the request path only, passed last by convention
func lastArg(args []any) []any {
	if len(args) == 0 {
		return []any{""}
	}
	return args[len(args)-1:]
}

// Write sends an error envelope with the given status
func Write(w http.ResponseWriter, status int, messages ...Message) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(Response{Messages: messages})
}
