// Package templatenlg renders structured acts with fixed sentence templates.
package templatenlg

import (
	"context"
	"strings"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
)

// Templates use {domain}, {slot} and {value} placeholders and are keyed by
// lowercase intent, or "domain-intent" for a domain-specific override.
var DefaultTemplates = map[string]string{
	"inform":          "The {slot} of the {domain} is {value}.",
	"request":         "What {slot} would you like for the {domain}?",
	"recommend":       "I would recommend {value}.",
	"nooffer":         "Sorry, I could not find a {domain} with {slot} {value}.",
	"select":          "Would you prefer {value}?",
	"book":            "Your booking is confirmed, the reference is {value}.",
	"offerbook":       "Shall I book the {domain} for you?",
	"offerbooked":     "I have booked it, the reference is {value}.",
	"booking-inform":  "The {slot} for the booking is {value}.",
	"booking-request": "What {slot} should I use for the booking?",
	"taxi-inform":     "Your taxi is a {value}.",
	"general-greet":   "Hello, how can I help you?",
	"general-thank":   "Thank you.",
	"general-bye":     "Goodbye.",
	"general-reqmore": "Is there anything else I can help with?",
	"general-welcome": "You are welcome.",
}

type Option func(*Generator)

// WithTemplates merges templates over the defaults.
func WithTemplates(templates map[string]string) Option {
	return func(g *Generator) {
		for k, v := range templates {
			g.templates[strings.ToLower(k)] = v
		}
	}
}

type Generator struct {
	templates map[string]string
	last      string
	misses    int
}

var (
	_ contractx.NLG         = (*Generator)(nil)
	_ contractx.Diagnosable = (*Generator)(nil)
)

func New(opts ...Option) *Generator {
	g := &Generator{templates: make(map[string]string, len(DefaultTemplates))}
	for k, v := range DefaultTemplates {
		g.templates[k] = v
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *Generator) InitSession() error {
	g.last = ""
	g.misses = 0
	return nil
}

// Generate renders every tuple and joins the sentences. Tuples without a
// template are skipped. An utterance is returned unchanged.
func (g *Generator) Generate(ctx context.Context, action actx.Act) (string, error) {
	switch v := action.(type) {
	case nil:
		g.last = ""
	case actx.Utterance:
		g.last = string(v)
	case actx.Structured:
		sentences := make([]string, 0, len(v))
		for _, t := range v {
			tmpl, ok := g.lookup(t)
			if !ok {
				g.misses++
				continue
			}
			sentences = append(sentences, render(tmpl, t))
		}
		g.last = strings.Join(sentences, " ")
	}
	return g.last, nil
}

func (g *Generator) lookup(t actx.Tuple) (string, bool) {
	intent := strings.ToLower(t.Intent)
	if tmpl, ok := g.templates[strings.ToLower(t.Domain)+"-"+intent]; ok {
		return tmpl, true
	}
	tmpl, ok := g.templates[intent]
	return tmpl, ok
}

func render(tmpl string, t actx.Tuple) string {
	return strings.NewReplacer(
		"{domain}", strings.ToLower(t.Domain),
		"{slot}", strings.ToLower(t.Slot),
		"{value}", t.Value,
	).Replace(tmpl)
}

func (g *Generator) InfoDict() map[string]any {
	return map[string]any{
		"last_response":    g.last,
		"missing_template": g.misses,
	}
}
