package templatenlg

import (
	"context"
	"testing"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   actx.Act
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "utterance", in: actx.Utterance("as is"), want: "as is"},
		{
			name: "inform and request",
			in: actx.Structured{
				actx.T("Inform", "Hotel", "Area", "north"),
				actx.T("Request", "Hotel", "Stars", "?"),
			},
			want: "The area of the hotel is north. What stars would you like for the hotel?",
		},
		{
			name: "domain override",
			in:   actx.Structured{actx.T("Inform", "Taxi", "Car", "BMW")},
			want: "Your taxi is a BMW.",
		},
		{
			name: "general",
			in:   actx.Structured{actx.T("bye", "general", "none", "none")},
			want: "Goodbye.",
		},
		{
			name: "unknown intent skipped",
			in:   actx.Structured{actx.T("Shrug", "Hotel", "none", "none")},
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := New().Generate(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithTemplatesOverrides(t *testing.T) {
	t.Parallel()

	g := New(WithTemplates(map[string]string{"Inform": "{slot}={value}"}))
	got, err := g.Generate(context.Background(), actx.Structured{actx.T("Inform", "Hotel", "Area", "north")})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "area=north" {
		t.Fatalf("Generate() = %q", got)
	}
	if g.InfoDict()["last_response"] != "area=north" {
		t.Fatalf("InfoDict() = %#v", g.InfoDict())
	}
}
