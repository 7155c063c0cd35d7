package act

import (
	"encoding/json"
	"testing"
)

func TestCloneBreaksAliasing(t *testing.T) {
	t.Parallel()

	orig := Structured{T("inform", "hotel", "area", "north")}
	cp, ok := Clone(orig).(Structured)
	if !ok {
		t.Fatalf("Clone() returned %T, want Structured", Clone(orig))
	}
	cp[0].Value = "south"
	if orig[0].Value != "north" {
		t.Fatalf("original mutated through clone: %q", orig[0].Value)
	}
}

func TestCloneNilAndUtterance(t *testing.T) {
	t.Parallel()

	if Clone(nil) != nil {
		t.Fatal("Clone(nil) must be nil")
	}
	if got := Clone(Utterance("hi")); got != Utterance("hi") {
		t.Fatalf("Clone(utterance) = %#v", got)
	}
}

func TestTupleKeyLowercases(t *testing.T) {
	t.Parallel()

	got := T("Book", "Booking", "Ref", "X1").Key()
	if got != "booking-book-ref" {
		t.Fatalf("Key() = %q, want booking-book-ref", got)
	}
}

func TestJSONEncodesVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Act
		want string
	}{
		{name: "nil", in: nil, want: `null`},
		{name: "utterance", in: Utterance("hello"), want: `"hello"`},
		{name: "structured", in: Structured{T("inform", "taxi", "car", "BMW")}, want: `[["inform","taxi","car","BMW"]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(JSON{Act: tt.in})
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(raw) != tt.want {
				t.Fatalf("Marshal() = %s, want %s", raw, tt.want)
			}

			var back JSON
			if err := json.Unmarshal(raw, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !Equal(back.Act, tt.in) {
				t.Fatalf("decoded %#v, want %#v", back.Act, tt.in)
			}
		})
	}
}

func TestJSONRejectsShortTuple(t *testing.T) {
	t.Parallel()

	var j JSON
	if err := json.Unmarshal([]byte(`[["inform","taxi","car"]]`), &j); err == nil {
		t.Fatal("expected error for 3-field tuple")
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	got := Text(Structured{T("inform", "hotel", "area", "north"), T("request", "hotel", "price", "?")})
	if got != "inform-hotel-area-north; request-hotel-price-?" {
		t.Fatalf("Text() = %q", got)
	}
	if Text(nil) != "" {
		t.Fatal("Text(nil) must be empty")
	}
}

func TestTupleEncodesAsObject(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(T("Inform", "Taxi", "Car", "BMW"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"intent":"Inform","domain":"Taxi","slot":"Car","value":"BMW"}`
	if string(raw) != want {
		t.Fatalf("Marshal() = %s, want %s", raw, want)
	}
}
