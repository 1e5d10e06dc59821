package parse

import (
	"errors"
	"testing"

	"github.com/antonw/duitbot/internal/domain"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "number with trailing suffix letter",
			input: "16k from gopay",
			want: []Token{
				{Kind: TokenNumber, Text: "16"},
				{Kind: TokenMagnitude, Text: "k"},
				{Kind: TokenKeyword, Text: "from"},
				{Kind: TokenPhrase, Text: "gopay"},
			},
		},
		{
			name:  "multi character suffix word attached",
			input: "1mil",
			want: []Token{
				{Kind: TokenNumber, Text: "1"},
				{Kind: TokenMagnitude, Text: "mil"},
			},
		},
		{
			name:  "standalone suffix word",
			input: "25 ribu for lunch",
			want: []Token{
				{Kind: TokenNumber, Text: "25"},
				{Kind: TokenMagnitude, Text: "ribu"},
				{Kind: TokenKeyword, Text: "for"},
				{Kind: TokenPhrase, Text: "lunch"},
			},
		},
		{
			name:  "keywords are case insensitive",
			input: "Transfer 5000 From a To b",
			want: []Token{
				{Kind: TokenKeyword, Text: "transfer"},
				{Kind: TokenNumber, Text: "5000"},
				{Kind: TokenKeyword, Text: "from"},
				{Kind: TokenPhrase, Text: "a"},
				{Kind: TokenKeyword, Text: "to"},
				{Kind: TokenPhrase, Text: "b"},
			},
		},
		{
			name:  "digit inside word stays a phrase",
			input: "1000 from account1",
			want: []Token{
				{Kind: TokenNumber, Text: "1000"},
				{Kind: TokenKeyword, Text: "from"},
				{Kind: TokenPhrase, Text: "account1"},
			},
		},
		{
			name:  "digit led word with unknown letters stays a phrase",
			input: "500 at 7eleven",
			want: []Token{
				{Kind: TokenNumber, Text: "500"},
				{Kind: TokenPhrase, Text: "at"},
				{Kind: TokenPhrase, Text: "7eleven"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %d tokens, want %d: %+v", tt.input, len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Kind != tt.want[i].Kind || got[i].Text != tt.want[i].Text {
					t.Errorf("token %d = {%v %q}, want {%v %q}", i, got[i].Kind, got[i].Text, tt.want[i].Kind, tt.want[i].Text)
				}
			}
		})
	}
}

func TestTokenize_Offsets(t *testing.T) {
	input := "  16k from gopay"
	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}

	for _, tok := range tokens {
		if tok.Start < 0 || tok.End > len(input) || tok.Start >= tok.End {
			t.Errorf("token %q has bad span [%d, %d)", tok.Text, tok.Start, tok.End)
		}
	}

	// The magnitude letter's span follows the number's span.
	if tokens[0].End != tokens[1].Start {
		t.Errorf("number span ends at %d but suffix starts at %d", tokens[0].End, tokens[1].Start)
	}
}

func TestTokenize_NoNumericToken(t *testing.T) {
	for _, input := range []string{"", "hello there", "from gopay for lunch", "   "} {
		_, err := Tokenize(input)
		if !errors.Is(err, domain.ErrNoNumericToken) {
			t.Errorf("Tokenize(%q) error = %v, want ErrNoNumericToken", input, err)
		}
	}
}
