package parse

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/antonw/duitbot/internal/domain"
)

// TokenKind classifies a fragment of input text.
type TokenKind int

const (
	// TokenNumber is a numeric literal, possibly containing separators
	// ("16", "52.500", "1,000").
	TokenNumber TokenKind = iota
	// TokenMagnitude is a magnitude suffix scaling the preceding number
	// ("k", "mil", "juta").
	TokenMagnitude
	// TokenKeyword is one of the closed set of connective words that
	// drive role binding.
	TokenKeyword
	// TokenPhrase is any remaining word, a candidate account or
	// category name.
	TokenPhrase
)

func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenMagnitude:
		return "magnitude"
	case TokenKeyword:
		return "keyword"
	default:
		return "phrase"
	}
}

// Token is a classified span of the raw input. Tokens live only for the
// duration of one parse call.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

// keywords is the closed connective vocabulary, matched case-insensitively.
var keywords = map[string]bool{
	"from":     true,
	"to":       true,
	"for":      true,
	"transfer": true,
	"incoming": true,
	"income":   true,
	"expense":  true,
}

// Tokenize segments raw text into an ordered token sequence. A numeric
// literal with an immediately trailing magnitude word ("16k", "1mil")
// yields two tokens. Inputs with no numeric literal are rejected, since
// every supported transaction format carries exactly one amount.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	numbers := 0

	for _, span := range splitWords(text) {
		word := span.text
		lower := strings.ToLower(word)

		switch {
		case keywords[lower]:
			tokens = append(tokens, Token{Kind: TokenKeyword, Text: lower, Start: span.start, End: span.end})
		case isMagnitudeWord(lower):
			tokens = append(tokens, Token{Kind: TokenMagnitude, Text: lower, Start: span.start, End: span.end})
		case startsWithDigit(word):
			num, suffix, ok := splitNumericWord(lower)
			if !ok {
				// Digit-led but not a recognizable amount ("2pm").
				tokens = append(tokens, Token{Kind: TokenPhrase, Text: word, Start: span.start, End: span.end})
				continue
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: num, Start: span.start, End: span.start + len(num)})
			numbers++
			if suffix != "" {
				tokens = append(tokens, Token{Kind: TokenMagnitude, Text: suffix, Start: span.start + len(num), End: span.end})
			}
		default:
			tokens = append(tokens, Token{Kind: TokenPhrase, Text: word, Start: span.start, End: span.end})
		}
	}

	if numbers == 0 {
		return nil, fmt.Errorf("tokenize %q: %w", text, domain.ErrNoNumericToken)
	}
	return tokens, nil
}

type wordSpan struct {
	text  string
	start int
	end   int
}

// splitWords splits on whitespace while tracking byte offsets.
func splitWords(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, wordSpan{text: text[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{text: text[start:], start: start, end: len(text)})
	}
	return spans
}

// splitNumericWord separates a digit-led word into its numeric literal
// and an optional trailing magnitude suffix. Returns ok=false when the
// trailing letters are not a known suffix.
func splitNumericWord(word string) (number, suffix string, ok bool) {
	cut := len(word)
	for i, r := range word {
		if r >= '0' && r <= '9' || r == '.' || r == ',' {
			continue
		}
		cut = i
		break
	}
	number = word[:cut]
	suffix = word[cut:]
	if suffix != "" && !isMagnitudeWord(suffix) {
		return "", "", false
	}
	return number, suffix, true
}

func startsWithDigit(word string) bool {
	return len(word) > 0 && word[0] >= '0' && word[0] <= '9'
}
