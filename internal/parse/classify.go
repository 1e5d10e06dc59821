package parse

import (
	"strings"

	"github.com/antonw/duitbot/internal/domain"
)

// role is the semantic slot a phrase span binds to.
type role int

const (
	roleNone role = iota
	roleSource
	roleDestination
	roleCategory
)

// classification is the outcome of role binding over a token sequence.
type classification struct {
	direction   domain.Direction
	source      string
	destination string
	category    string

	// contested is set when more than one phrase segment competed for
	// the same role; the builder surfaces it as needs-confirmation.
	contested bool
}

// Classify assigns a direction and binds phrase spans to roles using the
// ordered keyword rules: an explicit "transfer" wins, then an income
// marker, otherwise the statement is an expense. Each phrase binds to
// the role opened by the nearest preceding connective keyword.
func Classify(tokens []Token) classification {
	c := classification{direction: detectDirection(tokens)}

	// Which role each connective opens depends on the direction. For
	// income there is no ledger source account by construction, so a
	// "from" phrase describes where the money came from and lands in
	// the category.
	connectives := map[string]role{
		"from": roleSource,
		"to":   roleDestination,
		"for":  roleCategory,
	}
	if c.direction == domain.DirectionIncome {
		connectives["from"] = roleCategory
	}
	if c.direction == domain.DirectionExpense {
		// An expense has no destination; stray "to" phrases stay unbound.
		connectives["to"] = roleNone
	}

	bindings := map[role][]string{}
	segments := map[role]int{}
	current := roleNone
	sawAmount := false
	inSegment := false

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenKeyword:
			if r, ok := connectives[tok.Text]; ok {
				current = r
				inSegment = false
			}
		case TokenNumber, TokenMagnitude:
			if tok.Kind == TokenNumber {
				sawAmount = true
			}
			// The amount interrupts a phrase run but not the open role.
			inSegment = false
		case TokenPhrase:
			r := current
			if r == roleNone && c.direction == domain.DirectionIncome && !sawAmount {
				// "incoming salary 21m ..." names what arrived.
				r = roleCategory
			}
			if r == roleNone {
				continue
			}
			if !inSegment {
				segments[r]++
				inSegment = true
			}
			bindings[r] = append(bindings[r], tok.Text)
		}
	}

	for r, count := range segments {
		if count > 1 {
			c.contested = true
		}
		phrase := strings.Join(bindings[r], " ")
		switch r {
		case roleSource:
			c.source = phrase
		case roleDestination:
			c.destination = phrase
		case roleCategory:
			c.category = phrase
		}
	}

	return c
}

// detectDirection applies the priority order: transfer, income, expense.
func detectDirection(tokens []Token) domain.Direction {
	hasIncome := false
	for _, tok := range tokens {
		if tok.Kind != TokenKeyword {
			continue
		}
		switch tok.Text {
		case "transfer":
			return domain.DirectionTransfer
		case "incoming", "income":
			hasIncome = true
		}
	}
	if hasIncome {
		return domain.DirectionIncome
	}
	return domain.DirectionExpense
}
