// Package token defines the operator tokens of the JavaScript subset
// accepted by the code generator.
package token

import "fmt"

// Token represents an operator or keyword-operator.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota

	// Binary operators
	binaryStart
	COMMA   // ,
	OR      // ||
	AND     // &&
	BIT_OR  // |
	BIT_XOR // ^
	BIT_AND // &
	SHL     // <<
	SAR     // >>
	SHR     // >>>
	ADD     // +
	SUB     // -
	MUL     // *
	DIV     // /
	MOD     // %
	binaryEnd

	// Comparison operators
	compareStart
	EQ         // ==
	NE         // !=
	EQ_STRICT  // ===
	NE_STRICT  // !==
	LT         // <
	GT         // >
	LTE        // <=
	GTE        // >=
	INSTANCEOF // instanceof
	IN         // in
	compareEnd

	// Unary operators
	unaryStart
	NOT     // !
	BIT_NOT // ~
	TYPEOF  // typeof
	VOID    // void
	DELETE  // delete
	unaryEnd

	// Count operators
	INC // ++
	DEC // --

	// Assignment operators
	assignStart
	INIT_VAR       // =init_var
	INIT_CONST     // =init_const
	ASSIGN         // =
	ASSIGN_BIT_OR  // |=
	ASSIGN_BIT_XOR // ^=
	ASSIGN_BIT_AND // &=
	ASSIGN_SHL     // <<=
	ASSIGN_SAR     // >>=
	ASSIGN_SHR     // >>>=
	ASSIGN_ADD     // +=
	ASSIGN_SUB     // -=
	ASSIGN_MUL     // *=
	ASSIGN_DIV     // /=
	ASSIGN_MOD     // %=
	assignEnd
)

var names = [...]string{
	ILLEGAL:        "<illegal>",
	COMMA:          ",",
	OR:             "||",
	AND:            "&&",
	BIT_OR:         "|",
	BIT_XOR:        "^",
	BIT_AND:        "&",
	SHL:            "<<",
	SAR:            ">>",
	SHR:            ">>>",
	ADD:            "+",
	SUB:            "-",
	MUL:            "*",
	DIV:            "/",
	MOD:            "%",
	EQ:             "==",
	NE:             "!=",
	EQ_STRICT:      "===",
	NE_STRICT:      "!==",
	LT:             "<",
	GT:             ">",
	LTE:            "<=",
	GTE:            ">=",
	INSTANCEOF:     "instanceof",
	IN:             "in",
	NOT:            "!",
	BIT_NOT:        "~",
	TYPEOF:         "typeof",
	VOID:           "void",
	DELETE:         "delete",
	INC:            "++",
	DEC:            "--",
	INIT_VAR:       "=init_var",
	INIT_CONST:     "=init_const",
	ASSIGN:         "=",
	ASSIGN_BIT_OR:  "|=",
	ASSIGN_BIT_XOR: "^=",
	ASSIGN_BIT_AND: "&=",
	ASSIGN_SHL:     "<<=",
	ASSIGN_SAR:     ">>=",
	ASSIGN_SHR:     ">>>=",
	ASSIGN_ADD:     "+=",
	ASSIGN_SUB:     "-=",
	ASSIGN_MUL:     "*=",
	ASSIGN_DIV:     "/=",
	ASSIGN_MOD:     "%=",
}

// String returns the source spelling of the token.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return fmt.Sprintf("Token(%d)", t)
}

// IsBinary returns true for arithmetic, bitwise, logical and comma operators.
func (t Token) IsBinary() bool {
	return t > binaryStart && t < binaryEnd
}

// IsCompare returns true for comparison operators.
func (t Token) IsCompare() bool {
	return t > compareStart && t < compareEnd
}

// IsUnary returns true for prefix unary operators other than ++ and --.
// ADD and SUB double as unary plus and minus.
func (t Token) IsUnary() bool {
	return (t > unaryStart && t < unaryEnd) || t == ADD || t == SUB
}

// IsAssign returns true for plain, initializing and compound assignments.
func (t Token) IsAssign() bool {
	return t > assignStart && t < assignEnd
}

// IsCompoundAssign returns true for op= assignments.
func (t Token) IsCompoundAssign() bool {
	return t > ASSIGN && t < assignEnd
}

// BinaryOpForAssign returns the binary operator of a compound assignment,
// or ILLEGAL for anything else.
func BinaryOpForAssign(t Token) Token {
	switch t {
	case ASSIGN_BIT_OR:
		return BIT_OR
	case ASSIGN_BIT_XOR:
		return BIT_XOR
	case ASSIGN_BIT_AND:
		return BIT_AND
	case ASSIGN_SHL:
		return SHL
	case ASSIGN_SAR:
		return SAR
	case ASSIGN_SHR:
		return SHR
	case ASSIGN_ADD:
		return ADD
	case ASSIGN_SUB:
		return SUB
	case ASSIGN_MUL:
		return MUL
	case ASSIGN_DIV:
		return DIV
	case ASSIGN_MOD:
		return MOD
	default:
		return ILLEGAL
	}
}

var lookup = func() map[string]Token {
	m := make(map[string]Token, len(names))
	for t, s := range names {
		if s != "" && Token(t) != ILLEGAL {
			m[s] = Token(t)
		}
	}
	return m
}()

// Lookup returns the token spelled s, or ILLEGAL if there is none.
// Ambiguous spellings ("+", "-") resolve to the binary token.
func Lookup(s string) Token {
	if tok, ok := lookup[s]; ok {
		return tok
	}
	return ILLEGAL
}
