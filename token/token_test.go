package token

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name   string
		kind   TokenKind
		lexeme string
	}{
		{"assign", ASSIGN, "="},
		{"lparen", LPAREN, "("},
		{"rparen", RPAREN, ")"},
		{"dollar", DOLLAR, "$"},
		{"dot", DOT, "."},
		{"question", QUESTION, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Make(tt.kind, 1, 0)
			if got.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Lexeme != tt.lexeme {
				t.Errorf("Lexeme = %q, want %q", got.Lexeme, tt.lexeme)
			}
			if got.Hash != FNV1a([]byte(tt.lexeme)) {
				t.Errorf("Hash not derived from lexeme")
			}
		})
	}
}

func TestMakeLiteral(t *testing.T) {
	tok := MakeLiteral(INT, int32(42), "42", 3, 10)
	if tok.Kind != INT {
		t.Errorf("Kind = %v, want INT", tok.Kind)
	}
	if tok.Literal != int32(42) {
		t.Errorf("Literal = %v, want 42", tok.Literal)
	}
	if tok.Line != 3 || tok.Column != 10 {
		t.Errorf("position = (%d,%d), want (3,10)", tok.Line, tok.Column)
	}
}

func TestOperatorKind(t *testing.T) {
	if k, ok := OperatorKind('+'); !ok || k != PLUS {
		t.Errorf("OperatorKind('+') = (%v, %v), want (PLUS, true)", k, ok)
	}
	if _, ok := OperatorKind('%'); ok {
		t.Errorf("OperatorKind('%%') should not be an operator")
	}
}

func TestFNV1aNoCollisions(t *testing.T) {
	idents := []string{
		"x", "y", "r", "a", "b", "add", "dbl", "q", "n",
		"log", "playerid", "int", "float", "string",
		"__ReturnVal__", "f", "main", "helper", "Foo", "foo",
	}
	seen := make(map[uint64]string, len(idents))
	for _, id := range idents {
		h := FNV1a([]byte(id))
		if other, ok := seen[h]; ok {
			t.Fatalf("hash collision between %q and %q", id, other)
		}
		seen[h] = id
	}
}
