package sqltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	input := `SELECT "a ""b""", 'it''s', 1.5e3 FROM t; -- done`
	tokens := Tokenize(input)

	var kinds []Kind
	var texts []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text(input))
	}

	assert.Equal(t, []Kind{Word, QuotedIdent, Symbol, String, Symbol, Number, Word, Word, Semicolon, EOF}, kinds)
	assert.Equal(t, []string{"SELECT", `"a ""b"""`, ",", "'it''s'", ",", "1.5e3", "FROM", "t", ";", ""}, texts)
}

func TestTokenize_Unterminated(t *testing.T) {
	tokens := Tokenize("select 'abc")
	require.Len(t, tokens, 3)
	assert.Equal(t, String, tokens[1].Kind)
	assert.True(t, tokens[1].Unterminated)
}

func TestComplete(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"select 1;", true},
		{"select 1;  \n", true},
		{"select 1; -- trailing comment", true},
		{"select 1", false},
		{"select ';", false},
		{"select 'a;b'", false},
		{`select "x;"`, false},
		{"select 1 -- ;", false},
		{"select 1 /* ; */", false},
		{"select 1; /* open", false},
		{"", false},
		{";", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Complete(tt.input))
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single", input: "select 1;", want: []string{"select 1"}},
		{name: "no terminator", input: "select 1", want: []string{"select 1"}},
		{name: "two", input: "create view v as select 1;\nselect * from v;", want: []string{"create view v as select 1", "select * from v"}},
		{name: "semicolon in string", input: "select 'a;b'; select 2", want: []string{"select 'a;b'", "select 2"}},
		{name: "empty statements", input: ";; select 1 ;;", want: []string{"select 1"}},
		{name: "comment only", input: "select 1; -- bye", want: []string{"select 1"}},
		{name: "blank", input: "  ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.input))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "semicolon", Semicolon.String())
	assert.Equal(t, "quoted identifier", QuotedIdent.String())
	assert.Equal(t, "symbol", Symbol.String())
}
