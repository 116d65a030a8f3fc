package rules

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ruleFile is the participle grammar for .rules files:
//
//	# comment
//	rule "pg19" at 19 {
//	    expect "as a sibling"
//	    replace "as a sibling" with "as a parent"
//	}
//	rule where contains "Ms. Caughman" and contains "her son" {
//	    replace "her son" with "her daughter"
//	}
//	rule where style "Heading1" or (contains "Jennifer" and not contains "Smith") once {
//	    delete " in passing"; normalize
//	}
//
//nolint:govet // participle grammar tags are not standard struct tags
type ruleFile struct {
	Rules []*ruleDecl `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type ruleDecl struct {
	Pos lexer.Position

	Label *string `"rule" @String?`
	At    *int    `( ( "at" | "paragraph" ) @Int`
	Where *orExpr `| "where" @@ )`
	Once  bool    `@"once"?`
	Body  []*stmt `"{" ( @@ ";"? )* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type stmt struct {
	Pos lexer.Position

	Replace   *replaceStmt `  @@`
	Delete    *string      `| "delete" @String`
	Expect    *string      `| "expect" @String`
	When      *string      `| "when" @String`
	Describe  *string      `| "describe" @String`
	Normalize bool         `| @"normalize"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type replaceStmt struct {
	Search  string `"replace" @String`
	Replace string `"with" @String`
}

//nolint:govet // participle grammar tags are not standard struct tags
type orExpr struct {
	Terms []*andExpr `@@ ( "or" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type andExpr struct {
	Factors []*factor `@@ ( "and" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type factor struct {
	Not      *factor `  "not" @@`
	Contains *string `| "contains" @String`
	Style    *string `| "style" @String`
	Group    *orExpr `| "(" @@ ")"`
}

// rulesLexer tokenizes .rules files. Keywords are plain identifiers.
var rulesLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\r\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\\r\n])*"`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}();]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// rulesParser is the participle parser for .rules files.
var rulesParser = participle.MustBuild[ruleFile](
	participle.Lexer(rulesLexer),
	participle.Unquote("String"),
	participle.Elide("Comment", "Whitespace"),
)
