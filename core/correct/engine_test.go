package correct

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/FocuswithJustin/docfix/core/errors"
)

func quietEngine(opts ...Option) *Engine {
	var buf bytes.Buffer
	return New(append([]Option{WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))}, opts...)...)
}

func chapter() Lines {
	return Lines{
		"Chapter Four",
		"Yvonne Caughman provided a unique parent perspective, sharing her experience as mother of her son.",
		"Sibling Experiences as Hidden Dimension",
		"Jennifer Nicholson spoke with her son present during the interview about inclusion.",
		"Ms. Caughman's observation about her son's spiritual gifts stood out.",
	}
}

func Test_ApplyRule(t *testing.T) {
	t.Run("should replace and report change", func(t *testing.T) {
		out, changed := ApplyRule("my brother and me", "my brother", "my son")
		assert.True(t, changed)
		assert.Equal(t, "my son and me", out)
	})

	t.Run("should leave text identical when search is absent", func(t *testing.T) {
		in := "Sibling Experiences as Hidden Dimension"
		out, changed := ApplyRule(in, "Nonexistent Phrase", "X")
		assert.False(t, changed)
		assert.Equal(t, in, out)
	})

	t.Run("should replace all non-overlapping occurrences left to right", func(t *testing.T) {
		out, changed := ApplyRule("aaaa", "aa", "b")
		assert.True(t, changed)
		assert.Equal(t, "bb", out)
	})

	t.Run("should be case sensitive and literal", func(t *testing.T) {
		out, changed := ApplyRule("Her son (age 9)", "her son (age 9)", "x")
		assert.False(t, changed)
		assert.Equal(t, "Her son (age 9)", out)

		out, changed = ApplyRule("a.b", ".", "-")
		assert.True(t, changed)
		assert.Equal(t, "a-b", out)
	})

	t.Run("should never match empty search", func(t *testing.T) {
		out, changed := ApplyRule("text", "", "x")
		assert.False(t, changed)
		assert.Equal(t, "text", out)
	})

	t.Run("should report unchanged when replacement equals search", func(t *testing.T) {
		_, changed := ApplyRule("same", "same", "same")
		assert.False(t, changed)
	})
}

func Test_NormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "spoke about inclusion.", NormalizeWhitespace("spoke  about     inclusion."))
	assert.Equal(t, "tab\t\tkept", NormalizeWhitespace("tab\t\tkept"))
	assert.Equal(t, "", NormalizeWhitespace(""))
}

func Test_Select(t *testing.T) {
	doc := chapter()

	t.Run("should resolve index", func(t *testing.T) {
		got, err := Select(doc, Index(2))
		require.NoError(t, err)
		assert.Equal(t, []int{2}, got)
	})

	t.Run("should fail on index past the end", func(t *testing.T) {
		_, err := Select(doc, Index(5))
		var oor *cerrors.IndexOutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, 5, oor.Index)
		assert.Equal(t, 5, oor.Len)
	})

	t.Run("should fail on negative index", func(t *testing.T) {
		_, err := Select(doc, Index(-1))
		assert.ErrorIs(t, err, cerrors.ErrOutOfRange)
	})

	t.Run("should return empty without error when predicate matches nothing", func(t *testing.T) {
		got, err := Select(doc, Where{Pred: Contains("Nonexistent")})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("should combine predicates", func(t *testing.T) {
		got, err := Select(doc, Where{Pred: All{Contains("Ms. Caughman"), Contains("her son")}})
		require.NoError(t, err)
		assert.Equal(t, []int{4}, got)

		got, err = Select(doc, Where{Pred: Any{Contains("Jennifer"), Contains("Nicholson"), Contains("Chapter")}})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 3}, got)

		got, err = Select(doc, Where{Pred: Not{Pred: Contains("son")}})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, got)
	})

	t.Run("should enforce uniqueness", func(t *testing.T) {
		_, err := Select(doc, Where{Pred: Contains("her son"), Unique: true})
		var amb *cerrors.AmbiguousSelectorError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, []int{1, 3, 4}, amb.Matches)

		got, err := Select(doc, Where{Pred: Contains("Sibling"), Unique: true})
		require.NoError(t, err)
		assert.Equal(t, []int{2}, got)
	})

	t.Run("should match style only on styled documents", func(t *testing.T) {
		got, err := Select(doc, Where{Pred: Style("Heading1")})
		require.NoError(t, err)
		assert.Empty(t, got)

		styled := &snapshot{texts: []string{"a", "b"}, styles: []string{"Heading1", ""}}
		got, err = Select(styled, Where{Pred: Style("Heading1")})
		require.NoError(t, err)
		assert.Equal(t, []int{0}, got)
	})
}

func Test_Engine(t *testing.T) {
	t.Run("should apply rule and record change", func(t *testing.T) {
		doc := Lines{"my brother and me"}
		res, err := quietEngine().Run(doc, []Rule{NewRule(Index(0), "my brother", "my son")})
		require.NoError(t, err)
		assert.Equal(t, "my son and me", doc[0])
		require.Len(t, res.Changes(), 1)
		assert.Equal(t, 0, res.Records[0].Paragraph)
		assert.Equal(t, "my brother and me", res.Records[0].Before)
		assert.Equal(t, "my son and me", res.Records[0].After)
		assert.Equal(t, []int{0}, res.Committed)
		assert.NotEmpty(t, res.RunID)
	})

	t.Run("should log no match and leave text identical", func(t *testing.T) {
		doc := Lines{"Sibling Experiences as Hidden Dimension"}
		res, err := quietEngine().Run(doc, []Rule{NewRule(Index(0), "Nonexistent Phrase", "X")})
		require.NoError(t, err)
		assert.Equal(t, "Sibling Experiences as Hidden Dimension", doc[0])
		require.Len(t, res.Records, 1)
		assert.Equal(t, NoMatch, res.Records[0].Kind)
		assert.Equal(t, 0, res.Records[0].Paragraph)
		assert.Empty(t, res.Committed)
	})

	t.Run("should compose rules sequentially", func(t *testing.T) {
		doc := Lines{"my brother and me"}
		res, err := quietEngine().Run(doc, []Rule{
			NewRule(Index(0), "brother", "son"),
			NewRule(Index(0), "brother", "sibling"),
		})
		require.NoError(t, err)
		assert.Equal(t, "my son and me", doc[0])
		require.Len(t, res.Records, 2)
		assert.Equal(t, Changed, res.Records[0].Kind)
		assert.Equal(t, NoMatch, res.Records[1].Kind)
		assert.Equal(t, "#2", res.Records[1].Rule)
	})

	t.Run("should let predicates see earlier rules' output", func(t *testing.T) {
		doc := Lines{"her son", "other"}
		res, err := quietEngine().Run(doc, []Rule{
			NewRule(Index(1), "other", "her son too"),
			NewRule(Where{Pred: Contains("her son")}, "son", "brother"),
		})
		require.NoError(t, err)
		assert.Equal(t, Lines{"her brother", "her brother too"}, doc)
		assert.Len(t, res.Changes(), 3)
	})

	t.Run("should be idempotent on second run", func(t *testing.T) {
		doc := chapter()
		rules := []Rule{
			{Selector: Index(1), Edits: []Edit{
				{Search: "unique parent perspective", Replace: "unique sibling perspective"},
				{Search: "mother of her son", Replace: "sister of her brother"},
			}},
			NewRule(Where{Pred: Contains("Ms. Caughman")}, "her son's", "her brother's"),
		}
		first, err := quietEngine().Run(doc, rules)
		require.NoError(t, err)
		assert.Len(t, first.Changes(), 2)

		second, err := quietEngine().Run(doc, rules)
		require.NoError(t, err)
		assert.Empty(t, second.Changes())
		assert.Empty(t, second.Committed)
	})

	t.Run("should not touch document with zero rules", func(t *testing.T) {
		doc := chapter()
		res, err := quietEngine().Run(doc, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Records)
		assert.Equal(t, chapter(), doc)
	})

	t.Run("should abort before mutation on out of range index", func(t *testing.T) {
		doc := chapter()
		_, err := quietEngine().Run(doc, []Rule{
			NewRule(Index(1), "parent", "sibling"),
			{Label: "fix-19", Selector: Index(19), Edits: []Edit{{Search: "a", Replace: "b"}}},
		})
		var oor *cerrors.IndexOutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "fix-19", oor.Rule)
		assert.Equal(t, chapter(), doc)
	})

	t.Run("should abort without partial mutation on failed expectation", func(t *testing.T) {
		doc := chapter()
		_, err := quietEngine().Run(doc, []Rule{
			NewRule(Index(1), "parent", "sibling"),
			{Label: "title", Selector: Index(2), Expect: "Parent Experiences", Edits: []Edit{{Search: "Hidden", Replace: "Shared"}}},
		})
		var exp *cerrors.ExpectationError
		require.ErrorAs(t, err, &exp)
		assert.Equal(t, "title", exp.Rule)
		assert.Equal(t, 2, exp.Paragraph)
		assert.Equal(t, chapter(), doc)
	})

	t.Run("should check expectation against text left by earlier rules", func(t *testing.T) {
		doc := chapter()
		res, err := quietEngine().Run(doc, []Rule{
			NewRule(Index(2), "Sibling", "Parent"),
			{Label: "title", Selector: Index(2), Expect: "Parent Experiences", Edits: []Edit{{Search: "Hidden", Replace: "Shared"}}},
		})
		require.NoError(t, err)
		assert.Len(t, res.Changes(), 2)
		assert.Equal(t, "Parent Experiences as Shared Dimension", doc[2])

		doc = chapter()
		_, err = quietEngine().Run(doc, []Rule{
			NewRule(Index(2), "Sibling", "Parent"),
			{Label: "stale", Selector: Index(2), Expect: "Sibling Experiences", Edits: []Edit{{Search: "Hidden", Replace: "Shared"}}},
		})
		var exp *cerrors.ExpectationError
		require.ErrorAs(t, err, &exp)
		assert.Equal(t, "stale", exp.Rule)
		assert.Equal(t, chapter(), doc)
	})

	t.Run("should abort on ambiguous unique selector", func(t *testing.T) {
		doc := chapter()
		_, err := quietEngine().Run(doc, []Rule{
			{Label: "once", Selector: Where{Pred: Contains("her son"), Unique: true}, Edits: []Edit{{Search: "son", Replace: "brother"}}},
		})
		var amb *cerrors.AmbiguousSelectorError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, "once", amb.Rule)
		assert.Equal(t, chapter(), doc)
	})

	t.Run("should skip when guard text is absent", func(t *testing.T) {
		doc := chapter()
		res, err := quietEngine().Run(doc, []Rule{
			{Selector: Index(2), When: "Parent Experiences", Edits: []Edit{{Search: "Hidden", Replace: "Shared"}}},
			{Selector: Index(2), When: "Sibling Experiences", Edits: []Edit{{Search: "Sibling Experiences as Hidden Dimension", Replace: "Parent Experiences with Adult Children"}}},
		})
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		assert.Equal(t, Skipped, res.Records[0].Kind)
		assert.Equal(t, Changed, res.Records[1].Kind)
		assert.Equal(t, "Parent Experiences with Adult Children", doc[2])
	})

	t.Run("should treat guard on predicate selector as a filter", func(t *testing.T) {
		doc := Lines{"a one", "a two", "a b three", "a four"}
		res, err := quietEngine().Run(doc, []Rule{
			{Selector: Where{Pred: Contains("a")}, When: "b", Edits: []Edit{{Search: "three", Replace: "3"}}},
			{Label: "none", Selector: Where{Pred: Contains("a")}, When: "zzz", Edits: []Edit{{Search: "a", Replace: "A"}}},
		})
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		assert.Equal(t, Changed, res.Records[0].Kind)
		assert.Equal(t, 2, res.Records[0].Paragraph)
		assert.Equal(t, NoMatch, res.Records[1].Kind)
		assert.Equal(t, -1, res.Records[1].Paragraph)
		assert.Equal(t, `Rule none: no match: no selected paragraph contains "zzz"`, res.Records[1].String())
		assert.Empty(t, res.filter(Skipped))
		assert.Equal(t, "a b 3", doc[2])
	})

	t.Run("should report predicate that matches nothing", func(t *testing.T) {
		doc := chapter()
		res, err := quietEngine().Run(doc, []Rule{NewRule(Where{Pred: Contains("Zed")}, "Zed", "Zee")})
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, NoMatch, res.Records[0].Kind)
		assert.Equal(t, -1, res.Records[0].Paragraph)
		assert.Equal(t, `Rule #1: no match: no paragraph contains "Zed"`, res.Records[0].String())
	})

	t.Run("should normalize spaces left by deletions when asked", func(t *testing.T) {
		doc := chapter()
		res, err := quietEngine().Run(doc, []Rule{{
			Description: "Removed reference to son being present at the interview",
			Selector:    Where{Pred: Any{Contains("Jennifer"), Contains("Nicholson")}},
			Edits:       []Edit{{Search: "with her son present during the interview", Replace: ""}},
			Normalize:   true,
		}})
		require.NoError(t, err)
		assert.Equal(t, "Jennifer Nicholson spoke about inclusion.", doc[3])
		require.Len(t, res.Changes(), 1)
		assert.Equal(t, "Paragraph 3: Removed reference to son being present at the interview", res.Records[0].String())
	})

	t.Run("should normalize once at the end with engine option", func(t *testing.T) {
		doc := Lines{"a b c"}
		res, err := quietEngine(WithNormalize(true)).Run(doc, []Rule{
			NewRule(Index(0), "b", ""),
			NewRule(Index(0), "a  c", "kept"),
		})
		require.NoError(t, err)
		assert.Equal(t, "kept", doc[0])
		assert.Len(t, res.Changes(), 2)
	})

	t.Run("should not commit in dry run", func(t *testing.T) {
		doc := Lines{"my brother and me"}
		res, err := quietEngine(WithDryRun(true)).Run(doc, []Rule{NewRule(Index(0), "brother", "son")})
		require.NoError(t, err)
		assert.True(t, res.DryRun)
		assert.Equal(t, "my brother and me", doc[0])
		require.Len(t, res.Changes(), 1)
		assert.Equal(t, "my son and me", res.Changes()[0].After)
		assert.Empty(t, res.Committed)
	})

	t.Run("should describe edits when rule has no description", func(t *testing.T) {
		doc := Lines{"x y"}
		res, err := quietEngine().Run(doc, []Rule{{Selector: Index(0), Edits: []Edit{{Search: "x", Replace: "z"}, {Search: " y", Replace: ""}}}})
		require.NoError(t, err)
		assert.Equal(t, `"x" -> "z"; removed " y"`, res.Records[0].Description)
	})
}

func Test_Kind(t *testing.T) {
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "no-match", NoMatch.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
