package drafts

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type DiffKind string

const (
	DiffEqual   DiffKind = "equal"
	DiffInsert  DiffKind = "insert"
	DiffDelete  DiffKind = "delete"
	DiffReplace DiffKind = "replace"
)

// DiffOp is one displayable chunk of a word-level diff. Equal/insert/delete
// carry Text; replace pairs the deleted span (OldText) with its inserted
// replacement (NewText).
type DiffOp struct {
	Kind    DiffKind `json:"kind"`
	Text    string   `json:"text,omitempty"`
	OldText string   `json:"old_text,omitempty"`
	NewText string   `json:"new_text,omitempty"`
}

// Diff computes a word-level diff between original and revised, then merges
// adjacent delete+insert pairs into replace chunks and normalizes the result.
// Output is deterministic for identical inputs.
func Diff(original, revised string) []DiffOp {
	return normalizeOps(chunkOps(diffWordMode(original, revised)))
}

// diffWordMode runs diffmatchpatch at word granularity: each distinct word
// token is mapped to a rune, the rune strings are diffed, and the diff is
// mapped back. Same trick as the library's line mode.
func diffWordMode(a, b string) []diffmatchpatch.Diff {
	encA, encB, tokens := wordsToChars(a, b)
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(encA, encB, false)
	return charsToWords(diffs, tokens)
}

// splitWords tokenizes on word boundaries, keeping each word's trailing
// whitespace attached so concatenating tokens reproduces the input exactly.
func splitWords(s string) []string {
	var words []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\t':
			words = append(words, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		words = append(words, s[start:])
	}
	return words
}

// tokenRune maps a token index to a stable rune, skipping the surrogate range.
func tokenRune(i int) rune {
	r := rune(i)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func runeToken(r rune) int {
	if r >= 0xE000 {
		r -= 0x800
	}
	return int(r)
}

func wordsToChars(a, b string) (string, string, []string) {
	tokens := []string{""} // index 0 unused
	seen := map[string]rune{}

	encode := func(s string) string {
		var sb strings.Builder
		for _, w := range splitWords(s) {
			r, ok := seen[w]
			if !ok {
				tokens = append(tokens, w)
				r = tokenRune(len(tokens) - 1)
				seen[w] = r
			}
			sb.WriteRune(r)
		}
		return sb.String()
	}

	encA := encode(a)
	encB := encode(b)
	return encA, encB, tokens
}

func charsToWords(diffs []diffmatchpatch.Diff, tokens []string) []diffmatchpatch.Diff {
	out := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		var sb strings.Builder
		for _, r := range d.Text {
			idx := runeToken(r)
			if idx > 0 && idx < len(tokens) {
				sb.WriteString(tokens[idx])
			}
		}
		out = append(out, diffmatchpatch.Diff{Type: d.Type, Text: sb.String()})
	}
	return out
}

// chunkOps converts raw diffs into ops, merging an adjacent delete+insert
// (in either order) into a single replace chunk.
func chunkOps(diffs []diffmatchpatch.Diff) []DiffOp {
	out := make([]DiffOp, 0, len(diffs))
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			out = append(out, DiffOp{Kind: DiffEqual, Text: d.Text})
		case diffmatchpatch.DiffDelete:
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				out = append(out, DiffOp{Kind: DiffReplace, OldText: d.Text, NewText: diffs[i+1].Text})
				i++
				continue
			}
			out = append(out, DiffOp{Kind: DiffDelete, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffDelete {
				out = append(out, DiffOp{Kind: DiffReplace, OldText: diffs[i+1].Text, NewText: d.Text})
				i++
				continue
			}
			out = append(out, DiffOp{Kind: DiffInsert, Text: d.Text})
		}
	}
	return out
}

// normalizeOps drops zero-length spans, downgrades one-sided replaces, and
// merges consecutive equal ops.
func normalizeOps(ops []DiffOp) []DiffOp {
	out := make([]DiffOp, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case DiffReplace:
			switch {
			case op.OldText == "" && op.NewText == "":
				continue
			case op.OldText == "":
				op = DiffOp{Kind: DiffInsert, Text: op.NewText}
			case op.NewText == "":
				op = DiffOp{Kind: DiffDelete, Text: op.OldText}
			}
		default:
			if op.Text == "" {
				continue
			}
		}

		if op.Kind == DiffEqual && len(out) > 0 && out[len(out)-1].Kind == DiffEqual {
			out[len(out)-1].Text += op.Text
			continue
		}
		out = append(out, op)
	}
	return out
}
