// Package signature normalizes function signatures into canonical keys and
// tokenizes post-conditions into bag-of-words sets.
package signature

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]+`)

// typeCanon maps declared types to single-letter canonical forms. Unknown
// types pass through verbatim so that exact matches still bucket together.
var typeCanon = map[string]string{
	"int":         "I",
	"float":       "F",
	"number":      "N",
	"str":         "S",
	"string":      "S",
	"bool":        "B",
	"list":        "L",
	"list[int]":   "L[I]",
	"list[float]": "L[F]",
	"Any":         "A",
}

func canonType(t string) string {
	t = strings.TrimSpace(t)
	if c, ok := typeCanon[t]; ok {
		return c
	}
	return t
}

// Normalize converts a declared signature like "clamp(x: int, lo: int, hi: int)->int"
// into the canonical key "clamp(I,I,I)->I". Untyped arguments canonicalize to A.
// A signature that does not follow the "name(args)->ret" shape is returned unchanged.
func Normalize(sig string) string {
	name, rest, ok := strings.Cut(sig, "(")
	if !ok {
		return sig
	}
	args, ret, ok := strings.Cut(rest, ")->")
	if !ok {
		return sig
	}
	args = strings.TrimSuffix(args, ")")

	var argTypes []string
	if strings.TrimSpace(args) != "" {
		for _, a := range strings.Split(args, ",") {
			if _, t, ok := strings.Cut(a, ":"); ok {
				argTypes = append(argTypes, canonType(t))
			} else {
				argTypes = append(argTypes, "A")
			}
		}
	}
	return strings.TrimSpace(name) + "(" + strings.Join(argTypes, ",") + ")->" + canonType(ret)
}

// Parse splits a normalized key into its argument-type segment and return-type
// segment. The function name prefix is ignored: two keys compare equal on
// shape even when the names differ. ok is false for keys that do not follow
// the "name(args)->ret" shape (including the empty key).
func Parse(key string) (args []string, ret string, ok bool) {
	_, rest, found := strings.Cut(key, "(")
	if !found {
		return nil, "", false
	}
	argSeg, retSeg, found := strings.Cut(rest, ")->")
	if !found {
		return nil, "", false
	}
	if argSeg != "" {
		args = strings.Split(argSeg, ",")
	}
	return args, strings.TrimSpace(retSeg), true
}

// TokenizePost extracts the post-condition bag-of-words: lowercase word tokens
// of length >= 2, deduplicated, in first-seen order.
func TokenizePost(postConditions []string) []string {
	var toks []string
	seen := make(map[string]bool)
	for _, p := range postConditions {
		for _, w := range wordPattern.FindAllString(strings.ToLower(p), -1) {
			if !seen[w] {
				seen[w] = true
				toks = append(toks, w)
			}
		}
	}
	return toks
}
