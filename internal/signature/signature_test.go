package signature

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		sig  string
		want string
	}{
		{"typed args", "clamp(x: int, lo: int, hi: int)->int", "clamp(I,I,I)->I"},
		{"mixed types", "join(parts: list, sep: str)->str", "join(L,S)->S"},
		{"nested list type", "total(xs: list[int])->int", "total(L[I])->I"},
		{"untyped arg becomes any", "f(x)->bool", "f(A)->B"},
		{"no args", "now()->float", "now()->F"},
		{"unknown type passes through", "g(x: Matrix)->Matrix", "g(Matrix)->Matrix"},
		{"whitespace tolerated", "h( a : int , b : str )->bool", "h(I,S)->B"},
		{"malformed returned unchanged", "not a signature", "not a signature"},
		{"missing arrow returned unchanged", "f(x: int)", "f(x: int)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.sig); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.sig, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	args, ret, ok := Parse("clamp(I,I,I)->I")
	if !ok {
		t.Fatal("expected ok")
	}
	if !reflect.DeepEqual(args, []string{"I", "I", "I"}) {
		t.Errorf("args: got %v", args)
	}
	if ret != "I" {
		t.Errorf("ret: got %q", ret)
	}

	args, ret, ok = Parse("now()->F")
	if !ok || len(args) != 0 || ret != "F" {
		t.Errorf("zero-arity: got args=%v ret=%q ok=%v", args, ret, ok)
	}

	if _, _, ok := Parse(""); ok {
		t.Error("empty key should not parse")
	}
	if _, _, ok := Parse("garbage"); ok {
		t.Error("malformed key should not parse")
	}
}

func TestParseIgnoresName(t *testing.T) {
	aArgs, aRet, _ := Parse("clamp(I,I,I)->I")
	bArgs, bRet, _ := Parse("bound(I,I,I)->I")
	if !reflect.DeepEqual(aArgs, bArgs) || aRet != bRet {
		t.Error("keys differing only by name should compare equal on shape")
	}
}

func TestTokenizePost(t *testing.T) {
	got := TokenizePost([]string{"result >= lo", "Result <= hi", "bounds hold"})
	want := []string{"result", "lo", "hi", "bounds", "hold"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokenizePost: got %v, want %v", got, want)
	}
}

func TestTokenizePost_SkipsShortTokens(t *testing.T) {
	got := TokenizePost([]string{"x > 0 and y > 0"})
	if len(got) != 1 || got[0] != "and" {
		t.Errorf("single-letter tokens should be dropped, got %v", got)
	}
}

func TestTokenizePost_Empty(t *testing.T) {
	if got := TokenizePost(nil); got != nil {
		t.Errorf("expected nil for no post-conditions, got %v", got)
	}
}
