package assistant

import (
	"reflect"
	"testing"
)

func TestIsAffirmative(t *testing.T) {
	for _, reply := range []string{"yes", "Yes!", " y ", "okay", "sí", "si", "claro", "Dale.", "vale"} {
		if !IsAffirmative(reply) {
			t.Errorf("IsAffirmative(%q) = false, want true", reply)
		}
	}
	for _, reply := range []string{"no", "maybe", "yes please do that", "", "1,3"} {
		if IsAffirmative(reply) {
			t.Errorf("IsAffirmative(%q) = true, want false", reply)
		}
	}
}

func TestIsNegative(t *testing.T) {
	for _, reply := range []string{"no", "Nope", "nah", "cancela", "CANCEL"} {
		if !IsNegative(reply) {
			t.Errorf("IsNegative(%q) = false, want true", reply)
		}
	}
	if IsNegative("not really") {
		t.Error("free-form refusal should not match the closed vocabulary")
	}
}

func TestIsSkipIncludesNoWords(t *testing.T) {
	for _, reply := range []string{"skip", "none", "omitir", "ninguna", "no", "paso"} {
		if !IsSkip(reply) {
			t.Errorf("IsSkip(%q) = false, want true", reply)
		}
	}
}

func TestIsAllIncludesYesWords(t *testing.T) {
	for _, reply := range []string{"all", "todas", "everything", "yes", "ok"} {
		if !IsAll(reply) {
			t.Errorf("IsAll(%q) = false, want true", reply)
		}
	}
	if IsAll("1,2") {
		t.Error("numeric selection must not count as all")
	}
}

func TestParseSelection(t *testing.T) {
	cases := []struct {
		reply string
		n     int
		want  []int
	}{
		{"1,3", 3, []int{1, 3}},
		{"2", 5, []int{2}},
		{"1, 2 and 3", 3, []int{1, 2, 3}},
		{"1;2;1", 3, []int{1, 2}},
		{"5", 3, nil},
		{"0", 3, nil},
		{"the first one", 3, nil},
		{"", 3, nil},
		{"1. 2.", 3, []int{1, 2}},
	}
	for _, c := range cases {
		got := ParseSelection(c.reply, c.n)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseSelection(%q, %d) = %v, want %v", c.reply, c.n, got, c.want)
		}
	}
}

func TestNormalizeReplyStripsPunctuation(t *testing.T) {
	cases := map[string]string{
		"¡Sí!":    "sí",
		"Yes.":    "yes",
		"  no ?":  "no",
		"Skip,":   "skip",
		"already": "already",
	}
	for in, want := range cases {
		if got := normalizeReply(in); got != want {
			t.Errorf("normalizeReply(%q) = %q, want %q", in, got, want)
		}
	}
}
