package columns

import (
	"strings"
	"testing"
)

func TestSerialAlwaysFirst(t *testing.T) {
	h := Compose(NewSelection())
	if !strings.HasPrefix(h.HeaderLine, "| S.N |") {
		t.Fatalf("serial column missing or not first: %q", h.HeaderLine)
	}
	if len(h.Columns) != 0 {
		t.Fatalf("empty selection should list no toggleable columns, got %v", h.Columns)
	}
}

func TestCanonicalOrderIgnoresClickOrder(t *testing.T) {
	// Selected in reverse click order.
	a := Compose(NewSelection(Amount, Batch, Item))
	// Same set, different order.
	b := Compose(NewSelection(Item, Amount, Batch))

	if a.HeaderLine != b.HeaderLine || a.SeparatorLine != b.SeparatorLine {
		t.Fatal("output depends on selection order")
	}
	want := []Key{Item, Batch, Amount}
	if len(a.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", a.Columns, want)
	}
	for i, k := range want {
		if a.Columns[i] != k {
			t.Fatalf("columns = %v, want %v", a.Columns, want)
		}
	}
}

func TestToggleIdempotence(t *testing.T) {
	sel := NewSelection(Item, Qty, Rate, Amount)
	before := Compose(sel)

	sel.Toggle(Disc)
	sel.Toggle(Disc)
	after := Compose(sel)

	if before.HeaderLine != after.HeaderLine {
		t.Fatalf("header changed:\n%q\n%q", before.HeaderLine, after.HeaderLine)
	}
	if before.SeparatorLine != after.SeparatorLine {
		t.Fatalf("separator changed:\n%q\n%q", before.SeparatorLine, after.SeparatorLine)
	}
}

func TestBoxDrawingShape(t *testing.T) {
	h := Compose(NewSelection(Item, Qty, Amount))

	if len(h.HeaderLine) != len(h.SeparatorLine) {
		t.Fatalf("line lengths differ: %d vs %d", len(h.HeaderLine), len(h.SeparatorLine))
	}
	if !strings.HasPrefix(h.SeparatorLine, "+") || !strings.HasSuffix(h.SeparatorLine, "+") {
		t.Fatalf("separator not boxed: %q", h.SeparatorLine)
	}
	// Every | in the header must line up with a + in the separator.
	for i := range h.HeaderLine {
		if h.HeaderLine[i] == '|' && h.SeparatorLine[i] != '+' {
			t.Fatalf("misaligned at %d:\n%s\n%s", i, h.HeaderLine, h.SeparatorLine)
		}
	}
	if !strings.Contains(h.HeaderLine, "Particulars") {
		t.Fatalf("label missing: %q", h.HeaderLine)
	}
}

func TestUnknownKeyIgnored(t *testing.T) {
	sel := NewSelection(Item)
	sel.Toggle("NOPE")
	h := Compose(sel)
	if len(h.Columns) != 1 || h.Columns[0] != Item {
		t.Fatalf("unknown key affected selection: %v", h.Columns)
	}
}

func TestParseSelection(t *testing.T) {
	sel := ParseSelection([]string{"item", "AMOUNT", "bogus"})
	keys := sel.Keys()
	if len(keys) != 2 || keys[0] != Item || keys[1] != Amount {
		t.Fatalf("ParseSelection keys = %v", keys)
	}
}
