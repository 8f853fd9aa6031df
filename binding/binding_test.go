package binding

import "testing"

func TestOdaFormattingPresent(t *testing.T) {
	ctx := Context{"oda_number": "5"}

	if got := Resolve("Ward: {{oda_number}}", ctx); got != "Ward: Ward No. 5 (Oda)" {
		t.Fatalf("flat form = %q", got)
	}
	if got := Resolve("{{client.oda_number}}", ctx); got != "Ward No. 5 (Oda)" {
		t.Fatalf("client form = %q", got)
	}
}

func TestOdaFormattingMissing(t *testing.T) {
	if got := Resolve("{{oda_number}}", Context{"oda_number": ""}); got != "" {
		t.Fatalf("empty value = %q, want \"\"", got)
	}
	if got := Resolve("{{client.oda_number}}", Context{}); got != "" {
		t.Fatalf("absent key = %q, want \"\"", got)
	}
}

func TestGeneralBinding(t *testing.T) {
	ctx := Context{"pharmacy_name": "My Pharma", "address": "KTM"}

	if got := Resolve("{{pharmacy_name}} - {{address}}", ctx); got != "My Pharma - KTM" {
		t.Fatalf("got %q", got)
	}
	// The client namespace aliases the flat context.
	if got := Resolve("{{client.pharmacy_name}}", ctx); got != "My Pharma" {
		t.Fatalf("client alias = %q", got)
	}
}

func TestFlatAndClientFormsAgree(t *testing.T) {
	ctx := Context{
		"pan_number":  "601234567",
		"bill_number": "INV-0042",
		"grand_total": 1500.0,
	}
	for _, k := range []string{"pan_number", "bill_number", "grand_total"} {
		flat := Resolve("{{"+k+"}}", ctx)
		ns := Resolve("{{client."+k+"}}", ctx)
		if flat != ns {
			t.Fatalf("%s: flat %q != client %q", k, flat, ns)
		}
		if flat != ctx.String(k) {
			t.Fatalf("%s: resolved %q != string form %q", k, flat, ctx.String(k))
		}
	}
}

func TestMissingFieldRendersEmpty(t *testing.T) {
	if got := Resolve("A{{nope}}B", Context{}); got != "AB" {
		t.Fatalf("got %q, want AB (never the literal token)", got)
	}
}

func TestUnknownNamespaceRendersEmpty(t *testing.T) {
	ctx := Context{"name": "x"}
	if got := Resolve("{{vendor.name}}", ctx); got != "" {
		t.Fatalf("got %q, want \"\"", got)
	}
}

func TestNonTokensPassThrough(t *testing.T) {
	ctx := Context{"a": "1"}
	for _, s := range []string{
		"{a}", "{{a}", "{{ a }}", "{{1bad}}", "{{a.b.c}}", "plain text", "{{}}",
	} {
		if got := Resolve(s, ctx); got != s {
			t.Fatalf("Resolve(%q) = %q, want passthrough", s, got)
		}
	}
}

func TestIdempotent(t *testing.T) {
	ctx := Context{"pharmacy_name": "My Pharma", "oda_number": "7"}
	once := Resolve("{{pharmacy_name}} / {{oda_number}} / {{gone}}", ctx)
	twice := Resolve(once, ctx)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{1500.0, "1500"},
		{1500.5, "1500.5"},
		{42, "42"},
	}
	for _, c := range cases {
		if got := Stringify(c.in); got != c.want {
			t.Fatalf("Stringify(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFloat(t *testing.T) {
	ctx := Context{"a": 2.5, "b": "3.5", "c": 4, "d": "junk"}
	if ctx.Float("a") != 2.5 || ctx.Float("b") != 3.5 || ctx.Float("c") != 4 {
		t.Fatal("numeric coercion failed")
	}
	if ctx.Float("d") != 0 || ctx.Float("missing") != 0 {
		t.Fatal("non-numeric values should coerce to 0")
	}
}
