package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/paper"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)

	doc := billforge.New(billforge.WithPaper(paper.A5))
	doc.Set("title", billforge.ElementSpec{Kind: billforge.KindText, Text: "CASH MEMO", X: 297, Y: 115})

	v, err := s.Save("counter", doc)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if v.ID == "" || v.Name != "counter" {
		t.Fatalf("bad version descriptor: %+v", v)
	}

	got, err := s.Load("counter")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Meta.Paper != paper.A5 {
		t.Fatalf("paper = %q, want A5", got.Meta.Paper)
	}
	if el, _ := got.Get("title"); el.Text != "CASH MEMO" {
		t.Fatalf("title = %q", el.Text)
	}
}

func TestLoadMissingTemplate(t *testing.T) {
	s := openStore(t)
	if _, err := s.Load("ghost"); !errors.Is(err, billforge.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestLoadResolvesNewestVersion(t *testing.T) {
	s := openStore(t)

	first := billforge.Default()
	if _, err := s.Save("counter", first); err != nil {
		t.Fatal(err)
	}

	second := billforge.Default()
	second.Set("title", billforge.ElementSpec{Kind: billforge.KindText, Text: "CREDIT MEMO", X: 297, Y: 115})
	v2, err := s.Save("counter", second)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("counter")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if el, _ := got.Get("title"); el.Text != "CREDIT MEMO" {
		t.Fatalf("Load did not resolve newest version: title=%q", el.Text)
	}

	versions, err := s.Versions("counter")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[1].ID != v2.ID {
		t.Fatalf("newest version = %s, want %s", versions[1].ID, v2.ID)
	}
}

func TestLoadVersion(t *testing.T) {
	s := openStore(t)

	doc := billforge.Default()
	doc.Set("title", billforge.ElementSpec{Kind: billforge.KindText, Text: "OLD TITLE", X: 297, Y: 115})
	v1, err := s.Save("counter", doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	old, err := s.LoadVersion("counter", v1.ID)
	if err != nil {
		t.Fatalf("LoadVersion failed: %v", err)
	}
	if el, _ := old.Get("title"); el.Text != "OLD TITLE" {
		t.Fatalf("title = %q, want the old version", el.Text)
	}

	if _, err := s.LoadVersion("counter", "nope"); !errors.Is(err, billforge.ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestLoadCorruptFileDegradesToDefaults(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	// Clobber the saved version on disk.
	versions, err := s.Versions("counter")
	if err != nil {
		t.Fatal(err)
	}
	path := s.versionPath("counter", versions[0])
	if err := os.WriteFile(path, []byte("{{{ not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("counter")
	if err != nil {
		t.Fatalf("Load failed on corrupt file: %v", err)
	}
	if !got.Equal(billforge.Default()) {
		t.Fatal("corrupt template did not degrade to the defaults")
	}
}

func TestLoadReturnsIsolatedCopy(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	a, err := s.Load("counter")
	if err != nil {
		t.Fatal(err)
	}
	a.Set("title", billforge.ElementSpec{Kind: billforge.KindText, Text: "mutated"})

	b, err := s.Load("counter")
	if err != nil {
		t.Fatal(err)
	}
	if el, _ := b.Get("title"); el.Text == "mutated" {
		t.Fatal("cached document leaked a caller's mutation")
	}
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t)
	for _, name := range []string{"counter", "ward", "thermal"} {
		if _, err := s.Save(name, billforge.Default()); err != nil {
			t.Fatal(err)
		}
	}

	names, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 || names[0] != "counter" || names[2] != "ward" {
		t.Fatalf("List = %v", names)
	}

	if err := s.Delete("ward"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load("ward"); !errors.Is(err, billforge.ErrTemplateNotFound) {
		t.Fatalf("deleted template still loads: %v", err)
	}
	if err := s.Delete("ward"); !errors.Is(err, billforge.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound on double delete, got %v", err)
	}
}

func TestSaveRejectsBadNames(t *testing.T) {
	s := openStore(t)
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		if _, err := s.Save(name, billforge.Default()); err == nil {
			t.Fatalf("Save(%q) succeeded", name)
		}
	}
}

// fakeTransport records deliveries and fails the ids it is told to fail.
type fakeTransport struct {
	fail map[string]bool
}

func (f *fakeTransport) Deliver(_ context.Context, clientID string, design Design) error {
	if f.fail[clientID] {
		return fmt.Errorf("client %s unreachable", clientID)
	}
	if design.VersionID == "" || len(design.Template) == 0 {
		return fmt.Errorf("empty design payload")
	}
	return nil
}

type fakeDirectory []string

func (f fakeDirectory) ClientIDs(context.Context) ([]string, error) {
	return f, nil
}

func TestPublishFanOut(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransport{fail: map[string]bool{"9": true}}
	p := NewPublisher(s, tr, nil)

	report, err := p.Publish(context.Background(), "counter", Clients("7", "9"))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(report.Deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(report.Deliveries))
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].ClientID != "9" {
		t.Fatalf("failures = %+v", failed)
	}
	for _, d := range report.Deliveries {
		if d.ClientID == "7" && d.Err != nil {
			t.Fatalf("client 7 should have succeeded: %v", d.Err)
		}
	}
}

func TestPublishAllClients(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	p := NewPublisher(s, &fakeTransport{}, fakeDirectory{"1", "2", "3"})
	report, err := p.Publish(context.Background(), "counter", AllClients())
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(report.Deliveries) != 3 || len(report.Failed()) != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestPublishVersion(t *testing.T) {
	s := openStore(t)
	v1, err := s.Save("counter", billforge.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	p := NewPublisher(s, &fakeTransport{}, nil)
	report, err := p.PublishVersion(context.Background(), "counter", v1.ID, Clients("7"))
	if err != nil {
		t.Fatalf("PublishVersion failed: %v", err)
	}
	if report.VersionID != v1.ID {
		t.Fatalf("published version %s, want %s", report.VersionID, v1.ID)
	}

	if _, err := p.PublishVersion(context.Background(), "counter", "nope", Clients("7")); !errors.Is(err, billforge.ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestPublishRequiresTransport(t *testing.T) {
	s := openStore(t)
	if _, err := s.Save("counter", billforge.Default()); err != nil {
		t.Fatal(err)
	}

	p := NewPublisher(s, nil, nil)
	if _, err := p.Publish(context.Background(), "counter", Clients("7")); !errors.Is(err, billforge.ErrNoTransport) {
		t.Fatalf("expected ErrNoTransport, got %v", err)
	}
}

func TestPublishMissingTemplate(t *testing.T) {
	s := openStore(t)
	p := NewPublisher(s, &fakeTransport{}, nil)
	if _, err := p.Publish(context.Background(), "ghost", Clients("7")); !errors.Is(err, billforge.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}
