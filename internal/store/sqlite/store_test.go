package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loopcontext/tscat"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func hud(lang string, pit string) *tscat.Catalog {
	return &tscat.Catalog{
		Version:        "2.1",
		Language:       lang,
		SourceLanguage: "en",
		Contexts: []*tscat.Context{
			{Name: "RaceHud", Comment: "in-race overlay", Messages: []*tscat.Message{
				{Source: "Pit stop!", Translation: pit, Locations: []tscat.Location{{Filename: "hud.go", Line: "31"}}},
				{Source: "%n lap(s) left", Numerus: true, NumerusForms: []string{"Noch %n Runde", "Noch %n Runden"}},
				{Source: "Tires", Status: tscat.StatusUnfinished, TranslatorComment: "Reifen?"},
			}},
			{Name: "Menu", Messages: []*tscat.Message{
				{Source: "Quit", Translation: "Beenden", ExtraComment: "main menu"},
			}},
			{Name: "RaceHud", Messages: []*tscat.Message{
				{Source: "Lap detection", Translation: "Rundenerkennung", Status: tscat.StatusVanished},
			}},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	first, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.SaveCatalog(context.Background(), "racer", hud("de", "Boxenstopp!")); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = first.Close()

	second, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	entries, err := second.Catalogs(context.Background())
	if err != nil || len(entries) != 1 {
		t.Fatalf("catalogs after reopen = %v, %v", entries, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	want := hud("de_DE", "Boxenstopp!")
	if err := store.SaveCatalog(ctx, "racer", want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.LoadCatalog(ctx, "racer", "de-DE")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Language != "de-de" || got.SourceLanguage != "en" || got.Version != "2.1" {
		t.Errorf("header = %q %q %q", got.Language, got.SourceLanguage, got.Version)
	}
	if len(got.Contexts) != 3 {
		t.Fatalf("got %d contexts, want 3 (repeated context names stay separate)", len(got.Contexts))
	}
	if got.Contexts[0].Comment != "in-race overlay" || got.Contexts[1].Name != "Menu" {
		t.Errorf("contexts = %q/%q", got.Contexts[0].Comment, got.Contexts[1].Name)
	}

	pit := got.Contexts[0].Messages[0]
	if pit.Translation != "Boxenstopp!" || len(pit.Locations) != 1 || pit.Locations[0].Line != "31" {
		t.Errorf("pit stop = %+v", pit)
	}
	laps := got.Contexts[0].Messages[1]
	if !laps.Numerus || strings.Join(laps.NumerusForms, "|") != "Noch %n Runde|Noch %n Runden" {
		t.Errorf("laps = %+v", laps)
	}
	tires := got.Contexts[0].Messages[2]
	if tires.Status != tscat.StatusUnfinished || tires.TranslatorComment != "Reifen?" {
		t.Errorf("tires = %+v", tires)
	}
	if got.Summarize() != want.Summarize() {
		t.Errorf("counts = %+v, want %+v", got.Summarize(), want.Summarize())
	}
}

func TestSaveReplaces(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }

	if err := store.SaveCatalog(ctx, "racer", hud("de", "Boxenstopp!")); err != nil {
		t.Fatalf("save: %v", err)
	}
	smaller := &tscat.Catalog{Language: "de", Contexts: []*tscat.Context{{Name: "Menu", Messages: []*tscat.Message{{Source: "Quit", Translation: "Ende"}}}}}
	if err := store.SaveCatalog(ctx, "racer", smaller); err != nil {
		t.Fatalf("resave: %v", err)
	}

	entries, err := store.Catalogs(ctx)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	if len(entries) != 1 || entries[0].Messages != 1 || !entries[0].SavedAt.Equal(store.now()) {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSaveValidation(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	if err := store.SaveCatalog(ctx, "", hud("de", "x")); err == nil {
		t.Error("expected name error")
	}
	if err := store.SaveCatalog(ctx, "racer", &tscat.Catalog{}); err == nil {
		t.Error("expected language error")
	}
	if _, err := store.LoadCatalog(ctx, "racer", "fi"); err == nil {
		t.Error("expected not found error")
	}
}

func TestSuggest(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	for name, pit := range map[string]string{"racer": "Boxenstopp!", "editor": "Boxenstopp!", "launcher": "Reparaturstopp"} {
		if err := store.SaveCatalog(ctx, name, hud("de", pit)); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	if err := store.SaveCatalog(ctx, "racer", hud("pt_BR", "Parada nos boxes!")); err != nil {
		t.Fatalf("save pt: %v", err)
	}

	got, err := store.Suggest(ctx, "de", "Pit stop!")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if strings.Join(got, "|") != "Boxenstopp!|Reparaturstopp" {
		t.Errorf("suggestions = %q", got)
	}

	for _, source := range []string{"Tires", "Lap detection", "%n lap(s) left"} {
		if got, _ := store.Suggest(ctx, "de", source); len(got) != 0 {
			t.Errorf("%q: only finished non-numerus messages suggest, got %q", source, got)
		}
	}

	if got, _ := store.Suggest(ctx, "pt", "Pit stop!"); len(got) != 1 || got[0] != "Parada nos boxes!" {
		t.Errorf("base language should match regional catalogs, got %q", got)
	}
}

func TestMemoryFeedsUpdate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	if err := store.SaveCatalog(ctx, "racer", hud("de", "Boxenstopp!")); err != nil {
		t.Fatalf("save: %v", err)
	}

	extracted := &tscat.Catalog{Contexts: []*tscat.Context{{Name: "TrackEditor", Messages: []*tscat.Message{
		{Source: "Pit stop!"},
		{Source: "Checkpoints"},
	}}}}
	updated, report := tscat.Update(&tscat.Catalog{Language: "de"}, extracted, tscat.UpdateOptions{
		SameText: true,
		Memory:   store.Memory(ctx, "de"),
	})
	if report.SameText != 1 {
		t.Errorf("report = %+v", report)
	}
	if m := updated.Find("TrackEditor", "Pit stop!", ""); m.TranslatorComment != "Boxenstopp!" || m.Status != tscat.StatusUnfinished {
		t.Errorf("suggested message = %+v", m)
	}
}
