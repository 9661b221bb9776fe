package test_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/mock/gomock"
	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/test"
	mock_tscat "github.com/loopcontext/tscat/test/mock"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const italianHud = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="it">
<context>
    <name>RaceHud</name>
    <message>
        <source>Pit stop!</source>
        <translation>Sosta ai box!</translation>
    </message>
</context>
</TS>
`

const germanyHud = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de_DE" sourcelanguage="en">
<context>
    <name>RaceHud</name>
    <message>
        <source>Pit stop!</source>
        <translation>Boxenstopp!</translation>
    </message>
</context>
</TS>
`

func copyTranslations(dst string) {
	entries, err := os.ReadDir("./resources/translations")
	Expect(err).NotTo(HaveOccurred())
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join("./resources/translations", entry.Name()))
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(dst, entry.Name()), data, 0644)).To(Succeed())
	}
}

var _ = Describe("Translator", func() {
	var translator tscat.Translator
	var ctx *test.MockContext

	BeforeEach(func() {
		var err error
		ctx = &test.MockContext{Ctx: context.Background()}
		translator, err = tscat.NewTranslator(tscat.Config{})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(tscat.Close(translator)).To(Succeed())
	})

	It("should translate a finished message", func() {
		ctx.SetLanguage("de")
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Boxenstopp!"))
	})

	It("should pick the numerus form for the count", func() {
		ctx.SetLanguage("de")
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "%n lap(s) left", "", 1)).To(Equal("Noch 1 Runde"))
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "%n lap(s) left", "", 4)).To(Equal("Noch 4 Runden"))
	})

	It("should use the disambiguation comment", func() {
		ctx.SetLanguage("de")
		Expect(translator.Translate(ctx.Ctx, "Settings", "Tires", "car setup tab", -1)).To(Equal("Reifen"))
		Expect(translator.TranslateDef(ctx.Ctx, tscat.Def{Context: "Settings", Source: "Tires", Comment: "car setup tab"}, -1)).To(Equal("Reifen"))
	})

	It("should return the source for unfinished, vanished and obsolete messages", func() {
		ctx.SetLanguage("de")
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "Tires", "", -1)).To(Equal("Tires"))
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "Lap detection", "", -1)).To(Equal("Lap detection"))
		Expect(translator.Translate(ctx.Ctx, "TrackEditor", "Driving lines", "", -1)).To(Equal("Driving lines"))

		stats, err := tscat.SnapshotStats(translator)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MissingMessages).To(HaveKeyWithValue("de:RaceHud:Tires", 1))
	})

	It("should merge catalogs of the same language and take the language from the filename", func() {
		ctx.SetLanguage("de")
		Expect(translator.Translate(ctx.Ctx, "TrackEditor", "Checkpoints", "", -1)).To(Equal("Kontrollpunkte"))
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Boxenstopp!"))
	})

	It("should fall back to the base language", func() {
		ctx.SetLanguage("es-AR")
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("¡Parada en boxes!"))
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "%n lap(s) left", "", 3)).To(Equal("Quedan 3 vueltas"))

		stats, err := tscat.SnapshotStats(translator)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.LanguageFallbacks).To(HaveKeyWithValue("es-ar->es", 2))
	})

	It("should serve a base language request from a regional catalog", func() {
		dir, err := os.MkdirTemp("", "tscat")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		Expect(os.WriteFile(filepath.Join(dir, "racer_de.ts"), []byte(germanyHud), 0644)).To(Succeed())

		regional, err := tscat.NewTranslator(tscat.Config{ResourcePath: dir})
		Expect(err).NotTo(HaveOccurred())
		defer tscat.Close(regional)
		Expect(regional.(*tscat.DefaultTranslator).Languages()).To(Equal([]string{"de-de"}))

		ctx.SetLanguage("de")
		Expect(regional.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Boxenstopp!"))
		ctx.SetLanguage("de-AT")
		Expect(regional.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Boxenstopp!"))

		stats, err := tscat.SnapshotStats(regional)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.LanguageFallbacks).To(HaveKeyWithValue("de->de-de", 1))
		Expect(stats.LanguageFallbacks).To(HaveKeyWithValue("de-at->de-de", 1))
	})

	It("should return the source when no language matches", func() {
		ctx.SetLanguage("fr")
		Expect(translator.Translate(ctx.Ctx, "RaceHud", "%n lap(s) left", "", 2)).To(Equal("2 lap(s) left"))

		stats, err := tscat.SnapshotStats(translator)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MissingLanguages).To(HaveKeyWithValue("fr", 1))

		Expect(tscat.ResetStats(translator)).To(Succeed())
		stats, _ = tscat.SnapshotStats(translator)
		Expect(stats.MissingLanguages).To(BeEmpty())
	})

	It("should read the language from a typed context key", func() {
		typed, err := tscat.NewTranslator(tscat.Config{CtxLanguageKey: tscat.ContextKey("lang")})
		Expect(err).NotTo(HaveOccurred())
		defer tscat.Close(typed)

		ctx.SetValue(tscat.ContextKey("lang"), "es")
		Expect(typed.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("¡Parada en boxes!"))
	})

	It("should match Accept-Language headers against loaded languages", func() {
		dt := translator.(*tscat.DefaultTranslator)
		Expect(dt.Languages()).To(Equal([]string{"de", "es"}))
		Expect(dt.MatchLanguage("es-MX,es;q=0.9,de;q=0.5")).To(Equal("es"))
		Expect(dt.MatchLanguage("de-CH")).To(Equal("de"))
		Expect(dt.MatchLanguage("ja")).To(Equal("en"))
		Expect(dt.MatchLanguage("")).To(Equal("en"))
	})

	Context("runtime catalogs and reload", func() {
		It("should keep catalogs added in code across reload", func() {
			runtime, err := tscat.Decode(strings.NewReader(italianHud))
			Expect(err).NotTo(HaveOccurred())
			Expect(translator.AddCatalog(runtime)).To(Succeed())

			ctx.SetLanguage("it")
			Expect(translator.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Sosta ai box!"))
			Expect(tscat.Reload(translator)).To(Succeed())
			Expect(translator.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Sosta ai box!"))
		})

		It("should reject catalogs without a language", func() {
			Expect(translator.AddCatalog(&tscat.Catalog{})).NotTo(Succeed())
			Expect(translator.AddCatalog(nil)).NotTo(Succeed())
		})

		It("should pick up files written after start", func() {
			dir, err := os.MkdirTemp("", "tscat")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(dir)
			copyTranslations(dir)

			reloading, err := tscat.NewTranslator(tscat.Config{ResourcePath: dir})
			Expect(err).NotTo(HaveOccurred())
			defer tscat.Close(reloading)

			ctx.SetLanguage("it")
			Expect(reloading.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Pit stop!"))

			Expect(os.WriteFile(filepath.Join(dir, "racer_it.ts"), []byte(italianHud), 0644)).To(Succeed())
			Expect(tscat.Reload(reloading)).To(Succeed())
			Expect(reloading.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Sosta ai box!"))

			stats, err := tscat.SnapshotStats(reloading)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.LastReloadAt.IsZero()).To(BeFalse())
		})

		It("should fail on a missing resource path", func() {
			_, err := tscat.NewTranslator(tscat.Config{ResourcePath: "./resources/nowhere"})
			Expect(err).To(HaveOccurred())
		})

		It("should serve lookups while reloading", func() {
			ctx.SetLanguage("de")
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for j := 0; j < 50; j++ {
						Expect(translator.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Boxenstopp!"))
					}
				}()
			}
			for i := 0; i < 5; i++ {
				Expect(tscat.Reload(translator)).To(Succeed())
			}
			wg.Wait()
		})
	})

	Context("observer", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should be told about fallbacks and misses", func() {
			observer := mock_tscat.NewMockObserver(mockCtrl)
			observer.EXPECT().OnLanguageFallback("es-ar", "es").Times(1)
			observer.EXPECT().OnLanguageMissing("fr").Times(1)
			observer.EXPECT().OnMessageMissing("de", "RaceHud", "Tires").Times(1)

			observed, err := tscat.NewTranslator(tscat.Config{Observer: observer})
			Expect(err).NotTo(HaveOccurred())

			ctx.SetLanguage("es-AR")
			observed.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)
			fr := &test.MockContext{Ctx: context.Background()}
			fr.SetLanguage("fr")
			observed.Translate(fr.Ctx, "RaceHud", "Pit stop!", "", -1)
			de := &test.MockContext{Ctx: context.Background()}
			de.SetLanguage("de")
			observed.Translate(de.Ctx, "RaceHud", "Tires", "", -1)

			// Close drains the queue so every expected call has happened.
			Expect(tscat.Close(observed)).To(Succeed())
		})

		It("should survive a panicking observer and count events after close", func() {
			observer := mock_tscat.NewMockObserver(mockCtrl)
			observer.EXPECT().OnLanguageMissing("fr").Do(func(string) { panic("boom") })

			observed, err := tscat.NewTranslator(tscat.Config{Observer: observer})
			Expect(err).NotTo(HaveOccurred())

			ctx.SetLanguage("fr")
			Expect(observed.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)).To(Equal("Pit stop!"))
			Expect(tscat.Close(observed)).To(Succeed())

			observed.Translate(ctx.Ctx, "RaceHud", "Pit stop!", "", -1)
			stats, err := tscat.SnapshotStats(observed)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.DroppedEvents).To(HaveKeyWithValue("observer_closed", 1))
		})
	})
})
