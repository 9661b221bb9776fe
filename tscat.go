package tscat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/loopcontext/tscat/internal/plural"
)

//go:generate mockgen -source=structs.go -package mock_tscat -destination=test/mock/observer.go

const (
	DefaultResourcePath = "./resources/translations"
	catalogExt          = ".ts"
	overflowStatKey     = "__overflow__"
)

// Translator resolves translations from loaded catalogs. Lookups that miss
// return the source text.
type Translator interface {
	// AddCatalog loads a catalog built in code. It is kept across Reload.
	AddCatalog(c *Catalog) error
	Translate(ctx context.Context, contextName string, source string, disambiguation string, n int) string
	TranslateDef(ctx context.Context, def Def, n int) string
}

type observerEventType int

const (
	observerEventLanguageFallback observerEventType = iota
	observerEventLanguageMissing
	observerEventMessageMissing
)

type observerEvent struct {
	kind      observerEventType
	requested string
	resolved  string
	lang      string
	context   string
	source    string
}

type statKind int

const (
	statLanguageFallbacks statKind = iota
	statMissingLanguages
	statMissingMessages
	statDroppedEvents
)

type translatorStats struct {
	mu                sync.Mutex
	languageFallbacks map[string]int
	missingLanguages  map[string]int
	missingMessages   map[string]int
	droppedEvents     map[string]int
	maxKeys           int
	lastReloadAt      time.Time
}

func sanitizeStatKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "unknown"
	}
	if len(key) > 120 {
		return key[:120]
	}
	return key
}

// counter returns the map for kind. The caller must hold s.mu, since reset
// replaces the maps.
func (s *translatorStats) counter(kind statKind) map[string]int {
	switch kind {
	case statLanguageFallbacks:
		return s.languageFallbacks
	case statMissingLanguages:
		return s.missingLanguages
	case statMissingMessages:
		return s.missingMessages
	case statDroppedEvents:
		return s.droppedEvents
	}
	return nil
}

func (s *translatorStats) increment(kind statKind, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.counter(kind)
	if target == nil {
		return
	}
	key = sanitizeStatKey(key)
	if s.maxKeys > 0 {
		if _, exists := target[key]; !exists {
			if _, hasOverflow := target[overflowStatKey]; hasOverflow {
				if len(target) >= s.maxKeys {
					key = overflowStatKey
				}
			} else if len(target) >= s.maxKeys-1 {
				key = overflowStatKey
			}
		}
	}
	target[key]++
}

func (s *translatorStats) setLastReloadAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReloadAt = t
}

func (s *translatorStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languageFallbacks = map[string]int{}
	s.missingLanguages = map[string]int{}
	s.missingMessages = map[string]int{}
	s.droppedEvents = map[string]int{}
	s.lastReloadAt = time.Time{}
}

func (s *translatorStats) snapshot() TranslatorStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	copyMap := func(input map[string]int) map[string]int {
		output := make(map[string]int, len(input))
		for k, v := range input {
			output[k] = v
		}
		return output
	}

	return TranslatorStats{
		LanguageFallbacks: copyMap(s.languageFallbacks),
		MissingLanguages:  copyMap(s.missingLanguages),
		MissingMessages:   copyMap(s.missingMessages),
		DroppedEvents:     copyMap(s.droppedEvents),
		LastReloadAt:      s.lastReloadAt,
	}
}

type langIndex map[Key]*Message

type loadedCatalog struct {
	lang    string
	catalog *Catalog
}

type DefaultTranslator struct {
	mu              sync.RWMutex
	index           map[string]langIndex
	runtimeCatalogs []loadedCatalog
	cfg             Config
	stats           translatorStats
	observerCh      chan observerEvent
	observerDone    chan struct{}
}

func normalizeLangTag(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	if tag, err := language.Parse(lang); err == nil {
		lang = tag.String()
	}
	return strings.ToLower(lang)
}

func baseLangTag(lang string) string {
	if idx := strings.Index(lang, "-"); idx > 0 {
		return lang[:idx]
	}
	return lang
}

func appendLangIfMissing(target *[]string, seen map[string]struct{}, lang string) {
	if lang == "" {
		return
	}
	if _, exists := seen[lang]; exists {
		return
	}
	seen[lang] = struct{}{}
	*target = append(*target, lang)
}

// LanguageFromFilename returns the normalized language suffix of names such as
// racer_de.ts or editor_pt_BR.ts.
func LanguageFromFilename(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return normalizeLangTag(stem)
	}
	last := parts[len(parts)-1]
	if len(parts) >= 3 && len(last) == 2 && strings.ToUpper(last) == last {
		return normalizeLangTag(parts[len(parts)-2] + "-" + last)
	}
	return normalizeLangTag(last)
}

func catalogLanguage(c *Catalog, filename string) string {
	if lang := normalizeLangTag(c.Language); lang != "" {
		return lang
	}
	if filename == "" {
		return ""
	}
	return LanguageFromFilename(filename)
}

func (dt *DefaultTranslator) readCatalogs() ([]loadedCatalog, error) {
	resourcePath := dt.cfg.ResourcePath
	if resourcePath == "" {
		resourcePath = DefaultResourcePath
	}

	entries, err := os.ReadDir(resourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to find catalogs: %w", err)
	}

	var loaded []loadedCatalog
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != catalogExt {
			continue
		}
		path := filepath.Join(resourcePath, entry.Name())
		catalog, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		lang := catalogLanguage(catalog, entry.Name())
		if lang == "" {
			return nil, fmt.Errorf("catalog %s: cannot determine language", path)
		}
		loaded = append(loaded, loadedCatalog{lang: lang, catalog: catalog})
	}
	return loaded, nil
}

func (dt *DefaultTranslator) readCatalogsWithRetry() ([]loadedCatalog, error) {
	retries := dt.cfg.ReloadRetries
	if retries < 0 {
		retries = 0
	}
	delay := dt.cfg.ReloadRetryDelay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		loaded, err := dt.readCatalogs()
		if err == nil {
			return loaded, nil
		}
		lastErr = err
		if attempt < retries {
			time.Sleep(delay)
		}
	}

	return nil, lastErr
}

// servable reports whether a message may answer lookups.
func (dt *DefaultTranslator) servable(m *Message) bool {
	switch m.Status {
	case StatusFinished:
	case StatusUnfinished:
		if dt.cfg.SkipUnfinished {
			return false
		}
	default:
		return false
	}
	return m.hasAnyTranslation()
}

func (dt *DefaultTranslator) indexCatalog(index map[string]langIndex, lc loadedCatalog) {
	li, ok := index[lc.lang]
	if !ok {
		li = langIndex{}
		index[lc.lang] = li
	}
	for _, ctx := range lc.catalog.Contexts {
		for _, m := range ctx.Messages {
			if !dt.servable(m) {
				continue
			}
			li[Key{Context: ctx.Name, Source: m.Source, Comment: m.Comment}] = m.clone()
		}
	}
}

func (dt *DefaultTranslator) load() error {
	loaded, err := dt.readCatalogsWithRetry()
	if err != nil {
		return err
	}

	dt.mu.Lock()
	defer dt.mu.Unlock()
	index := map[string]langIndex{}
	for _, lc := range loaded {
		dt.indexCatalog(index, lc)
	}
	for _, lc := range dt.runtimeCatalogs {
		dt.indexCatalog(index, lc)
	}
	dt.index = index
	dt.stats.setLastReloadAt(dt.cfg.NowFn())

	return nil
}

func safeObserverCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func (dt *DefaultTranslator) startObserverWorker() {
	if dt.cfg.Observer == nil || dt.observerCh != nil {
		return
	}
	dt.observerCh = make(chan observerEvent, dt.cfg.ObserverBuffer)
	dt.observerDone = make(chan struct{})
	go func() {
		defer close(dt.observerDone)
		for evt := range dt.observerCh {
			switch evt.kind {
			case observerEventLanguageFallback:
				safeObserverCall(func() {
					dt.cfg.Observer.OnLanguageFallback(evt.requested, evt.resolved)
				})
			case observerEventLanguageMissing:
				safeObserverCall(func() {
					dt.cfg.Observer.OnLanguageMissing(evt.lang)
				})
			case observerEventMessageMissing:
				safeObserverCall(func() {
					dt.cfg.Observer.OnMessageMissing(evt.lang, evt.context, evt.source)
				})
			}
		}
	}()
}

func (dt *DefaultTranslator) stopObserverWorker() {
	if dt.observerCh == nil {
		return
	}
	close(dt.observerCh)
	<-dt.observerDone
	dt.observerCh = nil
	dt.observerDone = nil
}

func (dt *DefaultTranslator) publishObserverEvent(evt observerEvent) {
	if dt.cfg.Observer == nil {
		return
	}
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	if dt.observerCh == nil {
		dt.stats.increment(statDroppedEvents, "observer_closed")
		return
	}
	select {
	case dt.observerCh <- evt:
	default:
		dt.stats.increment(statDroppedEvents, "observer_queue_full")
	}
}

func (dt *DefaultTranslator) onLanguageFallback(requestedLang string, resolvedLang string) {
	dt.stats.increment(statLanguageFallbacks, requestedLang+"->"+resolvedLang)
	dt.publishObserverEvent(observerEvent{
		kind:      observerEventLanguageFallback,
		requested: requestedLang,
		resolved:  resolvedLang,
	})
}

func (dt *DefaultTranslator) onLanguageMissing(lang string) {
	dt.stats.increment(statMissingLanguages, lang)
	dt.publishObserverEvent(observerEvent{
		kind: observerEventLanguageMissing,
		lang: lang,
	})
}

func (dt *DefaultTranslator) onMessageMissing(lang string, contextName string, source string) {
	dt.stats.increment(statMissingMessages, lang+":"+contextName+":"+source)
	dt.publishObserverEvent(observerEvent{
		kind:    observerEventMessageMissing,
		lang:    lang,
		context: contextName,
		source:  source,
	})
}

func (dt *DefaultTranslator) resolveRequestedLang(ctx context.Context) string {
	lang := normalizeLangTag(dt.cfg.DefaultLanguage)
	if lang == "" {
		lang = "en"
	}
	if ctx == nil {
		return lang
	}

	// Callers may use either the typed key or a plain string key.
	if langKeyVal := ctx.Value(dt.cfg.CtxLanguageKey); langKeyVal != nil {
		return normalizeLangTag(fmt.Sprintf("%v", langKeyVal))
	}
	if langKeyVal := ctx.Value(string(dt.cfg.CtxLanguageKey)); langKeyVal != nil {
		return normalizeLangTag(fmt.Sprintf("%v", langKeyVal))
	}

	return lang
}

// regionalVariants lists the loaded languages whose base is base, sorted. The
// caller must hold dt.mu.
func (dt *DefaultTranslator) regionalVariants(base string) []string {
	if base == "" {
		return nil
	}
	var variants []string
	for lang := range dt.index {
		if strings.HasPrefix(lang, base+"-") {
			variants = append(variants, lang)
		}
	}
	sort.Strings(variants)
	return variants
}

func (dt *DefaultTranslator) resolveLanguage(requestedLang string) (string, bool, bool) {
	normalizedRequested := normalizeLangTag(requestedLang)
	if normalizedRequested == "" {
		normalizedRequested = "en"
	}

	dt.mu.RLock()
	defer dt.mu.RUnlock()

	base := baseLangTag(normalizedRequested)
	candidates := make([]string, 0, 8)
	seen := map[string]struct{}{}
	appendLangIfMissing(&candidates, seen, normalizedRequested)
	appendLangIfMissing(&candidates, seen, base)
	// A catalog with a regional header (de_DE) still serves its base language.
	for _, variant := range dt.regionalVariants(base) {
		appendLangIfMissing(&candidates, seen, variant)
	}
	for _, lang := range dt.cfg.FallbackLanguages {
		appendLangIfMissing(&candidates, seen, normalizeLangTag(lang))
	}
	appendLangIfMissing(&candidates, seen, normalizeLangTag(dt.cfg.DefaultLanguage))
	appendLangIfMissing(&candidates, seen, "en")

	for _, candidate := range candidates {
		if _, found := dt.index[candidate]; found {
			return candidate, true, candidate != normalizedRequested
		}
	}

	return normalizedRequested, false, false
}

func groupDigits(input string, separator string) string {
	sign := ""
	if strings.HasPrefix(input, "-") {
		sign = "-"
		input = input[1:]
	}
	if len(input) <= 3 {
		return sign + input
	}
	start := len(input) % 3
	if start == 0 {
		start = 3
	}
	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(input[:start])
	for i := start; i < len(input); i += 3 {
		b.WriteString(separator)
		b.WriteString(input[i : i+3])
	}
	return b.String()
}

func formatCountByLang(lang string, n int) string {
	groupSeparator := ","
	switch baseLangTag(lang) {
	case "es", "pt", "de", "it", "nl", "tr":
		groupSeparator = "."
	case "fr", "ru", "pl", "cs", "fi", "sv":
		groupSeparator = "\u00a0"
	}
	return groupDigits(strconv.Itoa(n), groupSeparator)
}

// renderCount replaces %n and %Ln when a count was given.
func renderCount(lang string, text string, n int) string {
	if n < 0 || !strings.Contains(text, "%") {
		return text
	}
	text = strings.ReplaceAll(text, "%Ln", formatCountByLang(lang, n))
	return strings.ReplaceAll(text, "%n", strconv.Itoa(n))
}

func pickText(lang string, m *Message, n int) string {
	if !m.Numerus || len(m.NumerusForms) == 0 {
		return m.Translation
	}
	idx := 0
	if n >= 0 {
		idx = plural.Index(lang, n)
	}
	if idx >= len(m.NumerusForms) {
		return ""
	}
	return m.NumerusForms[idx]
}

func (dt *DefaultTranslator) lookup(lang string, contextName string, source string, disambiguation string, n int) (string, bool) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	li := dt.index[lang]
	keys := []Key{{Context: contextName, Source: source, Comment: disambiguation}}
	if disambiguation != "" {
		keys = append(keys, Key{Context: contextName, Source: source})
	}
	for _, key := range keys {
		m, found := li[key]
		if !found {
			continue
		}
		if text := pickText(lang, m, n); text != "" {
			return text, true
		}
	}
	return "", false
}

func (dt *DefaultTranslator) AddCatalog(c *Catalog) error {
	if c == nil {
		return fmt.Errorf("catalog is required")
	}
	lang := catalogLanguage(c, "")
	if lang == "" {
		return fmt.Errorf("catalog language is required")
	}

	dt.mu.Lock()
	defer dt.mu.Unlock()
	if dt.index == nil {
		dt.index = map[string]langIndex{}
	}
	lc := loadedCatalog{lang: lang, catalog: c}
	dt.runtimeCatalogs = append(dt.runtimeCatalogs, lc)
	dt.indexCatalog(dt.index, lc)

	return nil
}

func (dt *DefaultTranslator) Translate(ctx context.Context, contextName string, source string, disambiguation string, n int) string {
	requestedLang := dt.resolveRequestedLang(ctx)
	resolvedLang, foundLang, usedFallback := dt.resolveLanguage(requestedLang)
	if !foundLang {
		dt.onLanguageMissing(requestedLang)
		return renderCount(requestedLang, source, n)
	}
	if usedFallback {
		dt.onLanguageFallback(requestedLang, resolvedLang)
	}

	text, found := dt.lookup(resolvedLang, contextName, source, disambiguation, n)
	if !found {
		dt.onMessageMissing(resolvedLang, contextName, source)
		return renderCount(resolvedLang, source, n)
	}
	return renderCount(resolvedLang, text, n)
}

func (dt *DefaultTranslator) TranslateDef(ctx context.Context, def Def, n int) string {
	return dt.Translate(ctx, def.Context, def.Source, def.Comment, n)
}

// Languages lists the loaded languages, sorted.
func (dt *DefaultTranslator) Languages() []string {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	langs := make([]string, 0, len(dt.index))
	for lang := range dt.index {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// MatchLanguage picks the loaded language that best serves an Accept-Language
// header value. It returns the default language when nothing matches.
func (dt *DefaultTranslator) MatchLanguage(acceptLanguage string) string {
	fallback := normalizeLangTag(dt.cfg.DefaultLanguage)
	langs := dt.Languages()
	if len(langs) == 0 {
		return fallback
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return fallback
	}
	supported := make([]language.Tag, 0, len(langs)+1)
	// The first supported tag is what the matcher returns on no match.
	supported = append(supported, language.Make(fallback))
	for _, lang := range langs {
		supported = append(supported, language.Make(lang))
	}
	_, idx, conf := language.NewMatcher(supported).Match(desired...)
	if conf == language.No || idx == 0 {
		return fallback
	}
	return langs[idx-1]
}

func (dt *DefaultTranslator) Reload() error {
	return dt.load()
}

func (dt *DefaultTranslator) SnapshotStats() TranslatorStats {
	return dt.stats.snapshot()
}

func (dt *DefaultTranslator) ResetStats() {
	dt.stats.reset()
}

func (dt *DefaultTranslator) Close() {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.stopObserverWorker()
}

func Reload(translator Translator) error {
	reloadable, ok := translator.(interface{ Reload() error })
	if !ok {
		return fmt.Errorf("translator does not support reload")
	}
	return reloadable.Reload()
}

func SnapshotStats(translator Translator) (TranslatorStats, error) {
	statsProvider, ok := translator.(interface{ SnapshotStats() TranslatorStats })
	if !ok {
		return TranslatorStats{}, fmt.Errorf("translator does not support stats snapshots")
	}
	return statsProvider.SnapshotStats(), nil
}

func ResetStats(translator Translator) error {
	statsProvider, ok := translator.(interface{ ResetStats() })
	if !ok {
		return fmt.Errorf("translator does not support stats reset")
	}
	statsProvider.ResetStats()
	return nil
}

func Close(translator Translator) error {
	closer, ok := translator.(interface{ Close() })
	if !ok {
		return fmt.Errorf("translator does not support close")
	}
	closer.Close()
	return nil
}

func NewTranslator(cfg Config) (Translator, error) {
	if cfg.CtxLanguageKey == "" {
		cfg.CtxLanguageKey = "language"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.NowFn == nil {
		cfg.NowFn = time.Now
	}
	if cfg.ObserverBuffer <= 0 {
		cfg.ObserverBuffer = 1024
	}
	if cfg.StatsMaxKeys <= 0 {
		cfg.StatsMaxKeys = 512
	}
	if cfg.ReloadRetries < 0 {
		cfg.ReloadRetries = 0
	}
	if cfg.ReloadRetryDelay <= 0 {
		cfg.ReloadRetryDelay = 50 * time.Millisecond
	}

	dt := DefaultTranslator{
		cfg: cfg,
		stats: translatorStats{
			languageFallbacks: map[string]int{},
			missingLanguages:  map[string]int{},
			missingMessages:   map[string]int{},
			droppedEvents:     map[string]int{},
			maxKeys:           cfg.StatsMaxKeys,
		},
	}
	err := dt.load()
	if err == nil {
		dt.startObserverWorker()
	}

	return &dt, err
}
