package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/config"
)

// extractConfig holds flags for the extract command.
type extractConfig struct {
	paths          []string
	out            string
	language       string
	sourceLanguage string
	includeTests   bool
	tscatPkg       string
	excludeDirs    string
}

func parseExtractFlags(args []string, project config.Project) *extractConfig {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: tscat extract [options] [paths]

Extract walks Go sources and collects every Translate(ctx, "Context", "Source",
"disambiguation", n) call and tscat.Def literal into a template catalog. All
messages are unfinished; locations point at the call sites. A "//:" comment on
the line above a call becomes the message's extra comment.

If no paths are given, scans the project's source_dirs.

Flags:
`)
		fs.PrintDefaults()
	}
	var cfg extractConfig
	fs.StringVar(&cfg.out, "out", project.Template, "Template .ts file to write. Default stdout.")
	fs.StringVar(&cfg.language, "lang", "", "Language attribute of the template (usually empty).")
	fs.StringVar(&cfg.sourceLanguage, "source-lang", project.SourceLanguage, "Source language attribute.")
	fs.BoolVar(&cfg.includeTests, "include-tests", false, "Include _test.go files.")
	fs.StringVar(&cfg.tscatPkg, "tscat-pkg", "github.com/loopcontext/tscat", "Import path of tscat (files not importing it are skipped).")
	fs.StringVar(&cfg.excludeDirs, "exclude", "vendor,testdata", "Comma-separated dir names to skip.")
	_ = fs.Parse(args)
	cfg.paths = fs.Args()
	if len(cfg.paths) == 0 {
		cfg.paths = project.SourceDirs
	}
	return &cfg
}

// messageExtractor collects messages from Go files via the AST.
type messageExtractor struct {
	tscatImport string
	tscatName   string // local name in the current file
	relTo       string // locations are written relative to this dir

	fset     *token.FileSet
	filename string
	notes    map[int]string // end line of a "//:" comment -> text

	catalog  *tscat.Catalog
	contexts map[string]*tscat.Context
	seen     map[tscat.Key]*tscat.Message
}

func newMessageExtractor(tscatImport string, relTo string) *messageExtractor {
	return &messageExtractor{
		tscatImport: tscatImport,
		relTo:       relTo,
		catalog:     &tscat.Catalog{},
		contexts:    map[string]*tscat.Context{},
		seen:        map[tscat.Key]*tscat.Message{},
	}
}

func (e *messageExtractor) extractFromFile(path string, src []byte) error {
	e.fset = token.NewFileSet()
	f, err := parser.ParseFile(e.fset, path, src, parser.ParseComments)
	if err != nil {
		return err
	}
	e.tscatName = e.tscatImportName(f)
	if e.tscatName == "" {
		return nil
	}
	e.filename = filepath.ToSlash(path)
	if e.relTo != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if rel, err := filepath.Rel(e.relTo, abs); err == nil {
				e.filename = filepath.ToSlash(rel)
			}
		}
	}
	e.notes = map[int]string{}
	for _, group := range f.Comments {
		var lines []string
		for _, c := range group.List {
			if strings.HasPrefix(c.Text, "//:") {
				lines = append(lines, strings.TrimSpace(strings.TrimPrefix(c.Text, "//:")))
			}
		}
		if len(lines) > 0 {
			e.notes[e.fset.Position(group.End()).Line] = strings.Join(lines, " ")
		}
	}
	ast.Walk(e, f)
	return nil
}

func (e *messageExtractor) tscatImportName(file *ast.File) string {
	for _, imp := range file.Imports {
		if imp.Path == nil {
			continue
		}
		path := strings.Trim(imp.Path.Value, `"`)
		if path != e.tscatImport {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return "tscat"
	}
	return ""
}

func (e *messageExtractor) Visit(node ast.Node) ast.Visitor {
	if cl, ok := node.(*ast.CompositeLit); ok {
		e.visitCompositeLit(cl)
		return e
	}
	call, ok := node.(*ast.CallExpr)
	if !ok {
		return e
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Translate" || len(call.Args) < 3 {
		return e
	}
	contextName, ok1 := stringLit(call.Args[1])
	source, ok2 := stringLit(call.Args[2])
	if !ok1 || !ok2 {
		return e
	}
	var comment string
	if len(call.Args) > 3 {
		comment, _ = stringLit(call.Args[3])
	}
	numerus := len(call.Args) > 4 && !isNoCount(call.Args[4])
	e.add(call.Pos(), contextName, source, comment, numerus)
	return e
}

func (e *messageExtractor) visitCompositeLit(cl *ast.CompositeLit) {
	switch t := cl.Type.(type) {
	case *ast.SelectorExpr, *ast.StarExpr:
		e.addDef(cl)
	case *ast.ArrayType:
		if e.isDefType(t.Elt) {
			for _, elt := range cl.Elts {
				if inner, ok := elt.(*ast.CompositeLit); ok && inner.Type == nil {
					inner.Type = t.Elt
				}
			}
		}
	case *ast.MapType:
		if e.isDefType(t.Value) {
			for _, elt := range cl.Elts {
				kve, ok := elt.(*ast.KeyValueExpr)
				if !ok {
					continue
				}
				if inner, ok := kve.Value.(*ast.CompositeLit); ok && inner.Type == nil {
					inner.Type = t.Value
				}
			}
		}
	}
}

// isDefType reports whether typ is tscat.Def or *tscat.Def.
func (e *messageExtractor) isDefType(typ ast.Expr) bool {
	var sel *ast.SelectorExpr
	switch t := typ.(type) {
	case *ast.SelectorExpr:
		sel = t
	case *ast.StarExpr:
		sel, _ = t.X.(*ast.SelectorExpr)
	}
	if sel == nil {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	return ok && id.Name == e.tscatName && sel.Sel.Name == "Def"
}

func (e *messageExtractor) addDef(cl *ast.CompositeLit) {
	if !e.isDefType(cl.Type) {
		return
	}
	var def tscat.Def
	for _, elt := range cl.Elts {
		kve, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		name, ok := kve.Key.(*ast.Ident)
		if !ok {
			continue
		}
		switch name.Name {
		case "Context":
			def.Context, _ = stringLit(kve.Value)
		case "Source":
			def.Source, _ = stringLit(kve.Value)
		case "Comment":
			def.Comment, _ = stringLit(kve.Value)
		case "Numerus":
			if id, ok := kve.Value.(*ast.Ident); ok {
				def.Numerus = id.Name == "true"
			}
		}
	}
	if def.Source == "" {
		return
	}
	e.add(cl.Pos(), def.Context, def.Source, def.Comment, def.Numerus)
}

func (e *messageExtractor) add(pos token.Pos, contextName, source, comment string, numerus bool) {
	line := e.fset.Position(pos).Line
	loc := tscat.Location{Filename: e.filename, Line: strconv.Itoa(line)}
	key := tscat.Key{Context: contextName, Source: source, Comment: comment}
	if m, ok := e.seen[key]; ok {
		m.Locations = append(m.Locations, loc)
		m.Numerus = m.Numerus || numerus
		if m.ExtraComment == "" {
			m.ExtraComment = e.notes[line-1]
		}
		return
	}

	ctx, ok := e.contexts[contextName]
	if !ok {
		ctx = &tscat.Context{Name: contextName}
		e.contexts[contextName] = ctx
		e.catalog.Contexts = append(e.catalog.Contexts, ctx)
	}
	m := &tscat.Message{
		Source:       source,
		Comment:      comment,
		ExtraComment: e.notes[line-1],
		Numerus:      numerus,
		Status:       tscat.StatusUnfinished,
		Locations:    []tscat.Location{loc},
	}
	ctx.Messages = append(ctx.Messages, m)
	e.seen[key] = m
}

// stringLit evaluates string literals and constant concatenations of them.
func stringLit(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.BasicLit:
		if t.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(t.Value)
		return s, err == nil
	case *ast.BinaryExpr:
		if t.Op != token.ADD {
			return "", false
		}
		x, okX := stringLit(t.X)
		y, okY := stringLit(t.Y)
		return x + y, okX && okY
	case *ast.ParenExpr:
		return stringLit(t.X)
	}
	return "", false
}

// isNoCount reports whether expr is the literal -1 that marks a call without a
// count.
func isNoCount(expr ast.Expr) bool {
	u, ok := expr.(*ast.UnaryExpr)
	if !ok || u.Op != token.SUB {
		return false
	}
	lit, ok := u.X.(*ast.BasicLit)
	return ok && lit.Kind == token.INT && lit.Value == "1"
}

// goFiles lists the Go files under paths in a stable order.
func goFiles(paths []string, excludeDirs string, includeTests bool) ([]string, error) {
	excludeSet := make(map[string]struct{})
	for _, d := range strings.Split(excludeDirs, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			excludeSet[d] = struct{}{}
		}
	}
	keep := func(p string) bool {
		if filepath.Ext(p) != ".go" {
			return false
		}
		return includeTests || !strings.HasSuffix(p, "_test.go")
	}

	var files []string
	for _, path := range paths {
		path = filepath.Clean(path)
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if keep(path) {
				files = append(files, path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if _, skip := excludeSet[d.Name()]; skip && p != path {
					return filepath.SkipDir
				}
				return nil
			}
			if keep(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// extractTemplate builds the template catalog for cfg. Locations are relative
// to the directory of cfg.out when it is set.
func extractTemplate(cfg *extractConfig) (*tscat.Catalog, error) {
	relTo := ""
	if cfg.out != "" {
		if abs, err := filepath.Abs(filepath.Dir(cfg.out)); err == nil {
			relTo = abs
		}
	}
	files, err := goFiles(cfg.paths, cfg.excludeDirs, cfg.includeTests)
	if err != nil {
		return nil, err
	}
	ext := newMessageExtractor(cfg.tscatPkg, relTo)
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := ext.extractFromFile(path, src); err != nil {
			return nil, err
		}
	}
	ext.catalog.Language = cfg.language
	ext.catalog.SourceLanguage = cfg.sourceLanguage
	return ext.catalog, nil
}

func runExtract(cfg *extractConfig, stdout io.Writer) error {
	template, err := extractTemplate(cfg)
	if err != nil {
		return err
	}
	if cfg.out == "" {
		return tscat.Encode(stdout, template)
	}
	if err := tscat.WriteFile(cfg.out, template); err != nil {
		return err
	}
	counts := template.Summarize()
	log.Printf("wrote %s (%d message(s) in %d context(s))", cfg.out, counts.Unfinished, len(template.Contexts))
	return nil
}
