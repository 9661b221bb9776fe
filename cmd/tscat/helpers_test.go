package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

// parseVar returns the initializer of the package-level var name in src.
func parseVar(t *testing.T, src string, name string) ast.Expr {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "p.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if ok && vs.Names[0].Name == name {
				return vs.Values[0]
			}
		}
	}
	t.Fatalf("var %s not found", name)
	return nil
}

const racerDE = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de" sourcelanguage="en">
<context>
    <name>RaceHud</name>
    <message>
        <source>Pit stop!</source>
        <translation>Boxenstopp!</translation>
    </message>
    <message>
        <source>Fuel</source>
        <translation>Benzin</translation>
    </message>
    <message>
        <source>Tires</source>
        <translation type="unfinished"></translation>
    </message>
    <message numerus="yes">
        <source>%n lap(s) left</source>
        <translation>
            <numerusform>Noch %n Runde</numerusform>
            <numerusform>Noch %n Runden</numerusform>
        </translation>
    </message>
</context>
</TS>
`
