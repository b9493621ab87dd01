package jsonutil

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func goSources(t *testing.T, dirs ...string) []string {
	t.Helper()
	var files []string
	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s: %v", dir, err)
		}
	}
	return files
}

var repoDirs = []string{filepath.Join("..", "..", "pkg"), filepath.Join("..", "..", "cmd")}

// TestNoEncodingJSON ensures production code goes through this package
// rather than importing encoding/json directly.
func TestNoEncodingJSON(t *testing.T) {
	var violations []string
	for _, path := range goSources(t, repoDirs...) {
		if filepath.Base(filepath.Dir(path)) == "jsonutil" {
			continue
		}
		f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		for _, imp := range f.Imports {
			if p, _ := strconv.Unquote(imp.Path.Value); p == "encoding/json" {
				violations = append(violations, path)
			}
		}
	}
	for _, v := range violations {
		t.Errorf("%s imports encoding/json; use pkg/jsonutil", v)
	}
}

// TestNoLocalStatusType ensures finding.Status is the only status type.
func TestNoLocalStatusType(t *testing.T) {
	for _, path := range goSources(t, repoDirs...) {
		f, err := parser.ParseFile(token.NewFileSet(), path, nil, 0)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		if f.Name.Name == "finding" {
			continue
		}
		for _, decl := range f.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok && ts.Name.Name == "Status" && !ts.Assign.IsValid() {
					t.Errorf("%s declares type Status; use finding.Status", path)
				}
			}
		}
	}
}
