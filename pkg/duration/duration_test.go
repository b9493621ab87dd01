package duration_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNoHardcodedTimeouts ensures Timeout fields use duration.* constants.
func TestNoHardcodedTimeouts(t *testing.T) {
	violations := findHardcodedDurations(t, "Timeout", "duration.go", "_test.go")
	assert.Empty(t, violations, "use duration.* instead of literal durations")
}

// findHardcodedDurations walks pkg/ and cmd/ for key-value or assignment
// expressions setting a field whose name ends in suffix to a literal
// duration such as 30 * time.Second.
func findHardcodedDurations(t *testing.T, suffix string, exclude ...string) []string {
	t.Helper()

	var violations []string
	root := findProjectRoot(t)
	report := func(fset *token.FileSet, expr ast.Expr, field string) {
		pos := fset.Position(expr.Pos())
		rel, _ := filepath.Rel(root, pos.Filename)
		violations = append(violations, rel+":"+strconv.Itoa(pos.Line)+": "+field+" = <hardcoded duration>")
	}

	for _, dir := range []string{"pkg", "cmd"} {
		_ = filepath.Walk(filepath.Join(root, dir), func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			for _, p := range exclude {
				if strings.Contains(path, p) {
					return nil
				}
			}

			fset := token.NewFileSet()
			file, err := parser.ParseFile(fset, path, nil, 0)
			if err != nil {
				return nil
			}
			ast.Inspect(file, func(n ast.Node) bool {
				switch n := n.(type) {
				case *ast.KeyValueExpr:
					if id, ok := n.Key.(*ast.Ident); ok && strings.HasSuffix(id.Name, suffix) && isHardcodedDuration(n.Value) {
						report(fset, n.Value, id.Name)
					}
				case *ast.AssignStmt:
					for i, lhs := range n.Lhs {
						sel, ok := lhs.(*ast.SelectorExpr)
						if ok && i < len(n.Rhs) && strings.HasSuffix(sel.Sel.Name, suffix) && isHardcodedDuration(n.Rhs[i]) {
							report(fset, n.Rhs[i], sel.Sel.Name)
						}
					}
				}
				return true
			})
			return nil
		})
	}
	return violations
}

// isHardcodedDuration matches N * time.Unit.
func isHardcodedDuration(expr ast.Expr) bool {
	bin, ok := expr.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	if _, ok := bin.X.(*ast.BasicLit); !ok {
		return false
	}
	sel, ok := bin.Y.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	if id, ok := sel.X.(*ast.Ident); !ok || id.Name != "time" {
		return false
	}
	switch sel.Sel.Name {
	case "Hour", "Minute", "Second", "Millisecond", "Microsecond", "Nanosecond":
		return true
	}
	return false
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}
