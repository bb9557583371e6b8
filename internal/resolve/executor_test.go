package resolve

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"fnpool/internal/errors"
)

func TestCallExpression(t *testing.T) {
	res := &Resolution{Target: strings.Repeat("ab", 32)}

	want := "fn_" + res.Target + ".F(2, 3)"
	if got := res.CallExpression([]string{"2", "3"}); got != want {
		t.Errorf("CallExpression = %q, want %q", got, want)
	}
	want = "fn_" + res.Target + ".F()"
	if got := res.CallExpression(nil); got != want {
		t.Errorf("CallExpression = %q, want %q", got, want)
	}
}

func TestAssembleBindings(t *testing.T) {
	p := setupPool(t)
	base := addFunction(t, p, "eng", adderSource)
	dep := addFunction(t, p, "eng",
		"import (\n\thelper \"pool/fn_"+base+"\"\n)\n\n// Double a number.\nfunc double(x int) int {\n\treturn helper.F(x, x)\n}\n")

	res, err := newTestResolver(t, p).Resolve(dep, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(prog.Declares) != 2 || len(prog.Assigns) != 2 {
		t.Fatalf("got %d declares and %d assigns, want 2 each", len(prog.Declares), len(prog.Assigns))
	}
	wantDecl := "var fn_" + base + " struct{ F func(v1, v2 int) int }"
	if prog.Declares[0] != wantDecl {
		t.Errorf("Declares[0] = %q, want %q", prog.Declares[0], wantDecl)
	}
	if !strings.HasPrefix(prog.Assigns[0], "fn_"+base+".F = func(a, b int) int {") {
		t.Errorf("Assigns[0] = %q, want the denormalized body literal", prog.Assigns[0])
	}
	if len(prog.Imports) != 0 {
		t.Errorf("Imports = %v, want none", prog.Imports)
	}
}

func TestAssembleMergesSharedImports(t *testing.T) {
	p := setupPool(t)
	shout := addFunction(t, p, "eng",
		"import (\n\t\"strings\"\n)\n\n// Shout.\nfunc shout(s string) string {\n\treturn strings.ToUpper(s)\n}\n")
	hush := addFunction(t, p, "eng",
		"import (\n\t\"strings\"\n)\n\n// Hush.\nfunc hush(s string) string {\n\treturn strings.ToLower(s)\n}\n")
	top := addFunction(t, p, "eng",
		"import (\n\ta \"pool/fn_"+shout+"\"\n\tb \"pool/fn_"+hush+"\"\n)\n\n// Both ways.\nfunc bothWays(s string) string {\n\treturn a.F(s) + b.F(s)\n}\n")

	res, err := newTestResolver(t, p).Resolve(top, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(prog.Imports) != 1 || prog.Imports[0].Path != "strings" {
		t.Errorf("Imports = %v, want a single strings import", prog.Imports)
	}
}

func TestAssembleImportNameCollision(t *testing.T) {
	p := setupPool(t)
	upper := addFunction(t, p, "eng",
		"import (\n\tx \"strings\"\n)\n\n// Shout.\nfunc shout(s string) string {\n\treturn x.ToUpper(s)\n}\n")
	render := addFunction(t, p, "eng",
		"import (\n\tx \"strconv\"\n)\n\n// Render.\nfunc render(n int) string {\n\treturn x.Itoa(n)\n}\n")
	top := addFunction(t, p, "eng",
		"import (\n\ta \"pool/fn_"+upper+"\"\n\tb \"pool/fn_"+render+"\"\n)\n\n// Label.\nfunc label(s string, n int) string {\n\treturn a.F(s) + b.F(n)\n}\n")

	res, err := newTestResolver(t, p).Resolve(top, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	_, err = Assemble(res)
	if !errors.Is(err, errors.ExecutionError) {
		t.Fatalf("error code = %v, want EXECUTION_ERROR", errors.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "strings") || !strings.Contains(err.Error(), "strconv") {
		t.Errorf("error %q does not name both paths", err.Error())
	}
}

func TestProgramRender(t *testing.T) {
	p := setupPool(t)
	hash := addFunction(t, p, "eng", adderSource)

	res, err := newTestResolver(t, p).Resolve(hash, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	prog.Call = res.CallExpression([]string{"1", "2"})

	text, err := prog.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(text, "package main\n") {
		t.Errorf("not a main package:\n%s", text)
	}
	for _, want := range []string{
		"var fn_" + hash + " struct{ F func(v1, v2 int) int }",
		"func init() {",
		"fn_" + hash + ".F = func(a, b int) int {",
		"func main() {",
		"fn_" + hash + ".F(1, 2)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered program lacks %q:\n%s", want, text)
		}
	}
}

func TestExecutorRunsTarget(t *testing.T) {
	p := setupPool(t)
	hash := addFunction(t, p, "eng", adderSource)

	res, err := newTestResolver(t, p).Resolve(hash, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	prog.Call = res.CallExpression([]string{"2", "3"})

	out, err := NewExecutor(testLogger()).Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "5" {
		t.Errorf("Run = %q, want 5", out)
	}
}

func TestExecutorRunsDependencyGraph(t *testing.T) {
	p := setupPool(t)
	base := addFunction(t, p, "eng", adderSource)
	dep := addFunction(t, p, "eng",
		"import (\n\thelper \"pool/fn_"+base+"\"\n)\n\n// Double a number.\nfunc double(x int) int {\n\treturn helper.F(x, x)\n}\n")

	res, err := newTestResolver(t, p).Resolve(dep, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	prog.Call = res.CallExpression([]string{"4"})

	out, err := NewExecutor(testLogger()).Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "8" {
		t.Errorf("Run = %q, want 8", out)
	}
}

func TestExecutorRunsCycle(t *testing.T) {
	p := setupPool(t)
	store := p.Store()
	hashA := strings.Repeat("aa", 32)
	hashB := strings.Repeat("bb", 32)
	saveFabricated(t, store, hashA, hashB, "Ping.", "ping", "pong")
	saveFabricated(t, store, hashB, hashA, "Pong.", "pong", "ping")

	res, err := newTestResolver(t, p).Resolve(hashA, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	prog.Call = res.CallExpression([]string{"5"})

	out, err := NewExecutor(testLogger()).Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "0" {
		t.Errorf("Run = %q, want 0 (the countdown bottoms out)", out)
	}
}

func TestExecutorUsesImports(t *testing.T) {
	p := setupPool(t)
	hash := addFunction(t, p, "eng",
		"import (\n\t\"strings\"\n)\n\n// Shout.\nfunc shout(s string) string {\n\treturn strings.ToUpper(s)\n}\n")

	res, err := newTestResolver(t, p).Resolve(hash, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	prog.Call = res.CallExpression([]string{strconv.Quote("go")})

	out, err := NewExecutor(testLogger()).Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "GO" {
		t.Errorf("Run = %q, want GO", out)
	}
}

func TestExecutorNoCall(t *testing.T) {
	p := setupPool(t)
	hash := addFunction(t, p, "eng", adderSource)

	res, err := newTestResolver(t, p).Resolve(hash, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	out, err := NewExecutor(testLogger()).Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "" {
		t.Errorf("callless run = %q, want empty", out)
	}
}

func TestExecutorReportsRuntimeError(t *testing.T) {
	p := setupPool(t)
	hash := addFunction(t, p, "eng", adderSource)

	res, err := newTestResolver(t, p).Resolve(hash, []string{"eng"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prog, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// Wrong arity: the binding takes two ints.
	prog.Call = res.CallExpression(nil)

	_, err = NewExecutor(testLogger()).Run(context.Background(), prog)
	if !errors.Is(err, errors.ExecutionError) {
		t.Errorf("error code = %v, want EXECUTION_ERROR", errors.CodeOf(err))
	}
}
