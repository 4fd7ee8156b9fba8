package parser

import (
	"errors"
	"testing"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/lexer"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse("test.ts", src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return prog
}

// exprOf parses src as a single expression statement.
func exprOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	prog := mustParse(t, src)
	if len(prog.Decls) != 1 {
		t.Fatalf("Parse(%q) produced %d decls, want 1", src, len(prog.Decls))
	}
	sd, ok := prog.Decls[0].(*ast.StmtDecl)
	if !ok {
		t.Fatalf("Parse(%q) decl = %T, want *ast.StmtDecl", src, prog.Decls[0])
	}
	es, ok := sd.Stmt.(*ast.ExprStmt)
	if !ok {
		t.Fatalf("Parse(%q) stmt = %T, want *ast.ExprStmt", src, sd.Stmt)
	}
	return es.X
}

func TestTopLevelDeclarations(t *testing.T) {
	src := `
import { readFile as read, type Stats } from "fs";
export interface Point { x: number; y: number }
type Id = string;
enum Color { Red, Green }
export class Box {}
function area(w: number, h: number): number { return w * h }
const origin = { x: 0, y: 0 };
console.log(area(2, 3));
export { area as computeArea };
`
	prog := mustParse(t, src)

	want := []string{
		"*ast.ImportDecl",
		"*ast.ExportDecl",
		"*ast.TypeAliasDecl",
		"*ast.EnumDecl",
		"*ast.ExportDecl",
		"*ast.FuncDecl",
		"*ast.VarDecl",
		"*ast.StmtDecl",
		"*ast.ExportDecl",
	}
	if len(prog.Decls) != len(want) {
		t.Fatalf("got %d decls, want %d", len(prog.Decls), len(want))
	}
	for i, d := range prog.Decls {
		if got := typeName(d); got != want[i] {
			t.Errorf("decl %d = %s, want %s", i, got, want[i])
		}
	}

	imp := prog.Decls[0].(*ast.ImportDecl)
	if imp.Module != "fs" || len(imp.Names) != 2 || imp.Names[0].Alias != "read" || imp.Names[1].Name != "Stats" {
		t.Errorf("import = %+v", imp)
	}
	if d, exported := ast.Unwrap(prog.Decls[1]); !exported {
		t.Error("interface not reported as exported")
	} else if _, ok := d.(*ast.InterfaceDecl); !ok {
		t.Errorf("exported decl = %T, want *ast.InterfaceDecl", d)
	}
	list := prog.Decls[8].(*ast.ExportDecl)
	if list.Decl != nil || len(list.Names) != 1 || list.Names[0].Alias != "computeArea" {
		t.Errorf("export list = %+v", list)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *ast.ImportDecl:
		return "*ast.ImportDecl"
	case *ast.ExportDecl:
		return "*ast.ExportDecl"
	case *ast.TypeAliasDecl:
		return "*ast.TypeAliasDecl"
	case *ast.EnumDecl:
		return "*ast.EnumDecl"
	case *ast.FuncDecl:
		return "*ast.FuncDecl"
	case *ast.VarDecl:
		return "*ast.VarDecl"
	case *ast.StmtDecl:
		return "*ast.StmtDecl"
	case *ast.ClassDecl:
		return "*ast.ClassDecl"
	case *ast.InterfaceDecl:
		return "*ast.InterfaceDecl"
	case *ast.Unsupported:
		return "*ast.Unsupported"
	}
	return "other"
}

func TestGenericCallVersusComparison(t *testing.T) {
	tests := []struct {
		src      string
		wantCall bool
		wantOp   string
	}{
		{src: "f<number>(x);", wantCall: true},
		{src: "parse<Map<string, Array<number>>>(raw);", wantCall: true},
		{src: "a < b;", wantOp: "<"},
		{src: "a < b && c > d;", wantOp: "&&"},
		{src: "i < n;", wantOp: "<"},
		{src: "a >= b;", wantOp: ">="},
		{src: "a >> b;", wantOp: ">>"},
		{src: "a >>> b;", wantOp: ">>>"},
		{src: "a < b > (c);", wantCall: true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			x := exprOf(t, tt.src)
			if tt.wantCall {
				call, ok := x.(*ast.CallExpr)
				if !ok {
					t.Fatalf("got %T, want *ast.CallExpr", x)
				}
				if len(call.TypeArgs) != 1 {
					t.Errorf("got %d type args, want 1", len(call.TypeArgs))
				}
				return
			}
			bin, ok := x.(*ast.BinaryExpr)
			if !ok {
				t.Fatalf("got %T, want *ast.BinaryExpr", x)
			}
			if bin.Op != tt.wantOp {
				t.Errorf("op = %q, want %q", bin.Op, tt.wantOp)
			}
		})
	}
}

func TestCompoundShiftAssignment(t *testing.T) {
	for _, op := range []string{">>=", ">>>=", "<<=", "??=", "**="} {
		x := exprOf(t, "x "+op+" 2;")
		as, ok := x.(*ast.AssignExpr)
		if !ok {
			t.Fatalf("%s: got %T, want *ast.AssignExpr", op, x)
		}
		if as.Op != op {
			t.Errorf("op = %q, want %q", as.Op, op)
		}
	}
}

func TestSpacedGreaterThanIsNotShift(t *testing.T) {
	_, err := Parse("test.ts", "a > > b;")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestNestedTypeArguments(t *testing.T) {
	prog := mustParse(t, "let m: Map<string, Array<number>> = new Map();")
	b := prog.Decls[0].(*ast.VarDecl).Bindings[0]
	named, ok := b.Type.(*ir.NamedDescriptor)
	if !ok || named.Name != "Map" || len(named.Args) != 2 {
		t.Fatalf("type = %#v, want Map<_, _>", b.Type)
	}
	arr, ok := named.Args[1].(*ir.ArrayDescriptor)
	if !ok || !ir.IsPrimitive(arr.Element, ir.PrimitiveNumber) {
		t.Errorf("second argument = %#v, want number array", named.Args[1])
	}
	if _, ok := b.Init.(*ast.NewExpr); !ok {
		t.Errorf("init = %T, want *ast.NewExpr", b.Init)
	}
}

func TestArrowVersusParen(t *testing.T) {
	tests := []struct {
		src       string
		wantArrow bool
		params    int
	}{
		{src: "(a);"},
		{src: "(a, b);"},
		{src: "(a) => a;", wantArrow: true, params: 1},
		{src: "x => x * 2;", wantArrow: true, params: 1},
		{src: "(a: number, b?: string): number => a;", wantArrow: true, params: 2},
		{src: "async (x) => { await x; };", wantArrow: true, params: 1},
		{src: "<T>(x: T): T => x;", wantArrow: true, params: 1},
		{src: "() => {};", wantArrow: true},
		{src: "(a ? b : c);"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			x := exprOf(t, tt.src)
			fn, isArrow := x.(*ast.FuncLit)
			if isArrow != tt.wantArrow {
				t.Fatalf("got %T, want arrow=%v", x, tt.wantArrow)
			}
			if isArrow && len(fn.Params) != tt.params {
				t.Errorf("got %d params, want %d", len(fn.Params), tt.params)
			}
		})
	}
}

func TestArrowReturnType(t *testing.T) {
	fn := exprOf(t, "(a: number): string => String(a);").(*ast.FuncLit)
	if !ir.IsPrimitive(fn.Return, ir.PrimitiveString) {
		t.Errorf("return = %#v, want string", fn.Return)
	}
	if !ir.IsPrimitive(fn.Params[0].Type, ir.PrimitiveNumber) {
		t.Errorf("param type = %#v, want number", fn.Params[0].Type)
	}
	if fn.ExprBody == nil || fn.Body != nil {
		t.Error("expected an expression body")
	}
}

func TestParameterProperties(t *testing.T) {
	src := `
class Base {}
class User extends Base {
  constructor(private readonly name: string, public age: number, plain: boolean) {
    super();
    this.ready = true;
  }
}`
	prog := mustParse(t, src)
	c := prog.Decls[1].(*ast.ClassDecl)
	if c.Extends == nil || c.Extends.Name != "Base" {
		t.Fatalf("extends = %v, want Base", c.Extends)
	}
	if len(c.Members) != 3 {
		t.Fatalf("got %d members, want 3", len(c.Members))
	}
	name := c.Members[0].(*ast.Property)
	if name.Name != "name" || name.Visibility != ast.Private || !name.Readonly {
		t.Errorf("first property = %+v", name)
	}
	age := c.Members[1].(*ast.Property)
	if age.Name != "age" || age.Visibility != ast.Public || age.Readonly {
		t.Errorf("second property = %+v", age)
	}

	ctor := c.Constructor()
	if ctor == nil || len(ctor.Params) != 3 {
		t.Fatalf("constructor = %+v", ctor)
	}
	stmts := ctor.Body.Stmts
	if len(stmts) != 4 {
		t.Fatalf("got %d body statements, want 4", len(stmts))
	}
	if !isSuperCall(stmts[0]) {
		t.Error("super call is not first")
	}
	for i, want := range []string{"name", "age", "ready"} {
		as := stmts[i+1].(*ast.ExprStmt).X.(*ast.AssignExpr)
		if got, ok := ast.IsThisMember(as.Target); !ok || got != want {
			t.Errorf("statement %d assigns %q, want this.%s", i+1, got, want)
		}
	}
}

func TestClassMembers(t *testing.T) {
	src := `
abstract class Shape<T> {
  static count = 0;
  protected label?: string;
  #secret = 1;
  abstract area(): number;
  get name(): string { return "shape" }
  set name(v: string) {}
  async load(id: T): Promise<T> { return id }
  describe() { return this.label }
}`
	c := mustParse(t, src).Decls[0].(*ast.ClassDecl)
	if !c.Abstract || len(c.TypeParams) != 1 {
		t.Fatalf("class = %+v", c)
	}
	props := c.Properties()
	if len(props) != 3 {
		t.Fatalf("got %d properties, want 3", len(props))
	}
	if !props[0].Static || props[1].Visibility != ast.Protected || !props[1].Optional || !props[2].Hash {
		t.Errorf("property modifiers = %+v %+v %+v", props[0], props[1], props[2])
	}
	methods := c.Methods()
	if len(methods) != 3 {
		t.Fatalf("got %d methods, want 3", len(methods))
	}
	if !methods[0].Abstract || methods[0].Body != nil {
		t.Errorf("area = %+v, want abstract without body", methods[0])
	}
	if !methods[1].Async {
		t.Error("load is not async")
	}
	if _, ok := methods[1].Params[0].Type.(*ir.TypeParamDescriptor); !ok {
		t.Errorf("load param = %#v, want type parameter", methods[1].Params[0].Type)
	}
	if methods[2].Return != nil {
		t.Errorf("describe return = %#v, want nil", methods[2].Return)
	}
	var accessors int
	for _, m := range c.Members {
		if _, ok := m.(*ast.Accessor); ok {
			accessors++
		}
	}
	if accessors != 2 {
		t.Errorf("got %d accessors, want 2", accessors)
	}
}

func TestEnums(t *testing.T) {
	tests := []struct {
		src       string
		class     ast.EnumClass
		kinds     []ast.EnumValueKind
		numbers   []float64
		texts     []string
		wantWarns int
	}{
		{
			src:     "enum Status { Active, Inactive }",
			class:   ast.SimpleEnum,
			kinds:   []ast.EnumValueKind{ast.EnumNumber, ast.EnumNumber},
			numbers: []float64{0, 1},
		},
		{
			src:     "enum Level { Low = 10, Mid, High = Mid * 2 }",
			class:   ast.SimpleEnum,
			kinds:   []ast.EnumValueKind{ast.EnumNumber, ast.EnumNumber, ast.EnumNumber},
			numbers: []float64{10, 11, 22},
		},
		{
			src:     "enum Flags { A = 1 << 2, B, C = A | B, D = ~0 }",
			class:   ast.SimpleEnum,
			kinds:   []ast.EnumValueKind{ast.EnumNumber, ast.EnumNumber, ast.EnumNumber, ast.EnumNumber},
			numbers: []float64{4, 5, 5, -1},
		},
		{
			src:   `enum Dir { Up = "UP", Down = "DOWN" }`,
			class: ast.ValuedEnum,
			kinds: []ast.EnumValueKind{ast.EnumString, ast.EnumString},
			texts: []string{"UP", "DOWN"},
		},
		{
			src:   `enum Path { Root = "/", Home = Root + "home", Tmp = Path.Root + "tmp" }`,
			class: ast.ValuedEnum,
			kinds: []ast.EnumValueKind{ast.EnumString, ast.EnumString, ast.EnumString},
			texts: []string{"/", "/home", "/tmp"},
		},
		{
			src:     "enum Ratio { Half = 0.5 }",
			class:   ast.ValuedEnum,
			kinds:   []ast.EnumValueKind{ast.EnumNumber},
			numbers: []float64{0.5},
		},
		{
			src:   "enum Dyn { A = compute(), B = 2 }",
			class: ast.SimpleEnum,
			kinds: []ast.EnumValueKind{ast.EnumComputed, ast.EnumNumber},
		},
		{
			src:       `enum Mixed { A = "a", B }`,
			class:     ast.ValuedEnum,
			kinds:     []ast.EnumValueKind{ast.EnumString, ast.EnumComputed},
			wantWarns: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog := mustParse(t, tt.src)
			e := prog.Decls[0].(*ast.EnumDecl)
			if e.Class != tt.class {
				t.Errorf("class = %v, want %v", e.Class, tt.class)
			}
			if len(e.Members) != len(tt.kinds) {
				t.Fatalf("got %d members, want %d", len(e.Members), len(tt.kinds))
			}
			for i, m := range e.Members {
				if m.Kind != tt.kinds[i] {
					t.Errorf("member %s kind = %v, want %v", m.Name, m.Kind, tt.kinds[i])
				}
				if i < len(tt.numbers) && m.Number != tt.numbers[i] {
					t.Errorf("member %s = %v, want %v", m.Name, m.Number, tt.numbers[i])
				}
				if i < len(tt.texts) && m.Text != tt.texts[i] {
					t.Errorf("member %s = %q, want %q", m.Name, m.Text, tt.texts[i])
				}
			}
			if got := len(prog.Diagnostics); got != tt.wantWarns {
				t.Errorf("got %d diagnostics, want %d: %v", got, tt.wantWarns, prog.Diagnostics)
			}
		})
	}
}

func TestConstEnum(t *testing.T) {
	e := mustParse(t, "const enum Mode { On, Off }").Decls[0].(*ast.EnumDecl)
	if !e.Const || e.Name != "Mode" {
		t.Errorf("enum = %+v", e)
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		src  string
		kind string
	}{
		{"@sealed class A {}", "decorator"},
		{"namespace N { export const x = 1; }", "namespace"},
		{"declare const VERSION: string;", "ambient declaration"},
		{"declare module \"x\" { export function f(): void; }", "ambient declaration"},
		{"try { f() } catch (e: unknown) { g() } finally { h() }", "try statement"},
		{"for (const k in obj) {}", "for-in loop"},
		{"const { a, b } = obj;", "destructuring pattern"},
		{"export = foo;", "export assignment"},
		{"import fs = require(\"fs\");", "import assignment"},
		{"function* gen() { yield 1 }", ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog := mustParse(t, tt.src)
			if tt.kind == "" {
				return
			}
			u, ok := prog.Decls[0].(*ast.Unsupported)
			if !ok {
				t.Fatalf("decl = %T, want *ast.Unsupported", prog.Decls[0])
			}
			if u.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", u.Kind, tt.kind)
			}
		})
	}
}

func TestDecoratedClassIsStillParsed(t *testing.T) {
	prog := mustParse(t, "@Component({ selector: 'app' })\nexport class App {}")
	if len(prog.Decls) != 2 {
		t.Fatalf("got %d decls, want 2", len(prog.Decls))
	}
	d, exported := ast.Unwrap(prog.Decls[1])
	if c, ok := d.(*ast.ClassDecl); !ok || !exported || c.Name != "App" {
		t.Errorf("second decl = %T exported=%v", d, exported)
	}
}

func TestUnsupportedExpressions(t *testing.T) {
	tests := []struct {
		src  string
		kind string
	}{
		{"[a, b] = pair;", "destructuring assignment"},
		{"tag`x${y}`;", "tagged template"},
		{"import(\"./mod\");", "dynamic import"},
	}
	for _, tt := range tests {
		u, ok := exprOf(t, tt.src).(*ast.Unsupported)
		if !ok || u.Kind != tt.kind {
			t.Errorf("%s: got %#v, want unsupported %q", tt.src, u, tt.kind)
		}
	}
}

func TestTemplateLiteral(t *testing.T) {
	tl, ok := exprOf(t, "`a${b + 1}c${obj.name}`;").(*ast.TemplateLit)
	if !ok {
		t.Fatal("expected a template literal")
	}
	if len(tl.Segments) != 3 || tl.Segments[0] != "a" || tl.Segments[1] != "c" || tl.Segments[2] != "" {
		t.Errorf("segments = %q", tl.Segments)
	}
	if len(tl.Exprs) != 2 {
		t.Fatalf("got %d exprs, want 2", len(tl.Exprs))
	}
	if bin, ok := tl.Exprs[0].(*ast.BinaryExpr); !ok || bin.Op != "+" {
		t.Errorf("first expr = %#v", tl.Exprs[0])
	}
	if m, ok := tl.Exprs[1].(*ast.MemberExpr); !ok || m.Name != "name" {
		t.Errorf("second expr = %#v", tl.Exprs[1])
	}
}

func TestTemplateSubstitutionErrors(t *testing.T) {
	_, err := Parse("test.ts", "`${a b}`;")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src      string
		expected string
		found    string
		line     int
	}{
		{src: "let x = ;", expected: "expression", found: `";"`, line: 1},
		{src: "function f( {", expected: "closing bracket", found: "end of file", line: 1},
		{src: "class A {\n  x: number\n", expected: "'}'", found: "end of file", line: 3},
		{src: "if (x) {\n  y = 1;\n", expected: "'}'", found: "end of file", line: 3},
		{src: "let a = 1 2;", expected: "';'", found: "number 2", line: 1},
		{src: "1 = 2;", expected: "assignable expression", found: `"="`, line: 1},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := Parse("test.ts", tt.src)
			if prog != nil {
				t.Error("expected no program on error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Expected != tt.expected || pe.Found != tt.found {
				t.Errorf("got expected %s found %s, want expected %s found %s", pe.Expected, pe.Found, tt.expected, tt.found)
			}
			if pe.Span.Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Span.Line, tt.line)
			}
			var pos ir.PositionedError
			if !errors.As(err, &pos) || pos.Code() != ir.CodeParseError {
				t.Errorf("error does not carry code %s", ir.CodeParseError)
			}
		})
	}
}

func TestLexErrorsPropagate(t *testing.T) {
	_, err := Parse("test.ts", "let s = \"unterminated;\n")
	var le *lexer.LexError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *lexer.LexError", err)
	}
}

func TestTypeAnnotationsAreMapped(t *testing.T) {
	src := `
interface User {
  id: number;
  email: string | null;
  tags?: string[];
  greet(name: string): void;
  [key: string]: unknown;
}
let pair: [string, number];
function id<T>(x: T): T { return x }
function load(): { id: number; ok: boolean } { return { id: 1, ok: true } }
`
	prog := mustParse(t, src)

	iface := prog.Decls[0].(*ast.InterfaceDecl)
	fields := iface.Fields()
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(fields))
	}
	if !fields[1].Optional || !ir.IsPrimitive(fields[1].Type, ir.PrimitiveString) {
		t.Errorf("email = %+v, want optional string", fields[1])
	}
	if _, ok := fields[2].Type.(*ir.ArrayDescriptor); !ok || !fields[2].Optional {
		t.Errorf("tags = %+v, want optional array", fields[2])
	}
	if len(iface.MethodSigs()) != 1 {
		t.Errorf("got %d method signatures, want 1", len(iface.MethodSigs()))
	}
	if sig, ok := iface.Members[4].(*ast.SpecialSig); !ok || sig.Kind != ast.IndexSignature {
		t.Errorf("last member = %#v, want index signature", iface.Members[4])
	}

	pair := prog.Decls[1].(*ast.VarDecl).Bindings[0]
	if tup, ok := pair.Type.(*ir.TupleDescriptor); !ok || len(tup.Elements) != 2 {
		t.Errorf("pair = %#v, want 2-tuple", pair.Type)
	}

	fn := prog.Decls[2].(*ast.FuncDecl)
	if tp, ok := fn.Params[0].Type.(*ir.TypeParamDescriptor); !ok || tp.ParamName != "T" {
		t.Errorf("id param = %#v, want type parameter T", fn.Params[0].Type)
	}

	load := prog.Decls[3].(*ast.FuncDecl)
	shape, ok := load.Return.(*ir.ShapeDescriptor)
	if !ok || shape.Name != "LoadResult" {
		t.Fatalf("load return = %#v, want shape LoadResult", load.Return)
	}
	if len(prog.Synthesized) != 1 || prog.Synthesized[0] != ir.Synthesized(shape) {
		t.Errorf("synthesized = %v", prog.Synthesized)
	}
}

func TestTypePredicatesAndUnsupportedTypes(t *testing.T) {
	src := `
function isString(x: unknown): x is string { return typeof x === "string" }
let keys: keyof User;
let mapped: { [K in Keys]: boolean };
let cond: T extends string ? 1 : 2;
`
	prog := mustParse(t, src)
	fn := prog.Decls[0].(*ast.FuncDecl)
	if !ir.IsPrimitive(fn.Return, ir.PrimitiveBoolean) {
		t.Errorf("predicate return = %#v, want boolean", fn.Return)
	}
	for i := 1; i <= 3; i++ {
		b := prog.Decls[i].(*ast.VarDecl).Bindings[0]
		if _, ok := b.Type.(*ir.UnsupportedDescriptor); !ok {
			t.Errorf("%s = %#v, want unsupported", b.Name, b.Type)
		}
	}
	if n := len(prog.Diagnostics.WithCode(ir.CodeUnsupportedConstruct)); n != 3 {
		t.Errorf("got %d unsupported diagnostics, want 3", n)
	}
}

func TestStatements(t *testing.T) {
	src := `
for (let i = 0; i < 10; i++) { if (i % 2 === 0) continue; else break; }
for (const item of items) total += item;
while (x > 0) x--;
do { x++ } while (x < 5)
switch (kind) { case 1: case 2: f(); break; default: g() }
outer: for (;;) { break outer }
throw new Error("boom");
`
	prog := mustParse(t, src)
	var kinds []string
	for _, d := range prog.Decls {
		switch s := d.(*ast.StmtDecl).Stmt.(type) {
		case *ast.ForStmt:
			kinds = append(kinds, "for")
		case *ast.ForOfStmt:
			if s.Name != "item" || s.Kind != ast.Const {
				t.Errorf("for-of = %+v", s)
			}
			kinds = append(kinds, "for-of")
		case *ast.WhileStmt:
			kinds = append(kinds, "while")
		case *ast.DoWhileStmt:
			kinds = append(kinds, "do")
		case *ast.SwitchStmt:
			if len(s.Cases) != 3 || s.Cases[2].Test != nil || len(s.Cases[1].Body) != 2 {
				t.Errorf("switch cases = %+v", s.Cases)
			}
			kinds = append(kinds, "switch")
		case *ast.ThrowStmt:
			kinds = append(kinds, "throw")
		default:
			kinds = append(kinds, "other")
		}
	}
	want := []string{"for", "for-of", "while", "do", "switch", "for", "throw"}
	if len(kinds) != len(want) {
		t.Fatalf("statements = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("statement %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestAutomaticSemicolonInsertion(t *testing.T) {
	prog := mustParse(t, "let a = 1\nlet b = a\nreturnValue(b)\n")
	if len(prog.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(prog.Decls))
	}
	ret := mustParse(t, "function f() {\n  return\n  1\n}").Decls[0].(*ast.FuncDecl)
	if r := ret.Body.Stmts[0].(*ast.ReturnStmt); r.Result != nil {
		t.Errorf("return result = %#v, want nil after line break", r.Result)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	x := exprOf(t, "a + b * c ** d ** e;").(*ast.BinaryExpr)
	if x.Op != "+" {
		t.Fatalf("root op = %q, want +", x.Op)
	}
	mul := x.Y.(*ast.BinaryExpr)
	if mul.Op != "*" {
		t.Fatalf("right op = %q, want *", mul.Op)
	}
	pow := mul.Y.(*ast.BinaryExpr)
	if pow.Op != "**" {
		t.Fatalf("pow op = %q", pow.Op)
	}
	if inner, ok := pow.Y.(*ast.BinaryExpr); !ok || inner.Op != "**" {
		t.Error("** is not right-associative")
	}

	cond := exprOf(t, "a ?? b ? c : d;").(*ast.CondExpr)
	if bin, ok := cond.Cond.(*ast.BinaryExpr); !ok || bin.Op != "??" {
		t.Errorf("condition = %#v", cond.Cond)
	}

	as := exprOf(t, "value as unknown as string;").(*ast.AsExpr)
	if !ir.IsPrimitive(as.Type, ir.PrimitiveString) {
		t.Errorf("outer assertion = %#v, want string", as.Type)
	}
	if _, ok := exprOf(t, "[1, 2] as const;").(*ast.ArrayLit); !ok {
		t.Error("as const should leave the operand unchanged")
	}
}

func TestOptionalChainsAndLiterals(t *testing.T) {
	call := exprOf(t, "user?.profile?.load?.(1)!;").(*ast.NonNullExpr).X.(*ast.CallExpr)
	if !call.Optional {
		t.Error("call is not optional")
	}
	m := call.Fn.(*ast.MemberExpr)
	if m.Name != "load" || !m.Optional {
		t.Errorf("member = %+v", m)
	}

	obj := exprOf(t, "({ a: 1, b, ...rest, greet() { return 1 }, 'quoted': /re/gi });").(*ast.ParenExpr).X.(*ast.ObjectLit)
	if len(obj.Props) != 5 {
		t.Fatalf("got %d props, want 5", len(obj.Props))
	}
	if !obj.Props[1].Shorthand || !obj.Props[2].Spread {
		t.Errorf("props = %+v %+v", obj.Props[1], obj.Props[2])
	}
	if fn, ok := obj.Props[3].Value.(*ast.FuncLit); !ok || fn.Name != "greet" {
		t.Errorf("method = %#v", obj.Props[3].Value)
	}
	if re, ok := obj.Props[4].Value.(*ast.RegexLit); !ok || re.Pattern != "re" || re.Flags != "gi" {
		t.Errorf("regex = %#v", obj.Props[4].Value)
	}

	num := exprOf(t, "0xff;").(*ast.NumberLit)
	if num.Value != 255 {
		t.Errorf("0xff = %v, want 255", num.Value)
	}
}

func TestDeterministic(t *testing.T) {
	src := "type A = { x: number } | { y: string };\nlet v: { x: number };\nlet w: string | number;"
	first := mustParse(t, src)
	for i := 0; i < 5; i++ {
		again := mustParse(t, src)
		if len(again.Synthesized) != len(first.Synthesized) {
			t.Fatalf("run %d: %d synthesized types, want %d", i, len(again.Synthesized), len(first.Synthesized))
		}
		for j := range first.Synthesized {
			if a, b := again.Synthesized[j].TypeName(), first.Synthesized[j].TypeName(); a != b {
				t.Errorf("run %d: synthesized[%d] = %s, want %s", i, j, a, b)
			}
		}
	}
}
