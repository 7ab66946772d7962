package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

var (
	outName  = flag.String("o", "", "write to a file rather than standard output")
	pkgName  = flag.String("package", "", "package clause of the generated file (default that of the first source)")
	typeName = flag.String("type", "", "only wrap methods of this builder type")
)

// builder is a method like
//
//	func (pt fooTestCase) withBar(bar string) fooTestCase
//
// for which a free-standing withFooBar(bar string) is generated, suitable for
// passing to the type's apply method.
type builder struct {
	recv   string
	typ    string
	kind   string // with or expect
	what   string
	params []param
	pkgs   []string
}

type param struct {
	names    []string
	typ      string
	variadic bool
}

type source struct {
	name     string
	pkg      string
	imports  map[string]string // local name to import path
	builders []builder
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatalln("usage: gen_parse_expects [-o FILE] [-package NAME] [-type NAME] SOURCE...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srcs := make([]source, flag.NArg())
	eg, ctx := errgroup.WithContext(ctx)
	for i, name := range flag.Args() {
		i, name := i, name
		eg.Go(func() (err error) {
			srcs[i], err = scan(ctx, name)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}

	code, err := generate(srcs)
	if err != nil {
		log.Fatalln(err)
	}
	if *outName == "" {
		_, err = os.Stdout.Write(code)
	} else {
		err = os.WriteFile(*outName, code, 0o644)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func scan(ctx context.Context, name string) (src source, err error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, nil, parser.SkipObjectResolution)
	if err != nil {
		return src, err
	}

	src.name = filepath.Base(name)
	src.pkg = file.Name.Name
	src.imports = make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		ipath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return src, err
		}
		local := path.Base(ipath)
		if spec.Name != nil {
			local = spec.Name.Name
		}
		src.imports[local] = ipath
	}

	for _, decl := range file.Decls {
		if err := ctx.Err(); err != nil {
			return src, err
		}
		if fn, isFunc := decl.(*ast.FuncDecl); isFunc {
			if b, ok := builderOf(fset, fn); ok {
				src.builders = append(src.builders, b)
			}
		}
	}
	return src, nil
}

// builderOf recognizes a with or expect method that takes arguments and
// returns its receiver's type.
func builderOf(fset *token.FileSet, fn *ast.FuncDecl) (b builder, ok bool) {
	if fn.Recv == nil || len(fn.Recv.List) != 1 || len(fn.Recv.List[0].Names) != 1 {
		return b, false
	}
	recv, isIdent := fn.Recv.List[0].Type.(*ast.Ident)
	if !isIdent || (*typeName != "" && recv.Name != *typeName) {
		return b, false
	}
	res := fn.Type.Results
	if res == nil || len(res.List) != 1 || len(res.List[0].Names) > 0 {
		return b, false
	}
	if rt, isIdent := res.List[0].Type.(*ast.Ident); !isIdent || rt.Name != recv.Name {
		return b, false
	}
	for _, kind := range []string{"with", "expect"} {
		what := strings.TrimPrefix(fn.Name.Name, kind)
		if what != fn.Name.Name && what != "" && unicode.IsUpper(rune(what[0])) {
			b.kind, b.what = kind, what
		}
	}
	if b.kind == "" || fn.Type.Params.NumFields() == 0 {
		return b, false
	}

	b.recv = fn.Recv.List[0].Names[0].Name
	b.typ = recv.Name
	for _, field := range fn.Type.Params.List {
		if len(field.Names) == 0 {
			return b, false
		}
		var p param
		for _, name := range field.Names {
			p.names = append(p.names, name.Name)
		}
		typ := field.Type
		if ell, isEllipsis := typ.(*ast.Ellipsis); isEllipsis {
			p.variadic, typ = true, ell.Elt
		}
		ast.Inspect(typ, func(n ast.Node) bool {
			if sel, isSel := n.(*ast.SelectorExpr); isSel {
				if id, isIdent := sel.X.(*ast.Ident); isIdent {
					b.pkgs = append(b.pkgs, id.Name)
				}
			}
			return true
		})
		var buf bytes.Buffer
		if err := printer.Fprint(&buf, fset, typ); err != nil {
			return b, false
		}
		p.typ = buf.String()
		b.params = append(b.params, p)
	}
	return b, true
}

func generate(srcs []source) ([]byte, error) {
	pkg := *pkgName
	if pkg == "" {
		pkg = srcs[0].pkg
	}

	imports := make(map[string]string) // import path to explicit local name
	var names []string
	for _, src := range srcs {
		names = append(names, src.name)
		for _, b := range src.builders {
			for _, local := range b.pkgs {
				ipath, ok := src.imports[local]
				if !ok {
					return nil, fmt.Errorf("%v: %v%v uses %v, which is not imported", src.name, b.kind, b.what, local)
				}
				if path.Base(ipath) == local {
					local = ""
				}
				imports[ipath] = local
			}
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %v\n\n", pkg)
	writeImports(&buf, imports)
	fmt.Fprintf(&buf, "// @generated from %v\n\n", strings.Join(names, ", "))
	if *outName != "" {
		buf.WriteString("//go:generate go run ../scripts/gen_parse_expects.go")
		flag.Visit(func(f *flag.Flag) { fmt.Fprintf(&buf, " -%v %v", f.Name, f.Value) })
		for _, arg := range flag.Args() {
			buf.WriteByte(' ')
			buf.WriteString(arg)
		}
		buf.WriteString("\n\n")
	}
	for _, src := range srcs {
		for _, b := range src.builders {
			b.write(&buf)
		}
	}
	return format.Source(buf.Bytes())
}

// writeImports writes standard library imports first, then the rest.
func writeImports(buf *bytes.Buffer, imports map[string]string) {
	if len(imports) == 0 {
		return
	}
	var std, other []string
	for ipath := range imports {
		if first, _, _ := strings.Cut(ipath, "/"); strings.Contains(first, ".") {
			other = append(other, ipath)
		} else {
			std = append(std, ipath)
		}
	}
	sort.Strings(std)
	sort.Strings(other)

	buf.WriteString("import (\n")
	for i, group := range [][]string{std, other} {
		if i > 0 && len(std) > 0 && len(group) > 0 {
			buf.WriteByte('\n')
		}
		for _, ipath := range group {
			if local := imports[ipath]; local != "" {
				fmt.Fprintf(buf, "\t%v %q\n", local, ipath)
			} else {
				fmt.Fprintf(buf, "\t%q\n", ipath)
			}
		}
	}
	buf.WriteString(")\n\n")
}

func (b builder) write(buf *bytes.Buffer) {
	var params, args []string
	for _, p := range b.params {
		typ := p.typ
		if p.variadic {
			typ = "..." + typ
		}
		params = append(params, strings.Join(p.names, ", ")+" "+typ)
		for _, name := range p.names {
			if p.variadic {
				name += "..."
			}
			args = append(args, name)
		}
	}

	subject := strings.TrimSuffix(b.typ, "TestCase")
	if subject != "" {
		subject = strings.ToUpper(subject[:1]) + subject[1:]
	}
	fmt.Fprintf(buf, "func %v%v%v(%v) func(%v) %v {\n",
		b.kind, subject, b.what, strings.Join(params, ", "), b.typ, b.typ)
	fmt.Fprintf(buf, "\treturn func(%v %v) %v {\n", b.recv, b.typ, b.typ)
	fmt.Fprintf(buf, "\t\treturn %v.%v%v(%v)\n", b.recv, b.kind, b.what, strings.Join(args, ", "))
	buf.WriteString("\t}\n}\n\n")
}
