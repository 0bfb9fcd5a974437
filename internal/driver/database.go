package driver

import (
	"errors"
	"fmt"

	"mcc/internal/ast"
	"mcc/internal/asm"
	"mcc/internal/codegen"
	"mcc/internal/diag"
	"mcc/internal/lower"
	"mcc/internal/parser"
	"mcc/internal/query"
	"mcc/internal/render"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/target"
)

// targetKey is the only key of the Target input.
const targetKey = "target"

// ItemKey names one function definition of a file.
type ItemKey struct {
	Path string
	Name string
}

// SymbolKey names one file-scope symbol of a file.
type SymbolKey struct {
	Path string
	Name string
}

// Item is a function definition with every span relative to its own start,
// so moving the definition within the file leaves the value unchanged.
type Item struct {
	Func *ast.FuncDecl
	// Ordinal is the definition's index among the file's declarations.
	Ordinal int
}

// LoweredItem is a lowered function in item-relative coordinates along with
// the diagnostics lowering reported, also relative.
type LoweredItem struct {
	Lowered     *lower.Lowered
	Diagnostics []diag.Diagnostic `msgpack:",omitempty"`
}

// GenKey names the code of one function for one target triple.
type GenKey struct {
	Path   string
	Name   string
	Triple string
}

// UnitKey names a whole file compiled for one target triple.
type UnitKey struct {
	Path   string
	Triple string
}

// Options configures a Database.
type Options struct {
	// Target is the initial value of the Target input. Zero means the host.
	Target target.Target
	// Accumulator receives diagnostics of every execution. Optional.
	Accumulator *diag.Accumulator
	// WarningsAsErrors makes warnings block code generation.
	WarningsAsErrors bool
	// Timings appends a stage timing diagnostic to every Outcome.
	Timings bool
	// MaxDiagnostics truncates Outcome.Diagnostics; 0 keeps everything.
	MaxDiagnostics int
	// Cache, when set, is consulted by Compile before any query runs.
	Cache *DiskCache
}

// Database owns the engine, its inputs and every tracked stage of the
// compiler. One Database serves any number of files.
type Database struct {
	opts   Options
	engine *query.Engine
	files  *source.FileSet

	sourceText *query.Input[string, string]
	target     *query.Input[string, target.Target]

	parse            *query.Tracked[string, *ast.TranslationUnit]
	itemNames        *query.Tracked[string, []string]
	item             *query.Tracked[ItemKey, *Item]
	itemOrigin       *query.Tracked[ItemKey, uint32]
	symbols          *query.Tracked[string, *lower.SymbolTable]
	symbol           *query.Tracked[SymbolKey, *lower.Symbol]
	symbolSpan       *query.Tracked[SymbolKey, source.Span]
	lowerFunction    *query.Tracked[ItemKey, *LoweredItem]
	placeFunction    *query.Tracked[ItemKey, *lower.Lowered]
	lowerProgram     *query.Tracked[string, *tacky.Program]
	generateFunction *query.Tracked[GenKey, *codegen.Output]
	generateProgram  *query.Tracked[UnitKey, *asm.Program]
	render           *query.Tracked[UnitKey, string]
}

// NewDatabase registers the inputs and tracked queries and sets the Target input.
func NewDatabase(opts Options) *Database {
	if opts.Target.Arch == "" {
		opts.Target = target.Host()
	}
	db := &Database{
		opts:   opts,
		engine: query.New(query.Options{Accumulator: opts.Accumulator}),
		files:  source.NewFileSet(),
	}
	db.sourceText = query.NewInput[string, string](db.engine, "SourceText")
	db.target = query.NewInput[string, target.Target](db.engine, "Target")

	db.parse = query.NewTracked(db.engine, "Parse", db.parseFile)
	db.itemNames = query.NewTracked(db.engine, "ItemNames", db.itemNamesOf)
	db.item = query.NewTracked(db.engine, "Item", db.itemOf)
	db.itemOrigin = query.NewTracked(db.engine, "ItemOrigin", db.itemOriginOf)
	db.symbols = query.NewTracked(db.engine, "Symbols", db.symbolsOf)
	db.symbol = query.NewTracked(db.engine, "Symbol", db.symbolOf)
	db.symbolSpan = query.NewTracked(db.engine, "SymbolSpan", db.symbolSpanOf)
	db.lowerFunction = query.NewTracked(db.engine, "LowerFunction", db.lowerFunctionOf)
	db.placeFunction = query.NewTracked(db.engine, "PlaceFunction", db.placeFunctionOf)
	db.lowerProgram = query.NewTracked(db.engine, "LowerProgram", db.lowerProgramOf)
	db.generateFunction = query.NewTracked(db.engine, "GenerateFunction", db.generateFunctionOf)
	db.generateProgram = query.NewTracked(db.engine, "GenerateProgram", db.generateProgramOf)
	db.render = query.NewTracked(db.engine, "Render", db.renderOf)

	db.target.Set(targetKey, opts.Target)
	return db
}

// Files exposes the file set backing every span the database reports.
func (db *Database) Files() *source.FileSet { return db.files }

// Engine exposes the underlying engine for statistics and draining.
func (db *Database) Engine() *query.Engine { return db.engine }

// SetSource records the content of path. It reports whether anything changed.
// The path's FileID is assigned on its first call, so IDs follow call order.
func (db *Database) SetSource(path, content string) bool {
	db.files.Set(path, content, 0)
	return db.sourceText.Set(path, content)
}

// SetTarget switches the target used by subsequent runs.
func (db *Database) SetTarget(tgt target.Target) bool {
	return db.target.Set(targetKey, tgt)
}

// Stats returns per-query execution counters.
func (db *Database) Stats() []query.QueryStats { return db.engine.Stats() }

func (db *Database) parseFile(c *query.Ctx, path string) (*ast.TranslationUnit, error) {
	text, err := db.sourceText.Fetch(c, path)
	if err != nil {
		return nil, err
	}
	file, ok := db.files.Lookup(path)
	if !ok || file.Content != text {
		return nil, violation("Parse", path, errors.New("file set is out of sync with SourceText"))
	}
	return parser.ParseFile(file, parser.Options{Reporter: c}), nil
}

func (db *Database) itemNamesOf(c *query.Ctx, path string) ([]string, error) {
	tu, err := db.parse.Fetch(c, path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, d := range tu.Decls {
		if d.Kind != ast.DeclFunc || !d.Func.IsDefinition() || seen[d.Func.Name] {
			continue
		}
		seen[d.Func.Name] = true
		names = append(names, d.Func.Name)
	}
	return names, nil
}

func findItem(tu *ast.TranslationUnit, key ItemKey) (*ast.FuncDecl, int, error) {
	for i, d := range tu.Decls {
		if d.Kind == ast.DeclFunc && d.Func.IsDefinition() && d.Func.Name == key.Name {
			return d.Func, i, nil
		}
	}
	return nil, 0, fmt.Errorf("%s: no definition of %s", key.Path, key.Name)
}

// itemOf returns the first definition of key.Name, relative to its own start.
// Its value only changes when that definition's text changes.
func (db *Database) itemOf(c *query.Ctx, key ItemKey) (*Item, error) {
	tu, err := db.parse.Fetch(c, key.Path)
	if err != nil {
		return nil, err
	}
	fn, ordinal, err := findItem(tu, key)
	if err != nil {
		return nil, err
	}
	return &Item{Func: fn.Shifted(-fn.Span.Start), Ordinal: ordinal}, nil
}

// itemOriginOf returns the file offset the item's relative spans start from.
func (db *Database) itemOriginOf(c *query.Ctx, key ItemKey) (uint32, error) {
	tu, err := db.parse.Fetch(c, key.Path)
	if err != nil {
		return 0, err
	}
	fn, _, err := findItem(tu, key)
	if err != nil {
		return 0, err
	}
	return fn.Span.Start, nil
}

func (db *Database) symbolsOf(c *query.Ctx, path string) (*lower.SymbolTable, error) {
	tu, err := db.parse.Fetch(c, path)
	if err != nil {
		return nil, err
	}
	return lower.Symbols(tu, c), nil
}

// symbolOf returns the merged symbol without its span, or nil when the file
// declares no such name.
func (db *Database) symbolOf(c *query.Ctx, key SymbolKey) (*lower.Symbol, error) {
	syms, err := db.symbols.Fetch(c, key.Path)
	if err != nil {
		return nil, err
	}
	sym := syms.Lookup(key.Name)
	if sym == nil {
		return nil, nil
	}
	out := *sym
	out.Span = source.Span{}
	return &out, nil
}

func (db *Database) symbolSpanOf(c *query.Ctx, key SymbolKey) (source.Span, error) {
	syms, err := db.symbols.Fetch(c, key.Path)
	if err != nil {
		return source.Span{}, err
	}
	return syms.DeclSpan(key.Name), nil
}

// itemScope is the file scope seen by one item. Spans are only fetched for
// diagnostics and are translated into the item's coordinates.
type itemScope struct {
	db  *Database
	c   *query.Ctx
	key ItemKey
	err error
}

func (s *itemScope) Lookup(name string) *lower.Symbol {
	sym, err := s.db.symbol.Fetch(s.c, SymbolKey{Path: s.key.Path, Name: name})
	if err != nil {
		s.fail(err)
		return nil
	}
	return sym
}

func (s *itemScope) DeclSpan(name string) source.Span {
	sp, err := s.db.symbolSpan.Fetch(s.c, SymbolKey{Path: s.key.Path, Name: name})
	if err != nil {
		s.fail(err)
		return source.Span{}
	}
	origin, err := s.db.itemOrigin.Fetch(s.c, s.key)
	if err != nil {
		s.fail(err)
		return source.Span{}
	}
	return sp.Shift(-origin)
}

func (s *itemScope) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// lowerFunctionOf lowers one item in its own coordinates. Diagnostics travel
// in the value and are reported by PlaceFunction once positioned.
func (db *Database) lowerFunctionOf(c *query.Ctx, key ItemKey) (*LoweredItem, error) {
	it, err := db.item.Fetch(c, key)
	if err != nil {
		return nil, err
	}
	scope := &itemScope{db: db, c: c, key: key}
	bag := diag.NewBag(0)
	lf := lower.Function(it.Func, it.Ordinal, scope, diag.BagReporter{Bag: bag})
	if scope.err != nil {
		return nil, scope.err
	}
	return &LoweredItem{Lowered: lf, Diagnostics: bag.Items()}, nil
}

// placeFunctionOf moves a lowered item and its diagnostics to file offsets.
func (db *Database) placeFunctionOf(c *query.Ctx, key ItemKey) (*lower.Lowered, error) {
	li, err := db.lowerFunction.Fetch(c, key)
	if err != nil {
		return nil, err
	}
	origin, err := db.itemOrigin.Fetch(c, key)
	if err != nil {
		return nil, err
	}
	for _, d := range li.Diagnostics {
		d = d.Shifted(origin)
		c.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
	return li.Lowered.Shifted(origin), nil
}

func (db *Database) lowerProgramOf(c *query.Ctx, path string) (*tacky.Program, error) {
	syms, err := db.symbols.Fetch(c, path)
	if err != nil {
		return nil, err
	}
	names, err := db.itemNames.Fetch(c, path)
	if err != nil {
		return nil, err
	}
	funcs := make([]*lower.Lowered, 0, len(names))
	for _, name := range names {
		lf, err := db.placeFunction.Fetch(c, ItemKey{Path: path, Name: name})
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, lf)
	}
	return lower.Program(syms, funcs), nil
}

// generateFunctionOf runs codegen for one function in item coordinates;
// Assemble takes the placed span from the lowered program. Codegen only fails
// on broken invariants, so its errors surface as contract violations.
func (db *Database) generateFunctionOf(c *query.Ctx, key GenKey) (*codegen.Output, error) {
	li, err := db.lowerFunction.Fetch(c, ItemKey{Path: key.Path, Name: key.Name})
	if err != nil {
		return nil, err
	}
	tgt, err := target.Parse(key.Triple)
	if err != nil {
		return nil, violation("GenerateFunction", key, err)
	}
	out, err := codegen.Function(li.Lowered.Func, tgt)
	if err != nil {
		return nil, violation("GenerateFunction", key, err)
	}
	return out, nil
}

func (db *Database) generateProgramOf(c *query.Ctx, key UnitKey) (*asm.Program, error) {
	prog, err := db.lowerProgram.Fetch(c, key.Path)
	if err != nil {
		return nil, err
	}
	if prog.Invalid {
		return nil, violation("GenerateProgram", key, codegen.ErrInvalidTAC)
	}
	outputs := make([]*codegen.Output, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		out, err := db.generateFunction.Fetch(c, GenKey{Path: key.Path, Name: fn.Name, Triple: key.Triple})
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return codegen.Assemble(prog, outputs), nil
}

func (db *Database) renderOf(c *query.Ctx, key UnitKey) (string, error) {
	prog, err := db.generateProgram.Fetch(c, key)
	if err != nil {
		return "", err
	}
	tgt, err := target.Parse(key.Triple)
	if err != nil {
		return "", violation("Render", key, err)
	}
	text, err := render.EmitProgram(prog, tgt)
	if err != nil {
		return "", violation("Render", key, err)
	}
	return text, nil
}

func violation(q string, key any, err error) error {
	return &query.ContractViolation{Query: q, Key: fmt.Sprint(key), Err: err}
}
