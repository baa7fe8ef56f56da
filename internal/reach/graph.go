package reach

import (
	"slices"

	"viper/internal/ast"
)

// Func describes one function or method item of a module.
type Func struct {
	Item      ast.ItemID
	Name      string
	Class     ast.ItemID // 0 для свободных функций
	ClassName string
	Parent    ast.ItemID // enclosing function of a nested def
}

// Public reports whether the function is part of the module's surface:
// a public top-level function or a public method of a public class.
func (f *Func) Public() bool {
	if f.Parent.IsValid() || !isPublic(f.Name) {
		return false
	}
	return !f.Class.IsValid() || isPublic(f.ClassName)
}

func isPublic(name string) bool {
	return name != "" && name[0] != '_'
}

// Edge is a use of a function, constructor or method name at a statement.
type Edge struct {
	To     ast.ItemID // функция или класс (для конструкторов)
	Method string
	Stmt   ast.StmtID
}

// Graph is the conservative call graph of one module. The zero ItemID
// stands for the module's top-level code.
type Graph struct {
	Funcs      map[ast.ItemID]*Func
	Order      []ast.ItemID
	Calls      map[ast.ItemID][]Edge
	Constructs map[ast.ItemID][]Edge
	Methods    map[ast.ItemID][]Edge
	Inits      map[ast.ItemID]ast.ItemID // class -> __init__
	ByMethod   map[string][]ast.ItemID
}

func NewGraph() *Graph {
	return &Graph{
		Funcs:      make(map[ast.ItemID]*Func),
		Calls:      make(map[ast.ItemID][]Edge),
		Constructs: make(map[ast.ItemID][]Edge),
		Methods:    make(map[ast.ItemID][]Edge),
		Inits:      make(map[ast.ItemID]ast.ItemID),
		ByMethod:   make(map[string][]ast.ItemID),
	}
}

// AddFunc registers a function item. Methods are indexed by name.
func (g *Graph) AddFunc(f Func) {
	if _, ok := g.Funcs[f.Item]; ok {
		return
	}
	fn := f
	g.Funcs[f.Item] = &fn
	g.Order = append(g.Order, f.Item)
	if f.Class.IsValid() {
		g.ByMethod[f.Name] = append(g.ByMethod[f.Name], f.Item)
		if f.Name == "__init__" {
			g.Inits[f.Class] = f.Item
		}
	}
}

// AddCall records that from uses function to at stmt.
func (g *Graph) AddCall(from, to ast.ItemID, stmt ast.StmtID) {
	g.Calls[from] = appendEdge(g.Calls[from], Edge{To: to, Stmt: stmt})
}

// AddConstruct records a constructor call of class.
func (g *Graph) AddConstruct(from, class ast.ItemID, stmt ast.StmtID) {
	g.Constructs[from] = appendEdge(g.Constructs[from], Edge{To: class, Stmt: stmt})
}

// AddMethodCall records a call of a method by name on any receiver.
func (g *Graph) AddMethodCall(from ast.ItemID, name string, stmt ast.StmtID) {
	g.Methods[from] = appendEdge(g.Methods[from], Edge{Method: name, Stmt: stmt})
}

func appendEdge(edges []Edge, e Edge) []Edge {
	if slices.Contains(edges, e) {
		return edges
	}
	return append(edges, e)
}
