// Package iface flattens class inheritance into copied members and keeps the
// session-wide registry of synthesized structural interfaces.
package iface

import (
	"fmt"
	"strings"

	"viper/internal/ast"
	"viper/internal/diag"
)

var markerBases = map[string]bool{"Generic": true, "Protocol": true, "object": true}

type flattener struct {
	b      *ast.Builder
	module string
	items  map[string]ast.ItemID // локальные классы верхнего уровня
	state  map[ast.ItemID]uint8
	stack  []string
	diags  []diag.Diagnostic
}

const (
	unvisited uint8 = iota
	visiting
	flattened
)

// Flatten copies the members of every same-module base class into the
// subclass body, so each class carries its own implementation. Copied
// methods get Origin set to the class that defined them. Bases from other
// modules are left to the collector, which copies their solved signatures.
func Flatten(b *ast.Builder, file ast.FileID, module string) []diag.Diagnostic {
	f := b.File(file)
	if f == nil {
		return nil
	}
	fl := &flattener{
		b:      b,
		module: module,
		items:  make(map[string]ast.ItemID),
		state:  make(map[ast.ItemID]uint8),
	}
	var order []ast.ItemID
	for _, id := range f.Body {
		s := b.Stmt(id)
		if s == nil || s.Kind != ast.StmtDef {
			continue
		}
		if it := b.Item(s.Item); it != nil && it.Kind == ast.ItemClass {
			if _, dup := fl.items[it.Name]; !dup {
				fl.items[it.Name] = s.Item
			}
			order = append(order, s.Item)
		}
	}
	for _, item := range order {
		fl.visit(item)
	}
	return fl.diags
}

func (fl *flattener) visit(item ast.ItemID) bool {
	it := fl.b.Item(item)
	switch fl.state[item] {
	case flattened:
		return true
	case visiting:
		start := 0
		for i, name := range fl.stack {
			if name == it.Name {
				start = i
			}
		}
		path := append(append([]string(nil), fl.stack[start:]...), it.Name)
		d := diag.NewError(diag.IfaceBaseCycle, it.NameSpan,
			"class inheritance cycle: "+strings.Join(path, " -> "))
		d.Module = fl.module
		fl.diags = append(fl.diags, d)
		return false
	}
	fl.state[item] = visiting
	fl.stack = append(fl.stack, it.Name)
	defer func() {
		fl.stack = fl.stack[:len(fl.stack)-1]
		fl.state[item] = flattened
	}()

	own := fl.ownMembers(item)
	inherited := make(map[string]string) // имя -> базовый класс
	for _, base := range it.Bases {
		if markerBases[base.Name] {
			continue
		}
		baseItem, ok := fl.items[base.Name]
		if !ok {
			continue
		}
		if !fl.visit(baseItem) {
			continue
		}
		fl.copyFrom(item, baseItem, base.Name, own, inherited)
	}
	return true
}

// ownMembers lists the method and field names a class body defines itself.
func (fl *flattener) ownMembers(item ast.ItemID) map[string]bool {
	own := make(map[string]bool)
	for _, id := range fl.b.Item(item).Body {
		if name, ok := fl.memberName(id); ok {
			own[name] = true
		}
	}
	return own
}

func (fl *flattener) memberName(id ast.StmtID) (string, bool) {
	s := fl.b.Stmt(id)
	switch s.Kind {
	case ast.StmtDef:
		if m := fl.b.Item(s.Item); m != nil && m.Kind == ast.ItemFunc {
			return m.Name, true
		}
	case ast.StmtDecl:
		return s.Name, true
	case ast.StmtAssign:
		if t := fl.b.Expr(s.Target); t != nil && t.Kind == ast.ExprIdent {
			return t.Name, true
		}
	}
	return "", false
}

func (fl *flattener) copyFrom(item, baseItem ast.ItemID, baseName string, own map[string]bool, inherited map[string]string) {
	// тело базы читаем по копии списка: append в тот же builder
	body := append([]ast.StmtID(nil), fl.b.Item(baseItem).Body...)
	for _, id := range body {
		name, ok := fl.memberName(id)
		if !ok || own[name] {
			continue
		}
		if prev, dup := inherited[name]; dup {
			if prev != baseName {
				d := diag.New(diag.SevWarning, diag.IfaceConflict, fl.b.Item(item).NameSpan,
					fmt.Sprintf("%q is inherited from both %s and %s; using %s", name, prev, baseName, prev))
				d.Module = fl.module
				fl.diags = append(fl.diags, d)
			}
			continue
		}
		inherited[name] = baseName

		s := fl.b.Stmt(id)
		var copied ast.StmtID
		if s.Kind == ast.StmtDef {
			clone := fl.b.CloneItemFrom(fl.b, s.Item)
			if m := fl.b.Item(clone); m.Origin == "" {
				m.Origin = baseName
			}
			copied = fl.b.Def(s.Span, clone)
		} else {
			copied = fl.b.CloneStmtFrom(fl.b, id)
		}
		it := fl.b.Item(item)
		it.Body = append(it.Body, copied)
	}
}
