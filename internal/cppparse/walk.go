// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cppparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// walker turns a tree-sitter C++ syntax tree into Decls. Function bodies are
// never entered, so local declarations are not collected.
type walker struct {
	src []byte
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content(w.src))
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1 // 0-based to 1-based
}

// scope collects the declarations of a translation unit, declaration list,
// or class body. class is the enclosing class name, "" outside classes.
func (w *walker) scope(n *sitter.Node, access types.AccessScope, class string) []*Decl {
	if n == nil {
		return nil
	}
	var out []*Decl
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "access_specifier" {
			access = accessOf(w.text(c))
			continue
		}
		out = append(out, w.decl(c, access, class)...)
	}
	return out
}

func (w *walker) decl(n *sitter.Node, access types.AccessScope, class string) []*Decl {
	switch n.Type() {
	case "namespace_definition":
		return w.namespace(n)
	case "namespace_alias_definition":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []*Decl{{Name: w.text(name), Kind: types.KindNamespaceAlias, Line: lineOf(n)}}
	case "class_specifier", "struct_specifier", "union_specifier":
		return w.class(n, access, "")
	case "enum_specifier":
		return w.enum(n, access, "")
	case "function_definition":
		return w.function(n, n.ChildByFieldName("declarator"), access, class, true)
	case "declaration", "field_declaration":
		return w.declaration(n, access, class)
	case "type_definition":
		return w.typedef(n, access)
	case "alias_declaration":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []*Decl{{
			Name:   w.text(name),
			Kind:   types.KindAlias,
			Type:   w.text(n.ChildByFieldName("type")),
			Access: access,
			Line:   lineOf(n),
		}}
	case "template_declaration":
		var out []*Decl
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "template_parameter_list" {
				continue
			}
			out = append(out, w.decl(c, access, class)...)
		}
		return out
	case "linkage_specification":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		if body.Type() == "declaration_list" {
			return w.scope(body, access, class)
		}
		return w.decl(body, access, class)
	case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
		return w.scope(n, access, class)
	case "preproc_def", "preproc_function_def":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []*Decl{{
			Name:  w.text(name),
			Kind:  types.KindPreprocessor,
			Args:  w.text(n.ChildByFieldName("parameters")),
			Value: w.text(n.ChildByFieldName("value")),
			Line:  lineOf(n),
		}}
	default:
		return nil
	}
}

// namespace handles named, nested (a::b) and anonymous namespaces. Anonymous
// namespaces are transparent: their members belong to the enclosing scope.
func (w *walker) namespace(n *sitter.Node) []*Decl {
	children := w.scope(n.ChildByFieldName("body"), types.AccessNone, "")
	name := n.ChildByFieldName("name")
	if name == nil {
		return children
	}
	parts := splitScope(w.text(name))
	if len(parts) == 0 {
		return children
	}

	var d *Decl
	for i := len(parts) - 1; i >= 0; i-- {
		nd := &Decl{Name: parts[i], Kind: types.KindNamespace, Body: true, Line: lineOf(n)}
		if d == nil {
			nd.Children = children
		} else {
			nd.Children = []*Decl{d}
		}
		d = nd
	}
	return []*Decl{d}
}

// class handles class, struct and union specifiers with a body. Forward
// declarations are skipped. name overrides the written name, used for
// typedef'd anonymous structs.
func (w *walker) class(n *sitter.Node, access types.AccessScope, name string) []*Decl {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	memberAccess := types.AccessPublic
	if n.Type() == "class_specifier" {
		memberAccess = types.AccessPrivate
	}

	var qual string
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		qual, name = splitQualified(stripTemplateArgs(w.text(nameNode)))
	}
	if name == "" {
		// Members of an anonymous struct or union live in the enclosing scope.
		return w.scope(body, memberAccess, "")
	}

	d := &Decl{
		Name:      name,
		Qualifier: qual,
		Kind:      types.KindClass,
		Access:    access,
		Body:      true,
		Line:      lineOf(n),
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "base_class_clause" {
			d.Bases = w.bases(c)
		}
	}
	d.Children = w.scope(body, memberAccess, name)
	return []*Decl{d}
}

func (w *walker) bases(n *sitter.Node) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "type_identifier", "qualified_type_identifier", "qualified_identifier", "template_type":
			out = append(out, stripTemplateArgs(w.text(c)))
		}
	}
	return out
}

// enum handles plain and scoped enums. name overrides the written name, used
// for typedef'd anonymous enums; anonymous enums otherwise contribute their
// enumerators to the enclosing scope.
func (w *walker) enum(n *sitter.Node, access types.AccessScope, name string) []*Decl {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	kind := types.KindEnumType
	for i := 0; i < int(n.ChildCount()); i++ {
		if t := n.Child(i).Type(); t == "class" || t == "struct" {
			kind = types.KindEnumClassType
		}
	}

	var values []*Decl
	for i := 0; i < int(body.NamedChildCount()); i++ {
		e := body.NamedChild(i)
		if e.Type() != "enumerator" {
			continue
		}
		values = append(values, &Decl{
			Name:   w.text(e.ChildByFieldName("name")),
			Kind:   types.KindEnum,
			Value:  w.text(e.ChildByFieldName("value")),
			Access: access,
			Line:   lineOf(e),
		})
	}

	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = w.text(nameNode)
	}
	if name == "" {
		return values
	}
	return []*Decl{{
		Name:     name,
		Kind:     kind,
		Access:   access,
		Body:     true,
		Line:     lineOf(n),
		Children: values,
	}}
}

// declaration handles declarations and class fields: nested type
// specifiers, function prototypes, and variables.
func (w *walker) declaration(n *sitter.Node, access types.AccessScope, class string) []*Decl {
	var out []*Decl
	typeNode := n.ChildByFieldName("type")
	typ := w.text(typeNode)
	if isTypeSpecifier(typeNode) && typeNode.ChildByFieldName("body") != nil {
		out = append(out, w.decl(typeNode, access, class)...)
		typ = w.text(typeNode.ChildByFieldName("name"))
	}
	static := w.hasStorage(n, "static")

	for _, d := range declarators(n) {
		if functionDeclarator(d) != nil {
			out = append(out, w.function(n, d, access, class, false)...)
			continue
		}
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}
		qual, name := splitQualified(stripTemplateArgs(w.text(nameNode)))
		if name == "" {
			continue
		}
		var value string
		if d.Type() == "init_declarator" {
			value = w.text(d.ChildByFieldName("value"))
		}
		out = append(out, &Decl{
			Name:      name,
			Qualifier: qual,
			Kind:      types.KindVariable,
			Type:      typ,
			Value:     value,
			Access:    access,
			Static:    static,
			Body:      true,
			Line:      lineOf(d),
		})
	}
	return out
}

// function builds a Decl for a function declarator d owned by n, which
// carries the return type and storage class.
func (w *walker) function(n, d *sitter.Node, access types.AccessScope, class string, body bool) []*Decl {
	fd := functionDeclarator(d)
	if fd == nil {
		return nil
	}
	nameNode := declaratorName(fd.ChildByFieldName("declarator"))
	if nameNode == nil {
		return nil
	}
	qual, name := splitQualified(stripTemplateArgs(w.text(nameNode)))
	if name == "" {
		return nil
	}

	typeNode := n.ChildByFieldName("type")
	kind := types.KindFunction
	switch {
	case strings.HasPrefix(name, "~"):
		kind = types.KindDestructor
	case strings.HasPrefix(name, "operator"):
		kind = types.KindOperator
	case typeNode == nil && (name == class || name == lastSegment(qual)):
		kind = types.KindConstructor
	}

	params := fd.ChildByFieldName("parameters")
	args := w.text(params)
	sig := w.paramTypes(params)
	for i := 0; i < int(fd.NamedChildCount()); i++ {
		if c := fd.NamedChild(i); c.Type() == "type_qualifier" {
			args += " " + w.text(c)
			sig += w.text(c)
		}
	}

	return []*Decl{{
		Name:      name,
		Qualifier: qual,
		Kind:      kind,
		Type:      w.text(typeNode),
		Args:      args,
		Signature: sig,
		Access:    access,
		Static:    w.hasStorage(n, "static"),
		Body:      body,
		Line:      lineOf(n),
	}}
}

// paramTypes renders a parameter list without parameter names, default
// values, or whitespace, so a prototype and its definition compare equal.
func (w *walker) paramTypes(params *sitter.Node) string {
	if params == nil {
		return "()"
	}
	var parts []string
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		switch p.Type() {
		case "(", ")", ",", "comment":
		case "parameter_declaration", "optional_parameter_declaration":
			var b strings.Builder
			for j := 0; j < int(p.NamedChildCount()); j++ {
				if c := p.NamedChild(j); c.Type() == "type_qualifier" {
					b.WriteString(w.text(c))
				}
			}
			b.WriteString(w.text(p.ChildByFieldName("type")))
			b.WriteString(w.unnamed(p.ChildByFieldName("declarator")))
			parts = append(parts, b.String())
		case "...", "variadic_parameter_declaration":
			parts = append(parts, "...")
		default:
			parts = append(parts, w.text(p))
		}
	}
	if len(parts) == 1 && parts[0] == "void" {
		parts = nil
	}
	return "(" + strings.Join(strings.Fields(strings.Join(parts, ",")), "") + ")"
}

// unnamed returns the text of a parameter declarator with its name cut out.
func (w *walker) unnamed(d *sitter.Node) string {
	if d == nil {
		return ""
	}
	name := declaratorName(d)
	if name == nil {
		return w.text(d)
	}
	src := d.Content(w.src)
	start := int(name.StartByte() - d.StartByte())
	end := int(name.EndByte() - d.StartByte())
	return strings.TrimSpace(src[:start] + src[end:])
}

// typedef handles typedef declarations. typedef struct { ... } Name; yields
// a class called Name instead of a typedef of an anonymous struct.
func (w *walker) typedef(n *sitter.Node, access types.AccessScope) []*Decl {
	var names []string
	var lines []int
	for _, d := range declarators(n) {
		if nameNode := declaratorName(d); nameNode != nil {
			names = append(names, w.text(nameNode))
			lines = append(lines, lineOf(d))
		}
	}

	typeNode := n.ChildByFieldName("type")
	typ := w.text(typeNode)
	var out []*Decl
	if isTypeSpecifier(typeNode) && typeNode.ChildByFieldName("body") != nil {
		if typeNode.ChildByFieldName("name") == nil && len(names) > 0 {
			if typeNode.Type() == "enum_specifier" {
				out = append(out, w.enum(typeNode, access, names[0])...)
			} else {
				out = append(out, w.class(typeNode, access, names[0])...)
			}
			names, lines = names[1:], lines[1:]
		} else {
			out = append(out, w.decl(typeNode, access, "")...)
		}
		typ = w.text(typeNode.ChildByFieldName("name"))
		if typ == "" && len(out) > 0 {
			typ = out[0].Name
		}
	}

	for i, name := range names {
		out = append(out, &Decl{
			Name:   name,
			Kind:   types.KindTypedef,
			Type:   typ,
			Access: access,
			Line:   lines[i],
		})
	}
	return out
}

func (w *walker) hasStorage(n *sitter.Node, class string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "storage_class_specifier" && w.text(c) == class {
			return true
		}
	}
	return false
}

func isTypeSpecifier(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		return true
	}
	return false
}

// declarators returns the declarator children of a declaration, which
// follow its type.
func declarators(n *sitter.Node) []*sitter.Node {
	typ := n.ChildByFieldName("type")
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if typ != nil && c.StartByte() <= typ.StartByte() {
			continue
		}
		switch c.Type() {
		case "identifier", "field_identifier", "type_identifier", "qualified_identifier",
			"operator_name", "destructor_name", "template_function",
			"init_declarator", "pointer_declarator", "reference_declarator", "array_declarator",
			"function_declarator", "parenthesized_declarator", "attributed_declarator":
			out = append(out, c)
		}
	}
	return out
}

// functionDeclarator unwraps pointer and reference declarators down to a
// function declarator, or returns nil when d does not declare a function.
func functionDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator", "attributed_declarator":
			d = innerDeclarator(d)
		default:
			return nil
		}
	}
	return nil
}

// declaratorName unwraps any declarator down to the node naming the entity.
func declaratorName(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "identifier", "field_identifier", "type_identifier", "qualified_identifier",
			"destructor_name", "operator_name", "template_function", "primitive_type":
			return d
		case "init_declarator", "pointer_declarator", "reference_declarator", "array_declarator",
			"parenthesized_declarator", "attributed_declarator", "function_declarator":
			d = innerDeclarator(d)
		default:
			return nil
		}
	}
	return nil
}

func innerDeclarator(d *sitter.Node) *sitter.Node {
	if inner := d.ChildByFieldName("declarator"); inner != nil {
		return inner
	}
	if n := int(d.NamedChildCount()); n > 0 {
		return d.NamedChild(n - 1)
	}
	return nil
}

func accessOf(s string) types.AccessScope {
	switch strings.TrimSuffix(strings.TrimSpace(s), ":") {
	case "public":
		return types.AccessPublic
	case "protected":
		return types.AccessProtected
	case "private":
		return types.AccessPrivate
	default:
		return types.AccessNone
	}
}

// stripTemplateArgs removes <...> argument lists from a name, leaving
// operator names alone.
func stripTemplateArgs(s string) string {
	s = strings.Join(strings.Fields(s), "")
	if !strings.Contains(s, "<") || strings.Contains(s, "operator") {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitQualified splits "a::b::c" into ("a::b", "c").
func splitQualified(s string) (qualifier, name string) {
	s = strings.TrimPrefix(s, "::")
	i := strings.LastIndex(s, "::")
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+2:]
}

func splitScope(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.Join(strings.Fields(s), ""), "::") {
		if p != "" && p != "inline" {
			out = append(out, p)
		}
	}
	return out
}

func lastSegment(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}
