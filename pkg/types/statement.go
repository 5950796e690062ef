// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the symbol-table records shared by the parser,
// the symbol table, and the class browser.
//
//	docs/ARCHITECTURE § Data Model.
package types

// StatementID is a weak handle to a statement. It is resolved through the
// symbol table and never keeps the referenced statement alive. IDs are
// unique for the lifetime of the process; zero means "no statement".
type StatementID uint64

// StatementKind identifies the category of a statement.
type StatementKind int

const (
	KindUnknown       StatementKind = iota
	KindNamespace                   // namespace N { ... }
	KindNamespaceAlias              // namespace A = N;
	KindClass                       // class, struct or union
	KindEnumType                    // enum E { ... }
	KindEnumClassType               // enum class E { ... }
	KindEnum                        // enumerator
	KindTypedef                     // typedef T N;
	KindAlias                       // using N = T;
	KindConstructor
	KindDestructor
	KindFunction
	KindOperator
	KindVariable
	KindPreprocessor // #define
	KindLambda
	KindBlock // anonymous scope, never shown
)

// String returns the human-readable name of the statement kind.
func (k StatementKind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindNamespaceAlias:
		return "namespace alias"
	case KindClass:
		return "class"
	case KindEnumType:
		return "enum"
	case KindEnumClassType:
		return "enum class"
	case KindEnum:
		return "enumerator"
	case KindTypedef:
		return "typedef"
	case KindAlias:
		return "alias"
	case KindConstructor:
		return "constructor"
	case KindDestructor:
		return "destructor"
	case KindFunction:
		return "function"
	case KindOperator:
		return "operator"
	case KindVariable:
		return "variable"
	case KindPreprocessor:
		return "macro"
	case KindLambda:
		return "lambda"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Visible reports whether statements of this kind may appear in a browser.
func (k StatementKind) Visible() bool {
	switch k {
	case KindBlock:
		return false
	case KindUnknown, KindNamespace, KindNamespaceAlias, KindClass,
		KindEnumType, KindEnumClassType, KindEnum, KindTypedef, KindAlias,
		KindConstructor, KindDestructor, KindFunction, KindOperator,
		KindVariable, KindPreprocessor, KindLambda:
		return true
	default:
		return true
	}
}

// IsNamespace reports whether fragments of this kind merge by full name.
func (k StatementKind) IsNamespace() bool {
	switch k {
	case KindNamespace:
		return true
	case KindUnknown, KindNamespaceAlias, KindClass, KindEnumType,
		KindEnumClassType, KindEnum, KindTypedef, KindAlias,
		KindConstructor, KindDestructor, KindFunction, KindOperator,
		KindVariable, KindPreprocessor, KindLambda, KindBlock:
		return false
	default:
		return false
	}
}

// IsFunction reports whether the kind is callable.
func (k StatementKind) IsFunction() bool {
	switch k {
	case KindConstructor, KindDestructor, KindFunction, KindOperator:
		return true
	default:
		return false
	}
}

// StatementScope tells where a statement lives lexically.
type StatementScope int

const (
	ScopeGlobal StatementScope = iota
	ScopeClass
	ScopeLocal
)

func (s StatementScope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeClass:
		return "class"
	case ScopeLocal:
		return "local"
	default:
		return "unknown"
	}
}

// AccessScope is the C++ access level of a class member.
type AccessScope int

const (
	AccessNone AccessScope = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a AccessScope) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return ""
	}
}

// Statement is one declared or defined program entity.
type Statement struct {
	ID     StatementID
	Parent StatementID // weak, resolved through the symbol table

	Command  string // display name
	FullName string // fully-qualified name, e.g. ns::Class::method
	Type     string // return or variable type
	Args     string // parameter list including parentheses
	Value    string // initializer or macro body

	Kind       StatementKind
	Scope      StatementScope
	ClassScope AccessScope

	FileName           string
	Line               int
	DefinitionFileName string
	DefinitionLine     int

	IsInherited    bool
	IsStatic       bool
	InProject      bool
	InSystemHeader bool

	Bases    []string      // base class names as written, classes only
	Children *StatementMap // keyed by Command
}

// HasChildren reports whether the statement owns at least one child.
func (s *Statement) HasChildren() bool {
	return s != nil && s.Children.Len() > 0
}

// DeclaredOrDefinedIn reports whether path is the declaring or defining file.
func (s *Statement) DeclaredOrDefinedIn(path string) bool {
	return s.FileName == path || s.DefinitionFileName == path
}

// FileIncludes is the File-Include Index entry for one source file.
type FileIncludes struct {
	FileName       string
	DirectIncludes []string      // resolved includes written in the file
	IncludeFiles   []string      // transitive closure, include order
	Statements     *StatementMap // statements visible from the file
}
