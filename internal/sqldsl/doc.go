// Package sqldsl renders the SQL fragments emitted by the koapa query builder.
//
// # Overview
//
// Every node renders twice:
//
//   - SQL() returns the literal text. Values are interpolated exactly the way
//     the builder has always printed them, so the text is stable and can be
//     compared in tests or printed in a dry run.
//   - Bind(args) returns the same text with each value replaced by a "?"
//     placeholder and the value appended to args. This is the form that
//     reaches the engine.
//
// Identifiers, column types and DEFAULT clauses are never bound. They are
// trusted input supplied by the program, not by the request.
//
// # Expression Types
//
//	Ident("username")                 // username
//	Value{V: "test"}                  // test       / ?
//	Lit{V: "test"}                    // 'test'     / ?
//	Raw("CURRENT_TIMESTAMP")          // raw text, never bound
//	Cmp{Left: a, Op: OpEq, Right: b}  // a = b
//	And(a, b)                         // a AND b
//
// # Statement Types
//
//	CreateTable{Table: "users", Columns: []ColumnDef{...}}
//	Insert{Table: "users", Fields: []Field{...}}
//	Select{Table: "users", Columns: []string{"*"}}
//	Update{Table: "users", Set: []Field{...}}
//	Delete{Table: "users", Where: []Field{...}}
//	DropTable{Table: "users"}
//	DropDatabase{}
//
// Placeholders are always "?" in bound text. Rebind rewrites them for
// engines that number their parameters.
package sqldsl
