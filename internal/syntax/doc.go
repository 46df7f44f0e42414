// Package syntax provides the structural model manipulated by the entangle
// transformer.
//
// This package contains type definitions and their source-text forms only.
// All other internal packages import syntax; syntax imports nothing internal.
// This keeps the model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - SourceConstruct is a closed sum: *DataType, *HandlerImplBlock, *InterfaceImplBlock
//   - ImplItem is open: the transformer treats unknown implementations as defects
//   - Field and item order is significant and always preserved
//   - Types render to the target language through their String methods
package syntax
