// Package analyze scans Go packages for the types documents refer to.
//
// It uses golang.org/x/tools/go/packages with go/types to list the exported
// types of a package: structs with their fields for type aliases and result
// map checks, and interfaces with their methods for mapper bindings.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: describes kind (struct/interface/basic/alias/pointer/slice/external)
//   - FieldInfo: describes field name, type, tags, and embedding
package analyze
