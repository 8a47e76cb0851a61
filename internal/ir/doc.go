// Package ir provides the read-only type tree consumed by the binding generator.
//
// The tree is built by the compiler package from a type-tree document and then
// handed to the emitters, which never mutate it. This package imports nothing
// internal except errors, so every other package can depend on it.
//
// Key design constraints:
//   - Declaration order is load-bearing: members, cases, enumerators and bits are
//     slices, never maps.
//   - Scope is expressed through Parent links from a declaration to its module;
//     the root module has no identifier and never appears in a scope chain.
//   - A nil Type is a legal "unset" node. Consumers map it to a fallback and
//     report a warning instead of failing.
package ir
