// Package vm implements capability-tagged heap objects for actor isolation.
//
// This package contains:
//   - Value representation (primitives, the Nil sentinel, heap objects)
//   - Object layout and slot access, fieldless objects, specialised arrays
//   - The capability lattice and the guard consulted at every binding point
//   - Graph transfer, the deep copy performed when an isolate-owned object
//     crosses into another actor
package vm
