// Package heap implements the memory substrate of the tagheap runtime.
//
// This package contains:
//   - Tagged value representation (inline integers vs. heap addresses)
//   - Heap object layout for strings, arrays, tagged variants and closures
//   - A simulated word-addressed address space with growable regions
//   - A bump allocator over two semi-spaces
//   - Root discovery over a static region, a bracketed stack range and
//     explicitly registered extra roots
//   - A stop-the-world Cheney copying collector
//
// A Heap is single threaded. Values held only in Go variables are not roots:
// anything that must survive an allocating call has to live in a global, on
// the heap's stack, or be registered with PushExtraRoot.
package heap
