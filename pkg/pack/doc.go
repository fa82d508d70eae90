// Package pack computes the static brick-packing layout of a component view.
//
// Packing runs in two passes. The sizing pass gives every component or
// directory box a size from its children: files fill 2 to 4 columns row by
// row, externals stack in a column of their own, and a header and padding
// are added. The placement pass sorts boxes widest first and searches a
// 20 unit grid around the current layout for the position that keeps the
// layout wide rather than tall, preferring the top-left. Children are then
// pinned at fixed offsets inside their box.
//
// The result is deterministic, so re-rendering unchanged data never moves
// anything.
package pack
