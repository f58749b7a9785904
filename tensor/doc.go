// Package tensor defines the dense volume type shared across trackio.
//
// # Volumes
//
// A Volume is an n-dimensional row-major array tagged with a dtype:
//
//   - Int32: tracked label data (0 = background, >0 = one cell instance)
//   - Float64: raw intensity data
//
// Shapes follow the conventions of the archive format. A batchless annotation
// volume is (T, H, W, C) or (C, T, H, W) depending on Layout; archived tensors
// carry a leading batch axis.
//
// # Layout
//
// Layout is the single source of truth for axis resolution. Code that needs
// the time or channel axis asks the Layout instead of hard-coding indices.
package tensor
