// Package kernel provides the core domain primitives shared by every part of
// the dispatch engine: validated UUID identifiers and geographic points.
//
// Both types are immutable value objects. Their zero values are invalid and
// fail Validate; instances must be created through the provided constructors.
package kernel
