// Package patch parses and applies apply_patch-formatted payloads: a
// "*** Begin Patch" envelope containing Add/Update/Delete File directives
// with unified-diff hunks. It exposes primitives to parse a patch, apply it
// to the filesystem (backing the agent's apply_patch tool), or apply it to
// an in-memory document set for testing without touching disk.
package patch
