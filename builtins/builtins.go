// Package builtins embeds the per-language builtin type tables. Each YAML
// file maps a language's builtin type spellings and intrinsic typedef names
// to their cgo and Go equivalents, so adding a language means dropping in a
// new *.yaml file and registering the lang key in internal/emit.
package builtins

import "embed"

// FS is an embed.FS containing every *.yaml file in this directory.
//
//go:embed *.yaml
var FS embed.FS
