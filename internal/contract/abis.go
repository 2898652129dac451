// Package contract packs calls against embedded ABIs and submits them as
// Tempo transactions.
package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BuiltinKind is a contract interface whose ABI is embedded in the binary.
// New built-ins register themselves from init() in their own file.
type BuiltinKind struct {
	ID          string // machine key, e.g. "tip20"
	Name        string // human label
	Description string
	ABI         abi.ABI
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin parses abiJSON and adds it to the registry. It panics on a
// malformed ABI, so call it from init().
func RegisterBuiltin(id, name, description, abiJSON string) BuiltinKind {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("contract: builtin %q: %v", id, err))
	}
	b := BuiltinKind{ID: id, Name: name, Description: description, ABI: parsed}
	builtinRegistry[id] = b
	return b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
