// Package linker resolves Solidity-convention library placeholders
// (__<34-char library id>__) in hex bytecode to deployed addresses.
package linker

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/primablock/parables/types"
)

// Linker errors.
var (
	ErrLinkConflict   = errors.New("linker: library id already registered")
	ErrUnresolvedLink = errors.New("linker: unresolved library placeholder")
)

const (
	placeholderLen = 38 // "__" + 34 chars + "__" = 38 bytes of hex text
	idLen          = 34
)

// UnresolvedLinkError names the specific placeholder id that failed to
// resolve.
type UnresolvedLinkError struct {
	ID string
}

func (e *UnresolvedLinkError) Error() string {
	return fmt.Sprintf("linker: unresolved library placeholder %q", e.ID)
}

func (e *UnresolvedLinkError) Unwrap() error { return ErrUnresolvedLink }

// Linker holds a registry of library id -> deployed address bindings.
type Linker struct {
	libraries map[string]types.Address
}

// New returns an empty Linker.
func New() *Linker {
	return &Linker{libraries: make(map[string]types.Address)}
}

// Register binds libraryID to addr. Fails ErrLinkConflict if libraryID is
// already registered.
func (l *Linker) Register(libraryID string, addr types.Address) error {
	if _, exists := l.libraries[libraryID]; exists {
		return fmt.Errorf("%w: %q", ErrLinkConflict, libraryID)
	}
	l.libraries[libraryID] = addr
	return nil
}

// Link substitutes every __<34-char id>__ placeholder in code with the hex
// of its registered address. code may be given with or without a "0x"
// prefix; the result carries no prefix. The library id looked up is the
// text between the "$" delimiters when the id has the form "$Name$...",
// and otherwise the 34 chars with trailing '_' padding removed. Each
// 38-char placeholder becomes the 40 hex chars of its address, so the
// output is one byte longer per placeholder than input hex length / 2.
// An unresolved placeholder fails *UnresolvedLinkError.
func (l *Linker) Link(code string) (types.Bytes, error) {
	code = strings.TrimPrefix(code, "0x")
	code = strings.TrimPrefix(code, "0X")

	var out strings.Builder
	out.Grow(len(code))

	for i := 0; i < len(code); {
		if code[i] == '_' && i+placeholderLen <= len(code) && isPlaceholder(code[i:i+placeholderLen]) {
			id := code[i+2 : i+2+idLen]
			if end := strings.IndexByte(id[1:], '$'); id[0] == '$' && end >= 0 {
				id = id[1 : 1+end]
			} else {
				id = strings.TrimRight(id, "_")
			}
			addr, ok := l.libraries[id]
			if !ok {
				return nil, &UnresolvedLinkError{ID: id}
			}
			out.WriteString(strings.ToLower(addr.Hex()[2:]))
			i += placeholderLen
			continue
		}
		out.WriteByte(code[i])
		i++
	}

	decoded, err := hex.DecodeString(out.String())
	if err != nil {
		return nil, fmt.Errorf("linker: %w", err)
	}
	return types.Bytes(decoded), nil
}

func isPlaceholder(s string) bool {
	return len(s) == placeholderLen &&
		s[0] == '_' && s[1] == '_' &&
		s[len(s)-2] == '_' && s[len(s)-1] == '_'
}
