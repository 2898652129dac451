package tip20

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUnknownRole is returned by RoleByName for unrecognised names.
var ErrUnknownRole = errors.New("unknown role")

// Roles. Each is keccak256 of its name, except the admin role which is zero.
var (
	DefaultAdminRole = common.Hash{}
	IssuerRole       = crypto.Keccak256Hash([]byte("ISSUER_ROLE"))
	PauseRole        = crypto.Keccak256Hash([]byte("PAUSE_ROLE"))
	UnpauseRole      = crypto.Keccak256Hash([]byte("UNPAUSE_ROLE"))
	BurnBlockedRole  = crypto.Keccak256Hash([]byte("BURN_BLOCKED_ROLE"))
)

var roleNames = map[string]common.Hash{
	"DEFAULT_ADMIN_ROLE": DefaultAdminRole,
	"ISSUER_ROLE":        IssuerRole,
	"PAUSE_ROLE":         PauseRole,
	"UNPAUSE_ROLE":       UnpauseRole,
	"BURN_BLOCKED_ROLE":  BurnBlockedRole,
}

// RoleByName resolves a role from its name or a 0x-prefixed 32-byte hash.
// Names are case-insensitive, and "issuer" works as well as "ISSUER_ROLE".
func RoleByName(s string) (common.Hash, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := hexBytes(s)
		if err != nil || len(b) != common.HashLength {
			return common.Hash{}, fmt.Errorf("%w: %q is not a 32-byte hash", ErrUnknownRole, s)
		}
		return common.BytesToHash(b), nil
	}
	name := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	if h, ok := roleNames[name]; ok {
		return h, nil
	}
	if name == "ADMIN" || name == "DEFAULT_ADMIN" {
		return DefaultAdminRole, nil
	}
	if h, ok := roleNames[name+"_ROLE"]; ok {
		return h, nil
	}
	return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownRole, s)
}

// RoleName returns the well-known name of role, or its hex when unknown.
func RoleName(role common.Hash) string {
	for name, h := range roleNames {
		if h == role {
			return name
		}
	}
	return role.Hex()
}
