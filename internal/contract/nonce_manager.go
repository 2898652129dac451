package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tempoxyz/tempo-cli/internal/chain"
)

// NonceManagerID is the builtin ID of the NonceManager precompile interface.
const NonceManagerID = "nonce-manager"

const nonceManagerABI = `[
  {"type":"function","name":"getNonce","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"},{"name":"nonceKey","type":"uint256"}],
   "outputs":[{"name":"nonce","type":"uint64"}]},
  {"type":"event","name":"NonceIncremented","anonymous":false,
   "inputs":[{"name":"account","type":"address","indexed":true},
             {"name":"nonceKey","type":"uint256","indexed":true},
             {"name":"newNonce","type":"uint64","indexed":false}]},
  {"type":"error","name":"ProtocolNonceNotSupported","inputs":[]},
  {"type":"error","name":"InvalidNonceKey","inputs":[]},
  {"type":"error","name":"NonceOverflow","inputs":[]}
]`

var nonceManager = RegisterBuiltin(NonceManagerID, "Tempo NonceManager",
	"Sequence numbers for nonce keys above 0.", nonceManagerABI)

// NonceOf reads the next sequence number of key for account from the
// NonceManager precompile at the pending state, so a key whose last
// transaction is not mined yet is not handed out again with the same
// sequence. Key 0 is the protocol nonce and is not tracked there; use the
// account's pending transaction count instead.
func NonceOf(ctx context.Context, b PendingBackend, account common.Address, key *uint256.Int) (uint64, error) {
	out, err := NewCaller(b, nonceManager.ABI).CallPending(ctx, chain.NonceManagerAddress, "getNonce", account, key.ToBig())
	if err != nil {
		return 0, fmt.Errorf("reading nonce key %s: %w", key.Dec(), err)
	}
	n, ok := out[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("getNonce returned %T", out[0])
	}
	return n, nil
}
