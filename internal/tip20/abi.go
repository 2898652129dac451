// Package tip20 reads, writes and decodes events of Tempo TIP20 tokens.
package tip20

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/tempoxyz/tempo-cli/internal/contract"
)

// BuiltinID is the contract builtin under which the TIP20 ABI is registered.
const BuiltinID = "tip20"

var builtin = contract.RegisterBuiltin(BuiltinID, "TIP20 Token",
	"Tempo stablecoin token: ERC-20 plus memos, roles, pausing, supply cap and transfer policies.", tip20ABI)

// ABI returns the parsed TIP20 ABI.
func ABI() abi.ABI { return builtin.ABI }

const tip20ABI = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"currency","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"quoteToken","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"nextQuoteToken","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"supplyCap","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transferPolicyId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
  {"type":"function","name":"hasRole","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"role","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getRoleAdmin","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"}]},

  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transferWithMemo","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"memo","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transferFromWithMemo","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"memo","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"mintWithMemo","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"memo","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"burnWithMemo","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"memo","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"burnBlocked","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"pause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"unpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"changeTransferPolicyId","stateMutability":"nonpayable","inputs":[{"name":"newPolicyId","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"setSupplyCap","stateMutability":"nonpayable","inputs":[{"name":"newSupplyCap","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"updateQuoteToken","stateMutability":"nonpayable","inputs":[{"name":"newQuoteToken","type":"address"}],"outputs":[]},
  {"type":"function","name":"finalizeQuoteTokenUpdate","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"grantRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
  {"type":"function","name":"revokeRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
  {"type":"function","name":"renounceRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"setRoleAdmin","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"adminRole","type":"bytes32"}],"outputs":[]},

  {"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Mint","anonymous":false,"inputs":[{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Burn","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"BurnBlocked","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"TransferWithMemo","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"memo","type":"bytes32","indexed":true}]},
  {"type":"event","name":"PauseStateUpdate","anonymous":false,"inputs":[{"name":"updater","type":"address","indexed":true},{"name":"isPaused","type":"bool","indexed":false}]},
  {"type":"event","name":"QuoteTokenUpdate","anonymous":false,"inputs":[{"name":"updater","type":"address","indexed":true},{"name":"newQuoteToken","type":"address","indexed":true}]},
  {"type":"event","name":"NextQuoteTokenSet","anonymous":false,"inputs":[{"name":"updater","type":"address","indexed":true},{"name":"nextQuoteToken","type":"address","indexed":true}]},
  {"type":"event","name":"SupplyCapUpdate","anonymous":false,"inputs":[{"name":"updater","type":"address","indexed":true},{"name":"newSupplyCap","type":"uint256","indexed":true}]},
  {"type":"event","name":"TransferPolicyUpdate","anonymous":false,"inputs":[{"name":"updater","type":"address","indexed":true},{"name":"newPolicyId","type":"uint64","indexed":true}]},
  {"type":"event","name":"RoleMembershipUpdated","anonymous":false,"inputs":[{"name":"role","type":"bytes32","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"sender","type":"address","indexed":true},{"name":"hasRole","type":"bool","indexed":false}]},
  {"type":"event","name":"RoleAdminUpdated","anonymous":false,"inputs":[{"name":"role","type":"bytes32","indexed":true},{"name":"newAdminRole","type":"bytes32","indexed":true},{"name":"sender","type":"address","indexed":true}]}
]`
