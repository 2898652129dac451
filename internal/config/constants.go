package config

import "time"

// Gas limits used when the node cannot estimate a transaction.
const (
	GasLimitTransfer     = uint64(100_000) // TIP20 transfer, with or without memo
	GasLimitMint         = uint64(120_000)
	GasLimitContractCall = uint64(200_000) // any other state-changing call
	GasPerExtraCall      = uint64(80_000)  // added per call in a batch
)

// Timeouts.
const (
	RPCSelectTimeout = 10 * time.Second
	TxConfirmTimeout = 3 * time.Minute
	RequestTimeout   = 30 * time.Second
)

// DefaultNonceKeyResetDelay is how long a parallel nonce-key lane stays
// allocated after its first broadcast before the counter returns to 0.
const DefaultNonceKeyResetDelay = 30 * time.Second
