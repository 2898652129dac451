package config

// Config holds all tempo configuration.
type Config struct {
	DefaultNetwork     string                   `json:"default_network"       validate:"required"`
	DefaultAccount     string                   `json:"default_account"`
	FeeToken           string                   `json:"fee_token"             validate:"omitempty,eth_addr"`
	NonceKeyResetDelay Duration                 `json:"nonce_key_reset_delay" validate:"gte=0"`
	RPCStrategy        string                   `json:"rpc_strategy"          validate:"oneof=fastest failover rotate"`
	LogLevel           string                   `json:"log_level"             validate:"oneof=debug info warn error disabled"`
	Networks           map[string]NetworkConfig `json:"networks"              validate:"dive"`

	// config dir path used by Save
	configDir string
}

// NetworkConfig adds a network or overrides fields of a built-in one.
type NetworkConfig struct {
	RPCURL   string `json:"rpc_url"            validate:"required,url"`
	ChainID  uint64 `json:"chain_id,omitempty"`
	Explorer string `json:"explorer,omitempty" validate:"omitempty,url"`
}
