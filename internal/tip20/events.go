package tip20

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrUnknownEvent is returned by DecodeLog for logs that are not TIP20 events.
var ErrUnknownEvent = errors.New("not a TIP20 event")

// Event is a decoded TIP20 log.
type Event struct {
	Name        string
	Token       common.Address
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Fields      map[string]any
	order       []string
}

// FieldNames returns the event's fields in declaration order.
func (e *Event) FieldNames() []string { return e.order }

// Address returns an address field, or the zero address.
func (e *Event) Address(name string) common.Address {
	a, _ := e.Fields[name].(common.Address)
	return a
}

// Amount returns a uint256 field, or nil.
func (e *Event) Amount(name string) *big.Int {
	n, _ := e.Fields[name].(*big.Int)
	return n
}

var eventsByID = func() map[common.Hash]abi.Event {
	m := make(map[common.Hash]abi.Event, len(builtin.ABI.Events))
	for _, ev := range builtin.ABI.Events {
		m[ev.ID] = ev
	}
	return m
}()

// DecodeLog decodes a TIP20 event log.
func DecodeLog(l types.Log) (*Event, error) {
	if len(l.Topics) == 0 {
		return nil, ErrUnknownEvent
	}
	ev, ok := eventsByID[l.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: topic %s", ErrUnknownEvent, l.Topics[0].Hex())
	}

	fields := make(map[string]any, len(ev.Inputs))
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(l.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%s: expected %d indexed topics, got %d", ev.Name, len(indexed), len(l.Topics)-1)
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%s topics: %w", ev.Name, err)
	}
	if len(ev.Inputs.NonIndexed()) > 0 {
		if err := ev.Inputs.UnpackIntoMap(fields, l.Data); err != nil {
			return nil, fmt.Errorf("%s data: %w", ev.Name, err)
		}
	}

	order := make([]string, len(ev.Inputs))
	for i, in := range ev.Inputs {
		order[i] = in.Name
		if b, ok := fields[in.Name].([32]byte); ok {
			fields[in.Name] = common.Hash(b)
		}
	}
	return &Event{
		Name:        ev.Name,
		Token:       l.Address,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
		Fields:      fields,
		order:       order,
	}, nil
}

// LogFilterer fetches logs. *chain.Client satisfies it.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Events fetches and decodes the token's events in [from, to]. A nil to
// means the latest block. names restricts the result to those events.
func (t *Token) Events(ctx context.Context, f LogFilterer, from, to *big.Int, names ...string) ([]*Event, error) {
	q := ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{t.Address},
	}
	if len(names) > 0 {
		var ids []common.Hash
		for _, n := range names {
			ev, ok := builtin.ABI.Events[n]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, n)
			}
			ids = append(ids, ev.ID)
		}
		q.Topics = [][]common.Hash{ids}
	}

	logs, err := f.FilterLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*Event, 0, len(logs))
	for _, l := range logs {
		ev, err := DecodeLog(l)
		if errors.Is(err, ErrUnknownEvent) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
