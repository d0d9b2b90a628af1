package ingestion

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
	"survive-arena/internal/idhash"
)

// ErrUnknownEvent is returned for logs whose first topic is not a contract event.
var ErrUnknownEvent = errors.New("unknown event")

// Argument names copied into LedgerEvent.Amount and LedgerEvent.Value.
var (
	amountArgs = map[string]bool{"amount": true, "platformFee": true, "entranceFee": true}
	valueArgs  = map[string]bool{
		"betType":         true,
		"additionalVotes": true,
		"newState":        true,
		"eliminatedCount": true,
		"endTime":         true,
	}
)

// Decoder turns raw contract logs into ledger events.
type Decoder struct {
	abi     abi.ABI
	address common.Address
}

// NewDecoder creates a decoder for logs emitted by address.
func NewDecoder(address common.Address) (*Decoder, error) {
	parsed, err := contract.ABI()
	if err != nil {
		return nil, err
	}
	return &Decoder{abi: parsed, address: address}, nil
}

// Topics returns the event ids of every contract event.
func (d *Decoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.abi.Events))
	for _, ev := range d.abi.Events {
		out = append(out, ev.ID)
	}
	return out
}

// Decode converts one log. The first address argument becomes Actor and the
// second Target, e.g. VoteCast(voter, candidate) and BetPlaced(bettor, target).
// Timestamp is left 0; the runner stamps it from the block header.
func (d *Decoder) Decode(l types.Log) (*domain.LedgerEvent, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("%w: log without topics", ErrUnknownEvent)
	}
	if l.Address != d.address {
		return nil, fmt.Errorf("%w: emitted by %s", ErrUnknownEvent, l.Address.Hex())
	}
	ev, err := d.abi.EventByID(l.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, l.Topics[0].Hex())
	}

	values := make(map[string]interface{}, len(ev.Inputs))

	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("decode %s topics: %w", ev.Name, err)
	}
	if len(l.Data) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(values, l.Data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", ev.Name, err)
		}
	}

	out := &domain.LedgerEvent{
		ID:          idhash.ComputeLedgerEventID(l.TxHash.Hex(), l.Index),
		BlockNumber: l.BlockNumber,
		BlockHash:   l.BlockHash.Hex(),
		TxHash:      l.TxHash.Hex(),
		LogIndex:    l.Index,
		EventName:   ev.Name,
	}

	// Walk inputs in declaration order so Actor/Target assignment is stable.
	for _, in := range ev.Inputs {
		v, ok := values[in.Name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case common.Address:
			addr := domain.NormalizeAddress(val.Hex())
			if out.Actor == "" {
				out.Actor = addr
			} else if out.Target == "" {
				out.Target = addr
			}
		case *big.Int:
			switch {
			case in.Name == "poolId":
				out.PoolID = val.Uint64()
			case amountArgs[in.Name]:
				out.Amount = contract.FormatEther(val)
			case valueArgs[in.Name]:
				out.Value = val.Uint64()
			}
		case uint8:
			if valueArgs[in.Name] {
				out.Value = uint64(val)
			}
		}
	}

	return out, nil
}
