// Package session owns the single ledger gateway and wallet signer shared by
// every view. Components read the current gateway through Gateway(); only
// Connect, Disconnect and Reinitialize replace it.
package session

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"survive-arena/internal/contract"
	"survive-arena/internal/ledger"
)

// Defaults of the deployed game.
const (
	DefaultChainID         = 10143
	DefaultContractAddress = "0x6797fb3F6B09dd2306e0D5Fb26999823417Fdb11"
	DefaultRPCURL          = "https://testnet-rpc.monad.xyz"
)

// GatewayFactory builds a gateway, with writes enabled when signer is non-nil.
type GatewayFactory func(signer *contract.Signer) (contract.Gateway, error)

// Config configures a Session.
type Config struct {
	ContractAddress common.Address
	ChainID         *big.Int
	Logger          *zap.Logger
	// Factory overrides gateway construction (tests).
	Factory GatewayFactory
	// GatewayOptions are passed to contract.NewClient by the default factory.
	GatewayOptions []contract.Option
}

// Session is the owned wallet/gateway context.
type Session struct {
	rpc     ledger.RPCClient
	chainID *big.Int
	factory GatewayFactory
	logger  *zap.Logger

	mu      sync.RWMutex
	signer  *contract.Signer
	gateway contract.Gateway
}

// New creates a read-only session.
func New(rpc ledger.RPCClient, cfg Config) (*Session, error) {
	if cfg.ChainID == nil {
		cfg.ChainID = big.NewInt(DefaultChainID)
	}
	if cfg.ContractAddress == (common.Address{}) {
		cfg.ContractAddress = common.HexToAddress(DefaultContractAddress)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := cfg.Factory
	if factory == nil {
		factory = func(signer *contract.Signer) (contract.Gateway, error) {
			opts := append([]contract.Option{contract.WithLogger(logger)}, cfg.GatewayOptions...)
			if signer != nil {
				opts = append(opts, contract.WithSigner(signer))
			}
			return contract.NewClient(rpc, cfg.ContractAddress, cfg.ChainID, opts...)
		}
	}

	s := &Session{
		rpc:     rpc,
		chainID: cfg.ChainID,
		factory: factory,
		logger:  logger,
	}

	gw, err := factory(nil)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}
	s.gateway = gw
	return s, nil
}

// Connect verifies the network and installs the wallet key.
func (s *Session) Connect(ctx context.Context, privateKeyHex string) error {
	if err := s.verifyNetwork(ctx); err != nil {
		return err
	}

	signer, err := contract.NewSigner(privateKeyHex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(signer)
}

// Disconnect drops the signer; the session stays usable for reads.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(nil)
}

// Reinitialize rebuilds the gateway, keeping the current signer after
// re-verifying the network. It is the only rebuild entry point.
func (s *Session) Reinitialize(ctx context.Context) error {
	s.mu.RLock()
	signer := s.signer
	s.mu.RUnlock()

	if signer != nil {
		if err := s.verifyNetwork(ctx); err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			if rerr := s.rebuildLocked(nil); rerr != nil {
				return rerr
			}
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(signer)
}

// Gateway returns the current gateway.
func (s *Session) Gateway() contract.Gateway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gateway
}

// Account returns the connected lowercase address, or "" when disconnected.
func (s *Session) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signer == nil {
		return ""
	}
	return strings.ToLower(s.signer.Address().Hex())
}

// Connected reports whether a signer is installed.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signer != nil
}

// ChainID returns the expected chain id.
func (s *Session) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

func (s *Session) verifyNetwork(ctx context.Context) error {
	got, err := s.rpc.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	if got.Cmp(s.chainID) != 0 {
		return &contract.NotConnectedError{
			Reason: contract.ErrWrongNetwork,
			Detail: fmt.Sprintf("chain id %s, expected %s", got, s.chainID),
		}
	}
	return nil
}

func (s *Session) rebuildLocked(signer *contract.Signer) error {
	gw, err := s.factory(signer)
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}
	s.signer = signer
	s.gateway = gw

	if signer != nil {
		s.logger.Info("wallet connected", zap.String("account", strings.ToLower(signer.Address().Hex())))
	} else {
		s.logger.Info("session running read-only")
	}
	return nil
}
