package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xarmian/voi-wallet-sub008/pkg/config"
	"github.com/xarmian/voi-wallet-sub008/pkg/consumer"
	"github.com/xarmian/voi-wallet-sub008/pkg/event"
	"github.com/xarmian/voi-wallet-sub008/pkg/keyring"
	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
	"github.com/xarmian/voi-wallet-sub008/pkg/messaging"
	"github.com/xarmian/voi-wallet-sub008/pkg/requestqueue"
	"github.com/xarmian/voi-wallet-sub008/pkg/signer"
	"github.com/xarmian/voi-wallet-sub008/pkg/signing"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

var (
	debugFlag        bool
	passwordFileFlag string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the signing agent",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	startCmd.Flags().StringVar(&passwordFileFlag, "password-file", "", "file holding the database passphrase, overrides config")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	logger.Init(cfg.Environment, debugFlag)

	if passwordFileFlag != "" {
		password, err := os.ReadFile(passwordFileFlag)
		if err != nil {
			return fmt.Errorf("read password file: %w", err)
		}
		cfg.BadgerPassword = strings.TrimSpace(string(password))
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	kr, accounts, err := buildKeyring(cfg)
	if err != nil {
		return err
	}
	resolver, err := newDefaultAccountResolver(cfg, accounts)
	if err != nil {
		return err
	}

	natsConn, err := messaging.GetNATSConnection(cfg.Environment, cfg.NATs)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	pubsub := messaging.NewNATSPubSub(natsConn)
	defer pubsub.Close()

	manager := messaging.NewNATsMessageQueueManager(event.SignResultStream, []string{event.SignResultTopic}, natsConn)
	resultQueue := manager.NewMessageQueue(event.SignResultQueueName)
	defer resultQueue.Close()

	queue := requestqueue.New(store,
		requestqueue.WithMaxSize(cfg.MaxQueueSize),
		requestqueue.WithStaleTimeout(time.Duration(cfg.StaleRequestTimeoutMs)*time.Millisecond),
	)
	orchestrator := signing.New(nil, nil, kr, kr)

	c := consumer.NewSignRequestConsumer(pubsub, resultQueue, queue, orchestrator, resolver)
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Signing agent started", "environment", cfg.Environment, "accounts", len(accounts))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Signing agent stopped")
	return nil
}

// buildKeyring registers a signer backend for every configured account and
// returns the hosted account list.
func buildKeyring(cfg *config.AppConfig) (*keyring.Keyring, []types.Account, error) {
	kr := keyring.New()
	var accounts []types.Account

	for _, ac := range cfg.Accounts {
		switch types.AccountType(ac.Type) {
		case types.AccountTypeSoftware:
			seed, err := readSeedFile(ac.SeedFile)
			if err != nil {
				return nil, nil, fmt.Errorf("account %s: %w", ac.Address, err)
			}
			s, err := signer.NewSoftwareSigner(ac.Address, seed, ac.PIN)
			if err != nil {
				return nil, nil, fmt.Errorf("account %s: %w", ac.Address, err)
			}
			kr.Register(ac.Address, s)
			accounts = append(accounts, types.Account{Address: ac.Address, Type: types.AccountTypeSoftware})
			logger.Info("Registered software account", "address", ac.Address)
		case types.AccountTypeHardware:
			// Hardware signers need a BLE transport, which only exists when a
			// device session is active. The headless agent cannot host them.
			logger.Warn("Skipping hardware account, no device transport available", "address", ac.Address)
		default:
			return nil, nil, fmt.Errorf("account %s: unknown type %q", ac.Address, ac.Type)
		}
	}

	return kr, accounts, nil
}

// defaultAccountResolver serves every request topic with the agent's primary
// account. Pairing topics carry a request ID, not an address, so routing by
// topic only matters once the agent hosts more than one signing account.
type defaultAccountResolver struct {
	account types.Account
	cred    *types.Credential
}

func newDefaultAccountResolver(cfg *config.AppConfig, accounts []types.Account) (consumer.AccountResolver, error) {
	if len(accounts) == 0 {
		return nil, errors.New("no usable accounts configured")
	}

	primary := accounts[0]
	var cred *types.Credential
	for _, ac := range cfg.Accounts {
		if ac.Address == primary.Address && ac.PIN != "" {
			cred = &types.Credential{PIN: ac.PIN}
			break
		}
	}
	return &defaultAccountResolver{account: primary, cred: cred}, nil
}

func (r *defaultAccountResolver) Resolve(topic string) (*types.Account, *types.Credential, error) {
	account := r.account
	return &account, r.cred, nil
}
