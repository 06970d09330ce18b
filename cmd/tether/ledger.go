package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/bank"
	"github.com/Devansh-Aage/Tether/pkg/config"
	"github.com/Devansh-Aage/Tether/pkg/crypto"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// loadConfig reads the configuration and applies any global flags that
// were set explicitly.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return cfg, err
	}
	if c.IsSet(dataDirFlag.Name) {
		cfg.DataDir = c.String(dataDirFlag.Name)
		if !c.IsSet(keypairFlag.Name) {
			cfg.Keypair = filepath.Join(cfg.DataDir, "id.json")
		}
	}
	if c.IsSet(backendFlag.Name) {
		cfg.Ledger.Backend = c.String(backendFlag.Name)
	}
	if c.IsSet(keypairFlag.Name) {
		cfg.Keypair = c.String(keypairFlag.Name)
	}
	if c.IsSet(programIDFlag.Name) {
		id, err := types.PubkeyFromBase58(c.String(programIDFlag.Name))
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s: %w", programIDFlag.Name, err)
		}
		cfg.ProgramID = id
	}
	if c.IsSet(clockFlag.Name) {
		cfg.Ledger.Clock = c.Int64(clockFlag.Name)
	}
	return cfg, cfg.Validate()
}

// ledger is an open account store with a bank over it.
type ledger struct {
	cfg  config.Config
	db   accounts.AccountsDB
	bank *bank.Bank
	out  io.Writer
}

func openLedger(c *cli.Context, opts ...bank.Option) (*ledger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	db, err := cfg.OpenAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts: %w", err)
	}
	b, err := bank.New(db, cfg.ProgramID, append(cfg.BankOptions(), opts...)...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &ledger{cfg: cfg, db: db, bank: b, out: c.App.Writer}, nil
}

func (l *ledger) Close() error {
	return l.db.Close()
}

func (l *ledger) signer() (*crypto.Keypair, error) {
	kp, err := crypto.LoadKeypair(l.cfg.Keypair)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair (run `tether keygen`): %w", err)
	}
	return kp, nil
}

// send signs and processes one transaction, echoing its logs.
func (l *ledger) send(payer *crypto.Keypair, signers []*crypto.Keypair, insts ...*types.Instruction) (*types.TransactionResult, error) {
	msg, err := types.NewMessage(payer.Pubkey(), insts, l.bank.RecentBlockhash())
	if err != nil {
		return nil, err
	}
	tx := &types.Transaction{Message: *msg}
	if err := crypto.SignTransaction(tx, append([]*crypto.Keypair{payer}, signers...)...); err != nil {
		return nil, err
	}

	result := l.bank.ProcessTransaction(tx)
	w := l.out
	fmt.Fprintf(w, "Signature: %s\n", result.Signature.String())
	for _, line := range result.Logs {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if result.Error != nil {
		return result, fmt.Errorf("transaction failed: %w", result.Error)
	}
	fmt.Fprintf(w, "Compute units: %d\n", result.ComputeUnits)
	return result, nil
}

func pubkeyFlag(c *cli.Context, name string) (types.Pubkey, error) {
	s := c.String(name)
	if s == "" {
		return types.Pubkey{}, fmt.Errorf("--%s is required", name)
	}
	pk, err := types.PubkeyFromBase58(s)
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return pk, nil
}

// ownerOrSelf returns the pubkey in flag name, or the configured
// keypair's pubkey when the flag is unset.
func (l *ledger) ownerOrSelf(c *cli.Context, name string) (types.Pubkey, error) {
	if c.IsSet(name) {
		return pubkeyFlag(c, name)
	}
	kp, err := l.signer()
	if err != nil {
		return types.Pubkey{}, err
	}
	return kp.Pubkey(), nil
}
