package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
)

var (
	seedFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "position seed, distinguishing several positions of one wallet",
	}
	activeTimeFlag = &cli.Int64Flag{
		Name:  "active-time",
		Usage: "unix timestamp from which the position can be claimed",
	}
	lockFlag = &cli.DurationFlag{
		Name:  "lock",
		Usage: "claimable after this long, measured from the ledger clock",
	}
	winnerFlag = &cli.BoolFlag{
		Name:  "winner",
		Usage: "claim with the winner multiplier",
	}
)

var commandParticipate = &cli.Command{
	Name:  "participate",
	Usage: "stake the whole token balance into a new position",
	Flags: []cli.Flag{mintFlag, seedFlag, activeTimeFlag, lockFlag},
	Action: func(c *cli.Context) error {
		mint, err := pubkeyFlag(c, mintFlag.Name)
		if err != nil {
			return err
		}
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		var activeTime int64
		switch {
		case c.IsSet(activeTimeFlag.Name):
			activeTime = c.Int64(activeTimeFlag.Name)
		case c.IsSet(lockFlag.Name):
			now := l.cfg.Ledger.Clock
			if now == 0 {
				now = time.Now().Unix()
			}
			activeTime = now + int64(c.Duration(lockFlag.Name)/time.Second)
		default:
			return errors.New("one of --active-time or --lock is required")
		}

		signer, err := l.signer()
		if err != nil {
			return err
		}
		seed := c.Uint64(seedFlag.Name)
		inst, err := tether.Participate(l.cfg.ProgramID, signer.Pubkey(), mint, activeTime, seed)
		if err != nil {
			return err
		}
		if _, err := l.send(signer, nil, inst); err != nil {
			return err
		}
		record, _, err := tether.FindParticipantAddress(l.cfg.ProgramID, signer.Pubkey(), seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Position: %s (seed %d, active at %d)\n", record.String(), seed, activeTime)
		return nil
	},
}

var commandClaim = &cli.Command{
	Name:  "claim",
	Usage: "close a position and receive its reward",
	Flags: []cli.Flag{mintFlag, seedFlag, winnerFlag},
	Action: func(c *cli.Context) error {
		mint, err := pubkeyFlag(c, mintFlag.Name)
		if err != nil {
			return err
		}
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		signer, err := l.signer()
		if err != nil {
			return err
		}
		inst, err := tether.Claim(l.cfg.ProgramID, signer.Pubkey(), mint, c.Uint64(seedFlag.Name), c.Bool(winnerFlag.Name))
		if err != nil {
			return err
		}
		_, err = l.send(signer, nil, inst)
		return err
	},
}

var commandDerive = &cli.Command{
	Name:  "derive",
	Usage: "print the program-derived addresses for a wallet and mint",
	Flags: []cli.Flag{mintFlag, ownerFlag, seedFlag},
	Action: func(c *cli.Context) error {
		mint, err := pubkeyFlag(c, mintFlag.Name)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		l := &ledger{cfg: cfg}
		owner, err := l.ownerOrSelf(c, ownerFlag.Name)
		if err != nil {
			return err
		}

		w := c.App.Writer
		authority, bump, err := tether.FindMintAuthorityAddress(cfg.ProgramID, mint)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Mint authority:   %s (bump %d)\n", authority.String(), bump)

		ata, bump, err := syscall.DeriveAssociatedTokenAddress(owner, mint, tether.TokenProgramID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Token account:    %s (bump %d)\n", ata.String(), bump)

		seed := c.Uint64(seedFlag.Name)
		record, bump, err := tether.FindParticipantAddress(cfg.ProgramID, owner, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Position seed %d: %s (bump %d)\n", seed, record.String(), bump)
		return nil
	},
}
