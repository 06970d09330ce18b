package main

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/crypto"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// participantLamports funds a simulated wallet for its position record.
const participantLamports = 100_000_000

type simulationSummary struct {
	Mint         types.Pubkey
	Participants int
	Winners      int
	Staked       uint64
	Rewarded     uint64
	ComputeUnits uint64
	Elapsed      time.Duration
}

func (s *simulationSummary) print(w io.Writer) {
	fmt.Fprintf(w, "Mint:          %s\n", s.Mint.String())
	fmt.Fprintf(w, "Participants:  %d (%d winners)\n", s.Participants, s.Winners)
	fmt.Fprintf(w, "Staked:        %d\n", s.Staked)
	fmt.Fprintf(w, "Rewarded:      %d\n", s.Rewarded)
	fmt.Fprintf(w, "Compute units: %d\n", s.ComputeUnits)
	fmt.Fprintf(w, "Elapsed:       %s\n", s.Elapsed.Round(time.Millisecond))
}

// simulate plays one full round against the ledger: n wallets stake,
// the clock moves past the lock, then every wallet claims. Every fourth
// wallet claims as a winner.
func simulate(l *ledger, n int, lock time.Duration) (*simulationSummary, error) {
	started := time.Now()
	now := l.cfg.Ledger.Clock
	if now == 0 {
		now = started.Unix()
	}
	l.bank.SetClock(func() int64 { return now })

	out := l.out
	l.out = io.Discard
	defer func() { l.out = out }()

	summary := &simulationSummary{}
	record := func(result *types.TransactionResult) {
		summary.ComputeUnits += uint64(result.ComputeUnits)
	}

	payer, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	if err := l.bank.Airdrop(payer.Pubkey(), 10*participantLamports); err != nil {
		return nil, err
	}
	summary.Mint, _, err = l.createMint(payer)
	if err != nil {
		return nil, err
	}

	activeTime := now + int64(lock/time.Second)
	wallets := make([]*crypto.Keypair, n)
	for i := range wallets {
		kp, err := crypto.GenerateKeypair()
		if err != nil {
			return nil, err
		}
		wallets[i] = kp
		if err := l.bank.Airdrop(kp.Pubkey(), participantLamports); err != nil {
			return nil, err
		}
		stake := uint64(i+1) * 1_000_000
		if _, err := l.bank.MintTo(summary.Mint, kp.Pubkey(), stake); err != nil {
			return nil, err
		}
		inst, err := tether.Participate(l.cfg.ProgramID, kp.Pubkey(), summary.Mint, activeTime, uint64(i))
		if err != nil {
			return nil, err
		}
		result, err := l.send(kp, nil, inst)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		record(result)
		summary.Participants++
		summary.Staked += stake
	}

	now = activeTime
	for i, kp := range wallets {
		winner := i%4 == 0
		inst, err := tether.Claim(l.cfg.ProgramID, kp.Pubkey(), summary.Mint, uint64(i), winner)
		if err != nil {
			return nil, err
		}
		result, err := l.send(kp, nil, inst)
		if err != nil {
			return nil, fmt.Errorf("claim %d: %w", i, err)
		}
		record(result)
		reward, err := tether.Reward(uint64(i+1)*1_000_000, winner)
		if err != nil {
			return nil, err
		}
		summary.Rewarded += reward
		if winner {
			summary.Winners++
		}
	}
	summary.Elapsed = time.Since(started)
	return summary, nil
}

var participantsFlag = &cli.IntFlag{
	Name:  "participants",
	Usage: "number of wallets in the round",
	Value: 8,
}

var commandSimulate = &cli.Command{
	Name:  "simulate",
	Usage: "play a full stake-and-claim round with generated wallets",
	Flags: []cli.Flag{participantsFlag, lockFlag},
	Action: func(c *cli.Context) error {
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		summary, err := simulate(l, c.Int(participantsFlag.Name), lockDuration(c))
		if err != nil {
			return err
		}
		summary.print(c.App.Writer)
		return nil
	},
}
