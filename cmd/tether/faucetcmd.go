package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/crypto"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/system"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

var (
	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "recipient pubkey (defaults to the configured keypair)",
	}
	mintFlag = &cli.StringFlag{
		Name:  "mint",
		Usage: "reward mint address",
	}
	ownerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "wallet pubkey (defaults to the configured keypair)",
	}
)

func amountArg(c *cli.Context, what string) (uint64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one argument: <%s>", what)
	}
	n, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, c.Args().First(), err)
	}
	return n, nil
}

var commandAirdrop = &cli.Command{
	Name:      "airdrop",
	Usage:     "credit lamports to an account",
	ArgsUsage: "<lamports>",
	Flags:     []cli.Flag{toFlag},
	Action: func(c *cli.Context) error {
		lamports, err := amountArg(c, "lamports")
		if err != nil {
			return err
		}
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		to, err := l.ownerOrSelf(c, toFlag.Name)
		if err != nil {
			return err
		}
		if err := l.bank.Airdrop(to, lamports); err != nil {
			return err
		}
		account, err := l.bank.GetAccount(to)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Balance of %s: %d lamports\n", to.String(), account.Lamports)
		return nil
	},
}

var commandCreateMint = &cli.Command{
	Name:  "create-mint",
	Usage: "create a reward mint controlled by the tether program",
	Action: func(c *cli.Context) error {
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		payer, err := l.signer()
		if err != nil {
			return err
		}
		mint, authority, err := l.createMint(payer)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Mint: %s\n", mint.String())
		fmt.Fprintf(c.App.Writer, "Mint authority: %s\n", authority.String())
		return nil
	},
}

var commandMintTo = &cli.Command{
	Name:      "mint-to",
	Usage:     "credit reward tokens to a wallet's associated token account",
	ArgsUsage: "<amount>",
	Flags:     []cli.Flag{mintFlag, ownerFlag},
	Action: func(c *cli.Context) error {
		amount, err := amountArg(c, "amount")
		if err != nil {
			return err
		}
		mint, err := pubkeyFlag(c, mintFlag.Name)
		if err != nil {
			return err
		}
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		owner, err := l.ownerOrSelf(c, ownerFlag.Name)
		if err != nil {
			return err
		}
		ata, err := l.bank.MintTo(mint, owner, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Minted %d to %s\n", amount, ata.String())
		return nil
	},
}

// createMint creates and initializes a reward mint whose authority is the
// tether program's mint authority address.
func (l *ledger) createMint(payer *crypto.Keypair) (types.Pubkey, types.Pubkey, error) {
	mint, err := crypto.GenerateKeypair()
	if err != nil {
		return types.Pubkey{}, types.Pubkey{}, err
	}
	authority, _, err := tether.FindMintAuthorityAddress(l.cfg.ProgramID, mint.Pubkey())
	if err != nil {
		return types.Pubkey{}, types.Pubkey{}, err
	}
	_, err = l.send(payer, []*crypto.Keypair{mint},
		system.CreateAccount(payer.Pubkey(), mint.Pubkey(),
			uint64(l.bank.Rent().MinimumBalance(token.MintSize)), token.MintSize, tether.TokenProgramID),
		token.InitializeMint2(tether.TokenProgramID, mint.Pubkey(), tether.RewardDecimals, authority, nil),
	)
	if err != nil {
		return types.Pubkey{}, types.Pubkey{}, err
	}
	return mint.Pubkey(), authority, nil
}
