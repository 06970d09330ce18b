package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

var commandShow = &cli.Command{
	Name:      "show",
	Usage:     "print an account and decode its data when possible",
	ArgsUsage: "<pubkey>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return errors.New("expected exactly one argument: <pubkey>")
		}
		pubkey, err := types.PubkeyFromBase58(c.Args().First())
		if err != nil {
			return err
		}
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		account, err := l.bank.GetAccount(pubkey)
		if err != nil {
			return err
		}
		w := c.App.Writer
		if account == nil {
			fmt.Fprintf(w, "%s: account not found\n", pubkey.String())
			return nil
		}
		fmt.Fprintf(w, "Address:    %s\n", pubkey.String())
		fmt.Fprintf(w, "Lamports:   %d\n", account.Lamports)
		fmt.Fprintf(w, "Owner:      %s\n", account.Owner.String())
		fmt.Fprintf(w, "Executable: %t\n", account.Executable)
		fmt.Fprintf(w, "Data:       %d bytes\n", len(account.Data))
		describe(w, l.cfg.ProgramID, account)
		return nil
	},
}

func describe(w io.Writer, programID types.Pubkey, account *types.Account) {
	switch {
	case account.Owner == programID && len(account.Data) == tether.ParticipantLen:
		p, err := tether.LoadParticipant(account.Data)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "Position:\n")
		fmt.Fprintf(w, "  Stake:       %d\n", p.Stake())
		fmt.Fprintf(w, "  Active time: %d\n", p.ActiveTime())
		fmt.Fprintf(w, "  Participant: %s\n", p.Key().String())
		fmt.Fprintf(w, "  Bump:        %d\n", p.Bump())

	case account.Owner == types.SystemProgramID && len(account.Data) == 1 && account.Data[0] == tether.ClosedSentinel:
		fmt.Fprintf(w, "Position: closed\n")

	case account.Owner.IsTokenProgram() && len(account.Data) == token.MintSize:
		mint, err := token.DeserializeMint(account.Data)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "Mint:\n")
		fmt.Fprintf(w, "  Supply:    %d\n", mint.Supply)
		fmt.Fprintf(w, "  Decimals:  %d\n", mint.Decimals)
		if mint.MintAuthority.IsSome {
			fmt.Fprintf(w, "  Authority: %s\n", mint.MintAuthority.Value.String())
		}

	case account.Owner.IsTokenProgram() && len(account.Data) >= token.TokenAccountSize:
		ta, err := token.DeserializeTokenAccount(account.Data)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "Token account:\n")
		fmt.Fprintf(w, "  Mint:   %s\n", ta.Mint.String())
		fmt.Fprintf(w, "  Owner:  %s\n", ta.Owner.String())
		fmt.Fprintf(w, "  Amount: %d\n", ta.Amount)
	}
}

var commandPrograms = &cli.Command{
	Name:  "programs",
	Usage: "list the programs loaded into the ledger",
	Action: func(c *cli.Context) error {
		l, err := openLedger(c)
		if err != nil {
			return err
		}
		defer l.Close()

		table := tablewriter.NewWriter(c.App.Writer)
		table.SetHeader([]string{"Address", "Name", "Owner"})
		table.SetBorder(false)
		registry := l.bank.Programs()
		for _, id := range registry.ListPrograms() {
			name, _ := registry.GetProgramName(id)
			owner := "-"
			if account, err := l.bank.GetAccount(id); err == nil && account != nil {
				owner = account.Owner.String()
			}
			table.Append([]string{id.String(), name, owner})
		}
		table.Render()
		return nil
	},
}
