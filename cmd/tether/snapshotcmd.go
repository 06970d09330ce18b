package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/snapshot"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

var hashFlag = &cli.StringFlag{
	Name:  "hash",
	Usage: "expected SHA-256 of the archive, base58",
}

func pathArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one argument: <path>")
	}
	return c.Args().First(), nil
}

func printManifest(c *cli.Context, m *snapshot.Manifest) {
	w := c.App.Writer
	fmt.Fprintf(w, "Slot:          %d\n", m.Slot)
	fmt.Fprintf(w, "Program:       %s\n", m.ProgramID.String())
	fmt.Fprintf(w, "Accounts:      %d\n", m.AccountsCount)
	fmt.Fprintf(w, "Lamports:      %d\n", m.LamportsTotal)
	fmt.Fprintf(w, "Accounts hash: %s\n", m.AccountsHash.String())
}

var commandSnapshot = &cli.Command{
	Name:  "snapshot",
	Usage: "export, import and verify ledger snapshots",
	Subcommands: []*cli.Command{
		{
			Name:      "export",
			Usage:     "write the ledger to a snapshot archive",
			ArgsUsage: "<path>",
			Action: func(c *cli.Context) error {
				path, err := pathArg(c)
				if err != nil {
					return err
				}
				l, err := openLedger(c)
				if err != nil {
					return err
				}
				defer l.Close()

				manifest, hash, err := snapshot.ExportFile(l.db, path, l.bank.Slot(), l.cfg.ProgramID)
				if err != nil {
					return err
				}
				printManifest(c, manifest)
				fmt.Fprintf(c.App.Writer, "Archive hash:  %s\n", hash.String())
				return nil
			},
		},
		{
			Name:      "import",
			Usage:     "load a snapshot archive into an empty ledger",
			ArgsUsage: "<path>",
			Flags:     []cli.Flag{hashFlag},
			Action: func(c *cli.Context) error {
				path, err := pathArg(c)
				if err != nil {
					return err
				}
				var expected *types.Hash
				if c.IsSet(hashFlag.Name) {
					h, err := types.HashFromBase58(c.String(hashFlag.Name))
					if err != nil {
						return fmt.Errorf("invalid --%s: %w", hashFlag.Name, err)
					}
					expected = &h
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				db, err := cfg.OpenAccounts()
				if err != nil {
					return err
				}
				defer db.Close()

				result, err := snapshot.ImportFile(path, db, expected)
				if err != nil {
					return err
				}
				printManifest(c, result.Manifest)
				fmt.Fprintf(c.App.Writer, "Imported %d accounts\n", result.AccountsLoaded)
				return nil
			},
		},
		{
			Name:      "verify",
			Usage:     "check a snapshot archive without loading it",
			ArgsUsage: "<path>",
			Flags:     []cli.Flag{hashFlag},
			Action: func(c *cli.Context) error {
				path, err := pathArg(c)
				if err != nil {
					return err
				}
				if c.IsSet(hashFlag.Name) {
					h, err := types.HashFromBase58(c.String(hashFlag.Name))
					if err != nil {
						return fmt.Errorf("invalid --%s: %w", hashFlag.Name, err)
					}
					if err := snapshot.VerifyFileHash(path, h); err != nil {
						return err
					}
				}
				result, err := snapshot.Verify(path)
				if err != nil {
					return err
				}
				printManifest(c, result.Manifest)
				fmt.Fprintln(c.App.Writer, "Snapshot OK")
				return nil
			},
		},
	},
}
