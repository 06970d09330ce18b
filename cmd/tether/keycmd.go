package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/crypto"
)

var (
	outfileFlag = &cli.StringFlag{
		Name:  "outfile",
		Usage: "where to write the keypair (defaults to the configured keypair)",
	}
	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite an existing keypair file",
	}
)

var commandKeygen = &cli.Command{
	Name:  "keygen",
	Usage: "generate a new keypair",
	Flags: []cli.Flag{outfileFlag, forceFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		path := cfg.Keypair
		if c.IsSet(outfileFlag.Name) {
			path = c.String(outfileFlag.Name)
		}
		if _, err := os.Stat(path); err == nil && !c.Bool(forceFlag.Name) {
			return fmt.Errorf("keypair file %s already exists, use --force to overwrite", path)
		}

		kp, err := crypto.GenerateKeypair()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
		if err := kp.Save(path); err != nil {
			return fmt.Errorf("failed to write keypair: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Wrote keypair to %s\n", path)
		fmt.Fprintf(c.App.Writer, "Pubkey: %s\n", kp.Pubkey().String())
		return nil
	},
}

var commandAddress = &cli.Command{
	Name:  "address",
	Usage: "print the pubkey of the configured keypair",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		kp, err := crypto.LoadKeypair(cfg.Keypair)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, kp.Pubkey().String())
		return nil
	},
}
