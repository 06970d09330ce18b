// Command tether drives a local Tether ledger: key management, faucet
// funding, staking positions and snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/rpc"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "path to a YAML configuration file",
		EnvVars: []string{"TETHER_CONFIG"},
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory holding the ledger",
	}
	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "account store: `badger` or `memory`",
	}
	keypairFlag = &cli.StringFlag{
		Name:  "keypair",
		Usage: "keypair file used to sign transactions",
	}
	programIDFlag = &cli.StringFlag{
		Name:  "program-id",
		Usage: "address the tether program is deployed at",
	}
	clockFlag = &cli.Int64Flag{
		Name:  "clock",
		Usage: "unix timestamp programs observe (0 = wall clock)",
	}
)

func newApp() *cli.App {
	rpc.Version = Version
	app := cli.NewApp()
	app.Name = "tether"
	app.Usage = "stake-and-claim ledger"
	app.Version = fmt.Sprintf("%s (%s)", Version, GitCommit)
	app.Flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		backendFlag,
		keypairFlag,
		programIDFlag,
		clockFlag,
	}
	app.Commands = []*cli.Command{
		commandKeygen,
		commandAddress,
		commandAirdrop,
		commandCreateMint,
		commandMintTo,
		commandParticipate,
		commandClaim,
		commandShow,
		commandDerive,
		commandPrograms,
		commandSnapshot,
		commandSimulate,
		commandServe,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
