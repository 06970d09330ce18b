package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Devansh-Aage/Tether/pkg/bank"
	"github.com/Devansh-Aage/Tether/pkg/metrics"
	"github.com/Devansh-Aage/Tether/pkg/rpc"
)

var (
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "listen address for /metrics and /health",
	}
	rpcAddrFlag = &cli.StringFlag{
		Name:  "rpc-addr",
		Usage: "listen address for the JSON-RPC server (empty disables it)",
	}
	simulateFlag = &cli.IntFlag{
		Name:  "simulate",
		Usage: "run a round with this many participants before serving",
	}
)

// instrument opens the ledger with a Prometheus observer attached.
func instrument(c *cli.Context) (*ledger, *metrics.Metrics, *metrics.HealthChecker, error) {
	m := metrics.NewMetrics()
	l, err := openLedger(c, bank.WithObserver(m))
	if err != nil {
		return nil, nil, nil, err
	}
	registry := l.bank.Programs()
	for _, id := range registry.ListPrograms() {
		name, _ := registry.GetProgramName(id)
		m.SetProgramName(id, name)
	}

	health := metrics.NewHealthChecker()
	health.RegisterAccountsCheck(l.db, m)
	health.RegisterCheck("program", func(context.Context) error {
		account, err := l.bank.GetAccount(l.cfg.ProgramID)
		if err != nil {
			return err
		}
		if account == nil || !account.Executable {
			return fmt.Errorf("program %s is not loaded", l.cfg.ProgramID.String())
		}
		return nil
	})
	return l, m, health, nil
}

var commandServe = &cli.Command{
	Name:  "serve",
	Usage: "expose ledger metrics, health and JSON-RPC over HTTP",
	Flags: []cli.Flag{metricsAddrFlag, rpcAddrFlag, simulateFlag, lockFlag},
	Action: func(c *cli.Context) error {
		l, m, health, err := instrument(c)
		if err != nil {
			return err
		}
		defer l.Close()

		if n := c.Int(simulateFlag.Name); n > 0 {
			summary, err := simulate(l, n, lockDuration(c))
			if err != nil {
				return err
			}
			summary.print(c.App.Writer)
		}

		addr := l.cfg.Metrics.Addr
		if c.IsSet(metricsAddrFlag.Name) {
			addr = c.String(metricsAddrFlag.Name)
		}
		server := metrics.NewServer(m, metrics.WithAddr(addr), metrics.WithHealthChecker(health))
		if err := server.Start(); err != nil {
			return err
		}
		log.Printf("Serving metrics on http://%s/metrics", server.Addr())

		rpcConfig := l.cfg.RPCServerConfig()
		if c.IsSet(rpcAddrFlag.Name) {
			rpcConfig.Address = c.String(rpcAddrFlag.Name)
		}
		var rpcServer *rpc.Server
		if rpcConfig.Address != "" {
			rpcConfig.Logger = log.Default()
			rpcServer = rpc.NewServer(rpcConfig, rpc.NewHandlers(l.bank, l.db))
			if err := rpcServer.Start(); err != nil {
				server.Stop(context.Background())
				return err
			}
			log.Printf("Serving JSON-RPC on http://%s", rpcServer.Addr())
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if rpcServer != nil {
			if err := rpcServer.Stop(ctx); err != nil {
				log.Printf("Failed to stop rpc server: %v", err)
			}
		}
		return server.Stop(ctx)
	},
}

func lockDuration(c *cli.Context) time.Duration {
	if c.IsSet(lockFlag.Name) {
		return c.Duration(lockFlag.Name)
	}
	return time.Hour
}
