// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/genesis"
	"github.com/vechain/stakepool/ledger"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Stakepool",
		Usage:     "Ledger node of the staking pool protocol",
		Copyright: "2026 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			cacheFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiBacktraceLimitFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "dev-accounts",
				Usage:  "print the pre-funded accounts of the dev ledger",
				Action: devAccountsAction,
			},
			{
				Name:   "ops",
				Usage:  "list the operations a transaction may carry",
				Action: opsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	mainDB, logDB, instanceDir, err := openDatabases(ctx, gene)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	l, err := ledger.New(mainDB, logDB, ledger.Options{ChainTag: gene.ChainTag()})
	if err != nil {
		return err
	}
	if err := l.Initialize(gene.ID(), gene.Build); err != nil {
		return err
	}

	apiHandler, apiCloser := api.New(l, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		BacktraceLimit:       ctx.Uint64(apiBacktraceLimitFlag.Name),
		EnableReqLogger:      ctx.Bool(enableAPILogsFlag.Name),
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
	})
	defer func() { logger.Info("closing API..."); apiCloser() }()

	apiSrv, apiURL, err := startAPIServer(ctx, apiHandler)
	if err != nil {
		return err
	}
	servers := []*server{apiSrv}

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		metricsSrv, url, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			apiSrv.listener.Close()
			return err
		}
		servers = append(servers, metricsSrv)
		metricsURL = url
	}

	g, gctx := errgroup.WithContext(exitSignal)
	for _, srv := range servers {
		g.Go(func() error {
			return serve(gctx, srv)
		})
	}

	printStartupMessage(gene, l, instanceDir, apiURL, metricsURL)

	return g.Wait()
}

func devAccountsAction(_ *cli.Context) error {
	for i, acc := range genesis.DevAccounts() {
		fmt.Printf("%d %v %x\n", i, acc.Address, acc.PrivateKey.D.Bytes())
	}
	return nil
}

func opsAction(_ *cli.Context) error {
	for _, op := range ledger.Ops() {
		fmt.Println(op)
	}
	return nil
}

// handleExitSignal returns a context canceled on SIGINT or SIGTERM.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
