// Binary treasury funds and drains the managed accounts.
//
//	treasury distribute        split the SOLANA_PK wallet's SOL evenly over the CSV accounts
//	treasury collect           sweep every CSV account's SOL back to the SOLANA_PK wallet
//	treasury keygen -n N -out PATH
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"solana-mmaker/internal/config"
	dex "solana-mmaker/internal/dex/solana"
	"solana-mmaker/internal/treasury"
	"solana-mmaker/internal/util"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: treasury distribute | collect | keygen -n N -out PATH")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	log := util.NewLogger("info")

	switch os.Args[1] {
	case "keygen":
		fs := flag.NewFlagSet("keygen", flag.ExitOnError)
		n := fs.Int("n", 100, "number of keypairs")
		out := fs.String("out", "./keypairs.csv", "output CSV path")
		_ = fs.Parse(os.Args[2:])
		keys, err := treasury.KeygenFile(*out, *n)
		if err != nil {
			log.Fatal().Err(err).Msg("keygen")
		}
		log.Info().Int("count", len(keys)).Str("path", *out).Msg("keypairs written")
	case "distribute", "collect":
		if err := runTransfers(os.Args[1], log); err != nil {
			log.Fatal().Err(err).Msg(os.Args[1])
		}
	default:
		usage()
	}
}

func runTransfers(cmd string, log zerolog.Logger) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	log = util.NewLogger(cfg.App.LogLevel)
	funder, err := dex.LoadPrivateKeyFromEnv()
	if err != nil {
		return err
	}
	accounts, err := dex.LoadAccountsCSV(cfg.Wallet.KeypairsCSV)
	if err != nil {
		return err
	}

	client := rpc.New(cfg.Dex.RpcURL)
	t := treasury.New(client, cfg.Dex.Commitment, log)
	t.Confirm = &dex.PollingConfirmer{RPC: client, Commit: t.Commit}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var transfers []treasury.Transfer
	if cmd == "distribute" {
		recipients := make([]solana.PublicKey, len(accounts))
		for i, acc := range accounts {
			recipients[i] = acc.PublicKey()
		}
		transfers, err = t.Distribute(ctx, funder, recipients)
	} else {
		transfers, err = t.Collect(ctx, funder.PublicKey(), accounts)
	}
	if err != nil {
		return err
	}
	failed := 0
	for _, tr := range transfers {
		if tr.Err != nil {
			failed++
		}
	}
	log.Info().Int("transfers", len(transfers)).Int("failed", failed).Msg(cmd + " completed")
	return nil
}
