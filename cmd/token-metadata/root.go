package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"token-metadata-cli/internal/config"
	"token-metadata-cli/internal/keys"
	"token-metadata-cli/internal/log"
	"token-metadata-cli/internal/metadata"
	"token-metadata-cli/internal/observability"
	"token-metadata-cli/internal/orchestrator"
	"token-metadata-cli/internal/reporting"
	"token-metadata-cli/internal/solana"
	"token-metadata-cli/internal/txn"
)

const (
	flagKeypair     = "keypair"
	flagURL         = "url"
	flagWSURL       = "ws-url"
	flagCommitment  = "commitment"
	flagTimeout     = "timeout"
	flagLogLevel    = "log-level"
	flagLogJSON     = "log-json"
	flagPushgateway = "pushgateway"

	flagMint      = "mint"
	flagName      = "name"
	flagSymbol    = "symbol"
	flagURI       = "uri"
	flagMutable   = "mutable"
	flagSellerFee = "seller-fee-basis-points"
)

// pushTimeout bounds the metrics push, which runs after the operation context may have expired.
const pushTimeout = 10 * time.Second

// newRootCmd builds the command tree. home is the value of HOME, nil if unset.
func newRootCmd(home *string) *cobra.Command {
	cfg := config.Default()
	cfg.Home = home
	var commitment string

	root := &cobra.Command{
		Use:           "token-metadata",
		Short:         "Create and update Metaplex token metadata accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Commitment = solana.Commitment(commitment)
			if err := cfg.Validate(); err != nil {
				return err
			}
			log.Init(cfg.LogLevel, cfg.LogJSON)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfg.KeypairPath, flagKeypair, "k", cfg.KeypairPath, "path to the signer keypair file")
	pf.StringVarP(&cfg.RPCURL, flagURL, "u", cfg.RPCURL, "JSON RPC endpoint")
	pf.StringVar(&cfg.WSURL, flagWSURL, "", "websocket endpoint (derived from --url when empty)")
	pf.StringVar(&commitment, flagCommitment, string(cfg.Commitment), "commitment level: processed, confirmed or finalized")
	pf.DurationVar(&cfg.Timeout, flagTimeout, cfg.Timeout, "overall deadline for the operation")
	pf.StringVar(&cfg.LogLevel, flagLogLevel, cfg.LogLevel, "log level: debug, info, warn, error or disabled")
	pf.BoolVar(&cfg.LogJSON, flagLogJSON, false, "log JSON instead of console output")
	pf.StringVar(&cfg.PushgatewayURL, flagPushgateway, "", "Prometheus Pushgateway URL to push run metrics to")

	root.AddCommand(newCreateCmd(&cfg), newUpdateCmd(&cfg))
	return root
}

func newCreateCmd(cfg *config.Config) *cobra.Command {
	var p orchestrator.CreateParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the metadata account for a mint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateSellerFee(p.SellerFeeBasisPoints); err != nil {
				return err
			}
			return run(cmd, cfg, orchestrator.ActionCreate, func(ctx context.Context, o *orchestrator.Orchestrator, signer types.Account) error {
				_, err := o.Create(ctx, signer, p)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.Mint, flagMint, "m", "", "mint address")
	f.StringVarP(&p.Name, flagName, "n", "", "token name")
	f.StringVarP(&p.Symbol, flagSymbol, "s", "", "token symbol")
	f.StringVar(&p.URI, flagURI, "", "metadata JSON URI")
	f.BoolVar(&p.IsMutable, flagMutable, true, "whether the metadata can be updated later")
	f.Uint16Var(&p.SellerFeeBasisPoints, flagSellerFee, 0, "royalty in basis points (0-10000)")
	for _, name := range []string{flagMint, flagName, flagSymbol} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func newUpdateCmd(cfg *config.Config) *cobra.Command {
	var mint string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update name, symbol or URI of an existing metadata account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := orchestrator.UpdateParams{Mint: mint, Overrides: overridesFromFlags(cmd.Flags())}
			return run(cmd, cfg, orchestrator.ActionUpdate, func(ctx context.Context, o *orchestrator.Orchestrator, signer types.Account) error {
				_, err := o.Update(ctx, signer, p)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&mint, flagMint, "m", "", "mint address")
	f.StringP(flagName, "n", "", "new token name")
	f.StringP(flagSymbol, "s", "", "new token symbol")
	f.String(flagURI, "", "new metadata JSON URI")
	if err := cmd.MarkFlagRequired(flagMint); err != nil {
		panic(err)
	}
	return cmd
}

// overridesFromFlags keeps only the flags given on the command line, so an
// explicit empty value still overrides.
func overridesFromFlags(f *pflag.FlagSet) metadata.Overrides {
	var o metadata.Overrides
	get := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, err := f.GetString(name)
		if err != nil {
			return nil
		}
		return &v
	}
	o.Name = get(flagName)
	o.Symbol = get(flagSymbol)
	o.URI = get(flagURI)
	return o
}

type operation func(ctx context.Context, o *orchestrator.Orchestrator, signer types.Account) error

// run wires the stack for one operation and executes it.
func run(cmd *cobra.Command, cfg *config.Config, action string, op operation) error {
	logger := log.WithComponent("cli")
	metrics := observability.NewMetrics("")
	defer pushMetrics(cfg, metrics, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	signer, err := keys.Load(cfg.KeypairPath, cfg.Home)
	if err != nil {
		metrics.ObserveTransaction(action, observability.StatusError)
		return err
	}

	rpcLogger := log.WithComponent("rpc")
	rpc := solana.NewHTTPClient(cfg.RPCURL, solana.WithMetrics(metrics))
	poller := txn.NewPollingConfirmer(rpc, cfg.Commitment, txn.DefaultPollInterval, rpcLogger)

	var confirmer txn.Confirmer = poller
	if ws, err := connectWS(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("websocket unavailable, confirming by polling")
	} else {
		defer ws.Close()
		confirmer = txn.NewWSConfirmer(ws, poller, log.WithComponent("ws"))
	}

	submitter := txn.NewSubmitter(rpc,
		txn.WithConfirmer(confirmer),
		txn.WithCommitment(cfg.Commitment),
		txn.WithLogger(rpcLogger),
		txn.WithMetrics(metrics),
	)

	reporter := reporting.NewReporter(cmd.OutOrStdout())
	reporter.Header(rpc.Endpoint(), signer.PublicKey.ToBase58())

	orchLogger := log.WithComponent("orchestrator")
	o := orchestrator.New(orchestrator.Options{
		RPC:        rpc,
		Submitter:  submitter,
		Reporter:   reporter,
		Endpoint:   rpc.Endpoint(),
		Commitment: cfg.Commitment,
		Logger:     &orchLogger,
		Metrics:    metrics,
	})
	return op(ctx, o, signer)
}

func connectWS(ctx context.Context, cfg *config.Config) (*solana.WSClientImpl, error) {
	endpoint, err := cfg.ResolveWSURL()
	if err != nil {
		return nil, fmt.Errorf("derive websocket endpoint: %w", err)
	}
	return solana.NewWSClient(ctx, endpoint, nil, log.WithComponent("ws"))
}

func pushMetrics(cfg *config.Config, m *observability.Metrics, logger zerolog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := m.Push(ctx, cfg.PushgatewayURL, cfg.MetricsJob); err != nil {
		logger.Warn().Err(err).Msg("metrics push failed")
	}
}

// formatError renders err and each wrapped cause on its own line.
func formatError(err error) string {
	var b strings.Builder
	for i := 0; err != nil; i++ {
		msg := err.Error()
		next := errors.Unwrap(err)
		if next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}

		switch i {
		case 0:
			b.WriteString("Error: ")
		case 1:
			b.WriteString("\nCaused by:\n")
			fallthrough
		default:
			b.WriteString("    ")
		}
		b.WriteString(msg)
		if i > 0 {
			b.WriteString("\n")
		}
		err = next
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
