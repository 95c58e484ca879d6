// Package orchestrator runs the create and update flows.
// Each flow: parse mint → derive metadata address → (fetch + merge) → build → submit → report
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/rs/zerolog"

	"token-metadata-cli/internal/config"
	"token-metadata-cli/internal/domain"
	"token-metadata-cli/internal/metadata"
	"token-metadata-cli/internal/observability"
	"token-metadata-cli/internal/reporting"
	"token-metadata-cli/internal/solana"
	"token-metadata-cli/internal/txn"
)

// Actions, used as metric labels.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// Submitter lands a signed transaction.
type Submitter interface {
	Submit(ctx context.Context, instructions []types.Instruction, payer types.Account) (string, error)
}

// Orchestrator coordinates one metadata operation.
type Orchestrator struct {
	reader    *metadata.Reader
	builder   metadata.InstructionBuilder
	submitter Submitter
	reporter  *reporting.Reporter
	endpoint  string
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	RPC       solana.RPCClient
	Submitter Submitter
	Reporter  *reporting.Reporter
	Endpoint  string // for explorer links

	// Optional
	Commitment solana.Commitment           // default confirmed
	Builder    metadata.InstructionBuilder // default blocto bindings
	Logger     *zerolog.Logger
	Metrics    *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Commitment == "" {
		opts.Commitment = solana.CommitmentConfirmed
	}
	if opts.Builder == nil {
		opts.Builder = metadata.NewBuilder()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Orchestrator{
		reader:    metadata.NewReader(opts.RPC, opts.Commitment),
		builder:   opts.Builder,
		submitter: opts.Submitter,
		reporter:  opts.Reporter,
		endpoint:  opts.Endpoint,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// CreateParams are the caller-supplied fields of a create.
type CreateParams struct {
	Mint                 string
	Name                 string
	Symbol               string
	URI                  string
	IsMutable            bool
	SellerFeeBasisPoints uint16
}

// UpdateParams are the caller-supplied fields of an update.
type UpdateParams struct {
	Mint      string
	Overrides metadata.Overrides
}

// Result describes a landed operation.
type Result struct {
	Signature string
	Metadata  common.PublicKey
	Record    domain.Record
}

// Create creates the metadata account for a mint the signer controls.
func (o *Orchestrator) Create(ctx context.Context, signer types.Account, p CreateParams) (*Result, error) {
	mint, err := domain.ParseAddress(p.Mint)
	if err != nil {
		return nil, fmt.Errorf("parse mint: %w", err)
	}
	if err := config.ValidateSellerFee(p.SellerFeeBasisPoints); err != nil {
		return nil, fmt.Errorf("validate seller fee: %w", err)
	}

	metaAddr, err := metadata.DeriveAddress(mint)
	if err != nil {
		return nil, err
	}
	record := metadata.NewRecord(p.Name, p.Symbol, p.URI, p.SellerFeeBasisPoints, p.IsMutable)

	o.logger.Debug().
		Str("mint", mint.ToBase58()).
		Str("metadata", metaAddr.ToBase58()).
		Msg("derived metadata address")

	o.reporter.Create(reporting.CreateSummary{
		Mint:     mint.ToBase58(),
		Metadata: metaAddr.ToBase58(),
		Record:   record,
	})

	ix := o.builder.BuildCreate(metadata.CreateInput{
		Metadata:  metaAddr,
		Mint:      mint,
		Authority: signer.PublicKey,
		Record:    record,
	})

	sig, err := o.submit(ctx, ActionCreate, ix, signer)
	if err != nil {
		return nil, fmt.Errorf("send create metadata transaction: %w", err)
	}

	o.reporter.Success("created", sig, o.endpoint)
	return &Result{Signature: sig, Metadata: metaAddr, Record: record}, nil
}

// Update rewrites name, symbol and URI of an existing metadata account.
// Every other field is carried over from the fetched account.
func (o *Orchestrator) Update(ctx context.Context, signer types.Account, p UpdateParams) (*Result, error) {
	mint, err := domain.ParseAddress(p.Mint)
	if err != nil {
		return nil, fmt.Errorf("parse mint: %w", err)
	}

	metaAddr, err := metadata.DeriveAddress(mint)
	if err != nil {
		return nil, err
	}
	existing, err := o.reader.Fetch(ctx, metaAddr)
	if err != nil {
		o.observe(ActionUpdate, err)
		return nil, fmt.Errorf("fetch metadata account: %w", err)
	}

	// The program has the final say; these only explain a likely rejection early.
	if existing.UpdateAuthority != signer.PublicKey {
		o.logger.Warn().
			Str("update_authority", existing.UpdateAuthority.ToBase58()).
			Str("signer", signer.PublicKey.ToBase58()).
			Msg("signer is not the update authority of this metadata account")
	}
	if !existing.Record.IsMutable {
		o.logger.Warn().Str("metadata", metaAddr.ToBase58()).Msg("metadata account is immutable")
	}
	if p.Overrides.Empty() {
		o.logger.Info().Msg("no fields to change, submitting the current record unchanged")
	}

	merged := metadata.Merge(existing.Record, p.Overrides)

	o.reporter.Update(reporting.UpdateSummary{
		Mint:     mint.ToBase58(),
		Metadata: metaAddr.ToBase58(),
		Old:      existing.Record,
		New:      merged,
	})

	ix := o.builder.BuildUpdate(metadata.UpdateInput{
		Metadata:  metaAddr,
		Authority: signer.PublicKey,
		Record:    merged,
	})

	sig, err := o.submit(ctx, ActionUpdate, ix, signer)
	if err != nil {
		return nil, fmt.Errorf("send update metadata transaction: %w", err)
	}

	o.reporter.Success("updated", sig, o.endpoint)
	return &Result{Signature: sig, Metadata: metaAddr, Record: merged}, nil
}

func (o *Orchestrator) submit(ctx context.Context, action string, ix types.Instruction, signer types.Account) (string, error) {
	sig, err := o.submitter.Submit(ctx, []types.Instruction{ix}, signer)
	o.observe(action, err)
	if err != nil {
		if sig != "" {
			o.logger.Error().Str("signature", sig).Err(err).Msg("transaction did not confirm")
		}
		return "", err
	}
	return sig, nil
}

func (o *Orchestrator) observe(action string, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveTransaction(action, outcome(err))
}

// outcome maps an error to a transaction status label.
func outcome(err error) string {
	var expired *txn.SubmissionExpiredError
	var rejected *txn.SubmissionError
	switch {
	case err == nil:
		return observability.StatusSuccess
	case errors.As(err, &expired):
		return observability.StatusExpired
	case errors.As(err, &rejected):
		return observability.StatusRejected
	default:
		return observability.StatusError
	}
}
