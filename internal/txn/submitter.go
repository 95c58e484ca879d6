// Package txn signs, sends and confirms transactions.
package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/rs/zerolog"

	"token-metadata-cli/internal/observability"
	"token-metadata-cli/internal/solana"
)

// Submitter lands single-signer transactions.
type Submitter struct {
	rpc        solana.RPCClient
	confirmer  Confirmer
	commitment solana.Commitment
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithConfirmer replaces the default polling confirmer.
func WithConfirmer(c Confirmer) SubmitterOption {
	return func(s *Submitter) {
		s.confirmer = c
	}
}

// WithCommitment sets the commitment used for the blockhash, preflight and confirmation.
func WithCommitment(c solana.Commitment) SubmitterOption {
	return func(s *Submitter) {
		s.commitment = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = l
	}
}

// WithMetrics records confirmation latency.
func WithMetrics(m *observability.Metrics) SubmitterOption {
	return func(s *Submitter) {
		s.metrics = m
	}
}

// NewSubmitter creates a Submitter. Without WithConfirmer it polls.
func NewSubmitter(rpc solana.RPCClient, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		rpc:        rpc,
		commitment: solana.CommitmentConfirmed,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.confirmer == nil {
		s.confirmer = NewPollingConfirmer(rpc, s.commitment, DefaultPollInterval, s.logger)
	}
	return s
}

// Submit signs instructions with payer, sends them in one transaction and waits
// for confirmation. The signature is returned whenever the send succeeded,
// even if confirmation then fails.
func (s *Submitter) Submit(ctx context.Context, instructions []types.Instruction, payer types.Account) (string, error) {
	bh, err := s.rpc.GetLatestBlockhash(ctx, s.commitment)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}
	s.logger.Debug().
		Str("blockhash", bh.Blockhash).
		Uint64("last_valid_block_height", bh.LastValidBlockHeight).
		Msg("fetched blockhash")

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payer.PublicKey,
			RecentBlockhash: bh.Blockhash,
			Instructions:    instructions,
		}),
		Signers: []types.Account{payer},
	})
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := s.rpc.SendTransaction(ctx, raw, solana.SendOptions{PreflightCommitment: s.commitment})
	if err != nil {
		return "", classifySendError(err, bh.LastValidBlockHeight)
	}
	s.logger.Info().Str("signature", sig).Msg("transaction sent")

	start := time.Now()
	if err := s.confirmer.Confirm(ctx, sig, bh.LastValidBlockHeight); err != nil {
		return sig, err
	}
	if s.metrics != nil {
		s.metrics.ConfirmationLatency.Observe(time.Since(start).Seconds())
	}
	return sig, nil
}

func classifySendError(err error, lastValidBlockHeight uint64) error {
	var rpcErr *solana.RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.IsBlockhashNotFound() {
			return &SubmissionExpiredError{LastValidBlockHeight: lastValidBlockHeight, Err: err}
		}
		return &SubmissionError{Reason: rpcErr.Message, Logs: rpcErr.Logs(), Err: err}
	}
	return &SubmissionError{Reason: err.Error(), Err: err}
}
