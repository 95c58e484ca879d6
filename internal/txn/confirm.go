package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"token-metadata-cli/internal/solana"
)

// DefaultPollInterval is how often confirmation state is checked.
const DefaultPollInterval = 500 * time.Millisecond

// Confirmer waits until a submitted transaction reaches the configured
// commitment, fails, or outlives its blockhash.
type Confirmer interface {
	Confirm(ctx context.Context, signature string, lastValidBlockHeight uint64) error
}

// PollingConfirmer confirms with getSignatureStatuses and getBlockHeight.
type PollingConfirmer struct {
	rpc        solana.RPCClient
	commitment solana.Commitment
	interval   time.Duration
	logger     zerolog.Logger
}

// NewPollingConfirmer creates a PollingConfirmer. A zero interval uses DefaultPollInterval.
func NewPollingConfirmer(rpc solana.RPCClient, commitment solana.Commitment, interval time.Duration, logger zerolog.Logger) *PollingConfirmer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingConfirmer{rpc: rpc, commitment: commitment, interval: interval, logger: logger}
}

// Confirm polls until the transaction is confirmed or fails.
func (c *PollingConfirmer) Confirm(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	for {
		done, err := c.check(ctx, signature, lastValidBlockHeight)
		if done || err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for confirmation of %s: %w", signature, ctx.Err())
		case <-time.After(c.interval):
		}
	}
}

// check runs one confirmation round. The block height is read before the
// status so a transaction landing in between is never reported as expired.
func (c *PollingConfirmer) check(ctx context.Context, signature string, lastValidBlockHeight uint64) (bool, error) {
	height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
	if err != nil {
		return false, fmt.Errorf("get block height: %w", err)
	}

	statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		return false, fmt.Errorf("get signature status: %w", err)
	}

	if len(statuses) > 0 && statuses[0] != nil {
		st := statuses[0]
		if st.Err != nil {
			return true, &SubmissionError{Signature: signature, Reason: txErrReason(st.Err)}
		}
		if st.ConfirmationStatus.Reaches(c.commitment) {
			c.logger.Debug().
				Str("signature", signature).
				Uint64("slot", st.Slot).
				Str("status", string(st.ConfirmationStatus)).
				Msg("transaction confirmed")
			return true, nil
		}
	}

	if height > lastValidBlockHeight {
		return true, &SubmissionExpiredError{Signature: signature, LastValidBlockHeight: lastValidBlockHeight}
	}

	c.logger.Debug().
		Str("signature", signature).
		Uint64("block_height", height).
		Uint64("last_valid_block_height", lastValidBlockHeight).
		Msg("waiting for confirmation")
	return false, nil
}

// WSConfirmer waits for a signatureSubscribe notification and falls back to
// polling checks on every tick, so expiry is still detected when the
// notification never arrives.
type WSConfirmer struct {
	ws       solana.WSClient
	poller   *PollingConfirmer
	logger   zerolog.Logger
	interval time.Duration
}

// NewWSConfirmer creates a WSConfirmer. poller supplies the commitment and the
// fallback checks.
func NewWSConfirmer(ws solana.WSClient, poller *PollingConfirmer, logger zerolog.Logger) *WSConfirmer {
	return &WSConfirmer{ws: ws, poller: poller, logger: logger, interval: poller.interval}
}

// Confirm subscribes to the signature and waits.
func (c *WSConfirmer) Confirm(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	notifications, err := c.ws.SubscribeSignature(ctx, signature, c.poller.commitment)
	if err != nil {
		c.logger.Warn().Err(err).Msg("signature subscription failed, polling instead")
		return c.poller.Confirm(ctx, signature, lastValidBlockHeight)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for confirmation of %s: %w", signature, ctx.Err())

		case n, ok := <-notifications:
			if !ok {
				c.logger.Warn().Msg("signature subscription closed, polling instead")
				notifications = nil
				continue
			}
			if n.Err != nil {
				return &SubmissionError{Signature: signature, Reason: txErrReason(n.Err)}
			}
			c.logger.Debug().Str("signature", signature).Uint64("slot", n.Slot).Msg("transaction confirmed via subscription")
			return nil

		case <-ticker.C:
			done, err := c.poller.check(ctx, signature, lastValidBlockHeight)
			if done || err != nil {
				return err
			}
		}
	}
}
