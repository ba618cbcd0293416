// Copyright 2025 Certen Protocol
//
// Package coordinator implements the top-level signing loop: it
// orders factor-source kinds, asks a User to sign or skip, dispatches
// to the registered SigningDriver, and folds the outcome back into the
// petition tree until every transaction is terminal (§4.6).
package coordinator

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/certen/signum/pkg/driver"
	"github.com/certen/signum/pkg/factors"
	"github.com/certen/signum/pkg/metrics"
	"github.com/certen/signum/pkg/petition"
)

// Config bundles optional collaborators a Coordinator is built with.
// Logger mirrors the teacher's bracketed-prefix *log.Logger idiom;
// a nil Logger gets one created the same way the teacher's
// ConsensusCoordinator does. MaxAttempts bounds the total number of
// driver calls (the first dispatch plus retries) made for one dispatch
// after DriverFailed outcomes, before the coordinator gives up and
// treats the attempted sources as skipped (§7); it mirrors
// pkg/config.RetrySettings.MaxAttempts one-for-one, so a host binary
// can thread a loaded CoordinatorConfig straight through without
// translation.
type Config struct {
	Logger      *log.Logger
	Metrics     *metrics.Registry
	MaxAttempts int
}

func (c *Config) withDefaults() *Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Coordinator] ", log.LstdFlags)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRegistry()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &cfg
}

// Coordinator is the constructed, ready-to-run signature collection
// run for one batch of transactions.
type Coordinator struct {
	logger      *log.Logger
	metrics     *metrics.Registry
	maxAttempts int

	index   *petition.Index
	drivers map[factors.FactorSourceKind]driver.SigningDriver
	byKind  map[factors.FactorSourceKind][]factors.FactorSource
	user    User
}

// New validates the batch (§3), builds the petition tree (§4.4),
// computes the per-kind prompting order (§4.6 step 3), and returns a
// Coordinator ready for Sign. drivers must cover every
// FactorSourceKind actually used by the batch; a gap surfaces lazily
// as ErrNoDriverForKind from Sign, mirroring the teacher's style of
// deferring resource errors to the operation that needs the resource.
func New(transactions []factors.Transaction, known factors.KnownSources, drivers map[factors.FactorSourceKind]driver.SigningDriver, user User, cfg *Config) (*Coordinator, error) {
	if err := factors.Validate(transactions, known); err != nil {
		return nil, err
	}

	c := cfg.withDefaults()
	idx := petition.Build(transactions)

	usedIDs := factors.UsedFactorSourceIDs(transactions)
	byKind := make(map[factors.FactorSourceKind][]factors.FactorSource)
	for _, id := range usedIDs {
		source, ok := known[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFactorSource, id)
		}
		byKind[source.Kind] = append(byKind[source.Kind], source)
	}
	for kind, sources := range byKind {
		sortSourcesByLastUsed(sources)
		byKind[kind] = sources
	}

	return &Coordinator{
		logger:      c.Logger,
		metrics:     c.Metrics,
		maxAttempts: c.MaxAttempts,
		index:       idx,
		drivers:     drivers,
		byKind:      byKind,
		user:        user,
	}, nil
}

func sortSourcesByLastUsed(sources []factors.FactorSource) {
	// Insertion sort: batches per kind are small (bounded by the
	// number of distinct factor sources of that kind a user owns), and
	// FactorSource.Less already encodes the "oldest first" rule.
	for i := 1; i < len(sources); i++ {
		for j := i; j > 0 && sources[j].Less(sources[j-1]); j-- {
			sources[j], sources[j-1] = sources[j-1], sources[j]
		}
	}
}

// aborted signals that the user aborted mid-flight; only Sign's loop
// inspects it, and it never crosses a suspension boundary on its own.
type aborted struct{}

func (aborted) Error() string { return "coordinator: user aborted" }

// Sign runs the §4.6 loop to completion: for each kind in the fixed
// order, it drives every factor source of that kind to a terminal
// decision, short-circuiting as soon as every transaction is terminal.
// runID correlates this invocation's log lines, the way
// the teacher correlates by uuid.UUID batch/request IDs throughout
// pkg/batch and pkg/anchor.
func (co *Coordinator) Sign(ctx context.Context) (*Outcome, error) {
	runID := uuid.New()
	co.logger.Printf("run %s: starting sign loop over %d transaction(s)", runID, len(co.index.Transactions()))
	co.metrics.RunsStarted.Inc()

	var abortErr error
	for _, kind := range factors.KindOrder {
		sources := co.byKind[kind]
		if len(sources) == 0 {
			continue
		}
		if co.index.AllTerminal() {
			break
		}

		sd, ok := co.drivers[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoDriverForKind, kind)
		}

		switch sd.Mode {
		case driver.ModeSerial:
			for _, source := range sources {
				if co.index.AllTerminal() {
					break
				}
				if err := co.driveOne(ctx, runID, source, sd); err != nil {
					if _, isAbort := err.(aborted); isAbort {
						abortErr = err
						break
					}
					return nil, err
				}
			}
		case driver.ModeParallel:
			if err := co.driveMany(ctx, runID, sources, sd); err != nil {
				if _, isAbort := err.(aborted); isAbort {
					abortErr = err
					break
				}
				return nil, err
			}
		}
		if abortErr != nil {
			break
		}
	}

	outcome := co.projectOutcome(abortErr != nil)
	co.logger.Printf("run %s: finished, %d successful, %d failed", runID, len(outcome.Successful), len(outcome.Failed))
	co.metrics.RunsCompleted.Inc()
	return outcome, nil
}

// driveOne implements the per-source serial dispatch of §4.6.
func (co *Coordinator) driveOne(ctx context.Context, runID uuid.UUID, source factors.FactorSource, sd driver.SigningDriver) error {
	invalid := co.index.InvalidIfSkippedEntities(source.ID)

	decision, skippedViaShortCircuit, err := co.promptUser(ctx, source, invalid)
	if err != nil {
		return err
	}
	if skippedViaShortCircuit || decision == DecisionSkip {
		co.logger.Printf("run %s: skipping factor source %s (kind %s)", runID, source.ID, source.Kind)
		co.metrics.Skips.Inc()
		return co.index.RecordSkip(source.ID)
	}

	input := co.buildBatchInput(source)
	outcome := sd.Serial.SignOne(ctx, input)
	return co.handleOutcome(ctx, runID, sd, 1, []factors.FactorSourceID{source.ID}, outcome)
}

// driveMany implements the per-kind parallel dispatch of §4.6.
func (co *Coordinator) driveMany(ctx context.Context, runID uuid.UUID, sources []factors.FactorSource, sd driver.SigningDriver) error {
	inputs := make(map[factors.FactorSourceID]driver.BatchInput, len(sources))
	var toDispatch []factors.FactorSourceID

	for _, source := range sources {
		invalid := co.index.InvalidIfSkippedEntities(source.ID)
		decision, skippedViaShortCircuit, err := co.promptUser(ctx, source, invalid)
		if err != nil {
			return err
		}
		if skippedViaShortCircuit || decision == DecisionSkip {
			co.logger.Printf("run %s: skipping factor source %s (kind %s)", runID, source.ID, source.Kind)
			co.metrics.Skips.Inc()
			if err := co.index.RecordSkip(source.ID); err != nil {
				return err
			}
			continue
		}
		inputs[source.ID] = co.buildBatchInput(source)
		toDispatch = append(toDispatch, source.ID)
	}

	if len(toDispatch) == 0 {
		return nil
	}

	outcome := sd.Parallel.SignMany(ctx, inputs)
	return co.handleOutcome(ctx, runID, sd, 1, toDispatch, outcome)
}

// promptUser asks the short-circuit question first when every
// transaction the source participates in is already Success, then
// falls back to the full sign-or-skip prompt (§4.6 step 2).
func (co *Coordinator) promptUser(ctx context.Context, source factors.FactorSource, invalid map[factors.IntentHash][]factors.EntityAddress) (Decision, bool, error) {
	if len(invalid) == 0 && co.everyReferencingTransactionSucceeded(source.ID) {
		skip, err := co.user.SkipAllRemaining(ctx, source)
		if err != nil {
			return DecisionSign, false, err
		}
		if skip {
			return DecisionSkip, true, nil
		}
	}

	payload := make([]InvalidIfSkipped, 0, len(invalid))
	for intentHash, entities := range invalid {
		payload = append(payload, InvalidIfSkipped{IntentHash: intentHash, FailingEntities: entities})
	}
	decision, err := co.user.SignOrSkip(ctx, source, payload)
	if err != nil {
		return DecisionSign, false, err
	}
	return decision, false, nil
}

func (co *Coordinator) everyReferencingTransactionSucceeded(id factors.FactorSourceID) bool {
	refs := co.index.InputRefs(id)
	if len(refs) == 0 {
		return false
	}
	for _, ref := range refs {
		if co.index.Transaction(ref.IntentHash).Status() != petition.Success {
			return false
		}
	}
	return true
}

func (co *Coordinator) buildBatchInput(source factors.FactorSource) driver.BatchInput {
	refs := co.index.InputRefs(source.ID)
	invalid := co.index.InvalidIfSkippedEntities(source.ID)

	input := driver.BatchInput{FactorSource: source, Transactions: make([]driver.TransactionContext, 0, len(refs))}
	for _, ref := range refs {
		input.Transactions = append(input.Transactions, driver.TransactionContext{
			IntentHash:               ref.IntentHash,
			OwnedInstances:           ref.OwnedInstances,
			EntitiesInvalidIfSkipped: invalid[ref.IntentHash],
		})
	}
	return input
}

// handleOutcome folds one driver call's result back into the petition
// tree per the §4.6 outcome-handling table. attempt is 1 on the first
// dispatch and increments on every retry; it is compared against
// maxAttempts so a DriverFailed outcome cannot be retried forever even
// when the driver's own Retrier keeps saying yes.
func (co *Coordinator) handleOutcome(ctx context.Context, runID uuid.UUID, sd driver.SigningDriver, attempt int, dispatched []factors.FactorSourceID, outcome driver.DriverOutcome) error {
	switch outcome.Kind {
	case driver.Signed:
		reported := make(map[factors.FactorSourceID]struct{}, len(outcome.Shares))
		for _, share := range outcome.Shares {
			if err := co.index.RecordSignedShare(share); err != nil {
				return err
			}
			reported[share.OwnedFactorInstance.Instance.FactorSourceID] = struct{}{}
			co.metrics.SignaturesCollected.Inc()
		}
		// Sources dispatched but not represented in the shares are
		// treated as skipped (§4.5 partial outcomes, §8 S6).
		for _, id := range dispatched {
			if _, ok := reported[id]; ok {
				continue
			}
			if err := co.index.RecordSkip(id); err != nil {
				return err
			}
			co.metrics.Skips.Inc()
		}
		return nil

	case driver.Skipped:
		skipSet := make(map[factors.FactorSourceID]struct{}, len(outcome.SkippedSources))
		for _, id := range outcome.SkippedSources {
			skipSet[id] = struct{}{}
		}
		for _, id := range dispatched {
			if len(outcome.SkippedSources) > 0 {
				if _, named := skipSet[id]; !named {
					continue
				}
			}
			if err := co.index.RecordSkip(id); err != nil {
				return err
			}
			co.metrics.Skips.Inc()
		}
		return nil

	case driver.UserAborted:
		co.logger.Printf("run %s: user aborted", runID)
		co.metrics.Aborts.Inc()
		return aborted{}

	case driver.DriverFailed:
		if attempt < co.maxAttempts && sd.Retry != nil && sd.Retry.ShouldRetry(ctx, outcome) {
			co.logger.Printf("run %s: driver failed (%v), retrying (attempt %d/%d)", runID, outcome.Err, attempt+1, co.maxAttempts)
			co.metrics.DriverRetries.Inc()
			switch sd.Mode {
			case driver.ModeSerial:
				for _, id := range dispatched {
					// Retry re-dispatches a fresh BatchInput, since
					// petition state may have advanced for other
					// reasons since the failed attempt.
					source, ok := co.sourceByID(id)
					if !ok {
						continue
					}
					retryOutcome := sd.Serial.SignOne(ctx, co.buildBatchInput(source))
					if err := co.handleOutcome(ctx, runID, sd, attempt+1, []factors.FactorSourceID{id}, retryOutcome); err != nil {
						return err
					}
				}
				return nil
			case driver.ModeParallel:
				inputs := make(map[factors.FactorSourceID]driver.BatchInput, len(dispatched))
				for _, id := range dispatched {
					if source, ok := co.sourceByID(id); ok {
						inputs[id] = co.buildBatchInput(source)
					}
				}
				retryOutcome := sd.Parallel.SignMany(ctx, inputs)
				return co.handleOutcome(ctx, runID, sd, attempt+1, dispatched, retryOutcome)
			}
		}
		co.logger.Printf("run %s: driver failed (%v), treating %d source(s) as skipped", runID, outcome.Err, len(dispatched))
		co.metrics.DriverFailures.Inc()
		for _, id := range dispatched {
			if err := co.index.RecordSkip(id); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (co *Coordinator) sourceByID(id factors.FactorSourceID) (factors.FactorSource, bool) {
	for _, sources := range co.byKind {
		for _, s := range sources {
			if s.ID == id {
				return s, true
			}
		}
	}
	return factors.FactorSource{}, false
}

// projectOutcome implements §4.6 termination: every TransactionPetition
// is projected into either Successful (with its collected signatures)
// or Failed (with its offending entities and the reason).
func (co *Coordinator) projectOutcome(wasAborted bool) *Outcome {
	out := newOutcome()
	for _, tx := range co.index.Transactions() {
		if tx.Status() == petition.Success {
			out.Successful[tx.IntentHash] = tx.SignedShares()
			continue
		}
		reason := ReasonUnsatisfiable
		if wasAborted && tx.Status() == petition.InProgress {
			reason = ReasonUserAborted
		}
		out.Failed[tx.IntentHash] = FailedTransaction{
			IntentHash:      tx.IntentHash,
			Reason:          reason,
			FailingEntities: tx.FailingEntities(),
		}
	}
	return out
}
