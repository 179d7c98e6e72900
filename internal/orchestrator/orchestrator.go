package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"farmsathi/internal/audio"
	"farmsathi/internal/connector"
	"farmsathi/internal/contextstore"
	"farmsathi/internal/history"
	"farmsathi/internal/intent"
	"farmsathi/internal/logger"
	"farmsathi/pkg"
)

// ErrChainExhausted means every provider in the chain failed, including the
// deterministic tail. That tail has no external dependency, so reaching this
// state is a programming bug and is surfaced loudly instead of degraded.
var ErrChainExhausted = errors.New("provider chain exhausted: deterministic provider failed")

// turnState tracks a single turn through the pipeline. Exhausted exists only
// as a guard; the deterministic provider makes it unreachable as an outcome.
type turnState string

const (
	stateIdle        turnState = "idle"
	stateClassifying turnState = "classifying"
	stateEnriching   turnState = "enriching"
	stateAttempting  turnState = "attempting"
	stateSucceeded   turnState = "succeeded"
	stateExhausted   turnState = "exhausted"
)

// Provider is one link of the response fallback chain, as seen by the
// orchestrator.
type Provider interface {
	ID() string
	Generate(ctx context.Context, pc pkg.PromptContext) (string, error)
}

// Deps are the collaborators the orchestrator drives. All of them are
// constructed once at startup and passed in explicitly.
type Deps struct {
	Classifier *intent.Classifier
	Contexts   contextstore.Store
	Weather    connector.Connector
	Market     connector.Connector
	Providers  []Provider
	Synth      *audio.Synthesizer // nil disables audio
	History    history.Store

	ProviderTimeout time.Duration
	DefaultLanguage string
	Languages       []string
	DefaultLocation string
}

// Orchestrator turns an inbound message into a classified, enriched,
// generated, optionally voiced and persisted assistant response.
type Orchestrator struct {
	deps      Deps
	languages map[string]bool
	now       func() time.Time
	newTurnID func() string
}

// New creates an orchestrator. The provider chain must end with a provider
// that never fails.
func New(deps Deps) (*Orchestrator, error) {
	if len(deps.Providers) == 0 {
		return nil, fmt.Errorf("provider chain cannot be empty")
	}
	if deps.ProviderTimeout <= 0 {
		deps.ProviderTimeout = 12 * time.Second
	}
	if deps.DefaultLanguage == "" {
		deps.DefaultLanguage = "en"
	}
	if deps.DefaultLocation == "" {
		deps.DefaultLocation = "Delhi"
	}

	languages := make(map[string]bool, len(deps.Languages))
	for _, l := range deps.Languages {
		languages[l] = true
	}

	return &Orchestrator{
		deps:      deps,
		languages: languages,
		now:       time.Now,
		newTurnID: uuid.NewString,
	}, nil
}

// Handle processes one conversational turn. The caller always receives a
// well-formed response unless the request itself is invalid or the
// deterministic guarantee is broken.
func (o *Orchestrator) Handle(ctx context.Context, req pkg.AssistantRequest) (*pkg.AssistantResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if req.Message == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}
	if !o.languages[req.Language] {
		req.Language = o.deps.DefaultLanguage
	}

	log := logger.GetLogger().With().Str("user_id", req.UserID).Logger()
	state := stateIdle

	// Classify using the current rolling context.
	state = stateClassifying
	convCtx, err := o.deps.Contexts.Get(ctx, req.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("context load failed, classifying without history")
	}
	msgIntent := o.deps.Classifier.Classify(req.Message, convCtx)
	log.Debug().Str("intent", string(msgIntent)).Str("state", string(state)).Msg("message classified")

	// Enrich with external data when the intent calls for it. Enrichment
	// failure degrades to stale or synthetic data inside the connector and
	// never aborts the turn.
	var snapshot *pkg.ExternalDataSnapshot
	if msgIntent.RequiresEnrichment() {
		state = stateEnriching
		snapshot = o.enrich(ctx, msgIntent, req.Message, convCtx)
		if snapshot != nil && snapshot.Stale() {
			log.Warn().
				Str("connector", snapshot.Provider).
				Str("freshness", string(snapshot.Freshness)).
				Msg("serving degraded connector data")
		}
	}

	pc := pkg.PromptContext{
		Message:  req.Message,
		Language: req.Language,
		Intent:   msgIntent,
		Snapshot: snapshot,
		History:  convCtx.RecentTurns,
		Location: convCtx.Location,
		CropType: convCtx.CropType,
	}

	// Walk the fallback chain in order; first success wins.
	state = stateAttempting
	var attempts []pkg.ProviderAttemptResult
	var text string
	for _, p := range o.deps.Providers {
		attempt := o.attempt(ctx, p, pc)
		attempts = append(attempts, attempt)
		if attempt.Outcome == pkg.OutcomeSuccess {
			state = stateSucceeded
			text = attempt.Text
			break
		}
		log.Warn().
			Str("provider", attempt.ProviderID).
			Str("outcome", string(attempt.Outcome)).
			Dur("elapsed", attempt.Elapsed).
			Msg("provider attempt failed, falling back")
	}

	if state != stateSucceeded {
		state = stateExhausted
		log.Error().Str("state", string(state)).Msg("deterministic provider failed")
		return nil, ErrChainExhausted
	}

	resp := &pkg.AssistantResponse{
		Text:         text,
		Intent:       msgIntent,
		ResponseType: string(msgIntent),
		DataCard:     snapshot,
		Attempts:     attempts,
		Timestamp:    o.now(),
	}

	// Audio synthesis is best effort: a failure degrades to text-only.
	if req.IncludeAudio && o.deps.Synth != nil {
		if art, err := o.deps.Synth.Synthesize(ctx, text, req.Language); err != nil {
			log.Warn().Err(err).Msg("audio synthesis failed, returning text-only response")
		} else {
			resp.AudioRef = "/audio/" + filepath.Base(art.Path)
		}
	}

	o.persist(ctx, req, resp, &log)

	return resp, nil
}

// enrich fetches the connector snapshot for the intent. Connectors never fail
// the caller, but a nil connector (not wired) yields no data card.
func (o *Orchestrator) enrich(ctx context.Context, msgIntent pkg.Intent, message string, convCtx pkg.ConversationContext) *pkg.ExternalDataSnapshot {
	switch msgIntent {
	case pkg.IntentWeather:
		if o.deps.Weather == nil {
			return nil
		}
		location := convCtx.Location
		if location == "" {
			location = o.deps.DefaultLocation
		}
		snap, err := o.deps.Weather.Fetch(ctx, location)
		if err != nil {
			return nil
		}
		return snap
	case pkg.IntentMarketPrice:
		if o.deps.Market == nil {
			return nil
		}
		crop := o.deps.Classifier.ExtractCrop(message)
		snap, err := o.deps.Market.Fetch(ctx, crop)
		if err != nil {
			return nil
		}
		return snap
	}
	return nil
}

// attempt invokes one provider bounded by the per-provider timeout. A
// misbehaving provider that ignores its context cannot stall the turn: the
// call is abandoned (it may finish in the background) and recorded as a
// timeout.
func (o *Orchestrator) attempt(ctx context.Context, p Provider, pc pkg.PromptContext) pkg.ProviderAttemptResult {
	start := o.now()

	type genResult struct {
		text string
		err  error
	}
	done := make(chan genResult, 1)

	actx, cancel := context.WithTimeout(ctx, o.deps.ProviderTimeout)
	go func() {
		defer cancel()
		text, err := p.Generate(actx, pc)
		done <- genResult{text: text, err: err}
	}()

	classify := func(r genResult) pkg.ProviderAttemptResult {
		elapsed := time.Since(start)
		switch {
		case r.err == nil && r.text != "":
			return pkg.ProviderAttemptResult{ProviderID: p.ID(), Outcome: pkg.OutcomeSuccess, Text: r.text, Elapsed: elapsed}
		case errors.Is(r.err, context.DeadlineExceeded):
			return pkg.ProviderAttemptResult{ProviderID: p.ID(), Outcome: pkg.OutcomeTimeout, Elapsed: elapsed}
		default:
			return pkg.ProviderAttemptResult{ProviderID: p.ID(), Outcome: pkg.OutcomeError, Elapsed: elapsed}
		}
	}

	select {
	case r := <-done:
		return classify(r)
	case <-actx.Done():
		// The worker's deferred cancel fires after its result is already in
		// the channel, so both cases can be ready at once. A finished
		// provider always wins over the timeout report.
		select {
		case r := <-done:
			return classify(r)
		default:
		}
		return pkg.ProviderAttemptResult{ProviderID: p.ID(), Outcome: pkg.OutcomeTimeout, Elapsed: time.Since(start)}
	}
}

// persist records the turn and advances the rolling context. Both writes are
// best effort: a storage failure is logged and never unwinds the response.
func (o *Orchestrator) persist(ctx context.Context, req pkg.AssistantRequest, resp *pkg.AssistantResponse, log *zerolog.Logger) {
	turn := pkg.ChatTurn{
		TurnID:      o.newTurnID(),
		UserID:      req.UserID,
		UserMessage: req.Message,
		BotResponse: resp.Text,
		AudioRef:    resp.AudioRef,
		Language:    req.Language,
		Intent:      resp.Intent,
		CreatedAt:   o.now(),
	}

	if err := o.deps.History.Record(ctx, turn); err != nil {
		log.Warn().Err(err).Msg("failed to record turn, response still served")
	}
	if _, err := o.deps.Contexts.Append(ctx, req.UserID, turn); err != nil {
		log.Warn().Err(err).Msg("failed to update conversation context")
	}
}
