// Package simulation composes the core triad (book, engine, event stream)
// with the scheduler and agent arena into the run-until-horizon loop,
// supervised by a signal.NotifyContext + gopkg.in/tomb.v2 lifecycle over
// a single run-loop goroutine.
package simulation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/agent"
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/config"
	"fenrir/internal/engine"
	"fenrir/internal/event"
	"fenrir/internal/marketdata"
	"fenrir/internal/order"
	"fenrir/internal/scheduler"
)

// Simulation owns every piece of mutable state the run loop touches: the
// per-ticker books and market-data stores, the event stream, the
// scheduler, the agent arena, and the two IDGenerators. Nothing here is
// safe for concurrent use; the run loop is the sole mutator.
type Simulation struct {
	RunID string

	logger zerolog.Logger

	clock int64

	orderIDs *common.IDGenerator
	eventIDs *common.IDGenerator

	stream *event.Stream
	sched  *scheduler.Scheduler
	eng    engine.MatchingEngine

	books map[string]*book.LimitOrderBook
	data  map[string]*marketdata.Store
	ticks map[string]common.TickSize

	agents       map[uint64]agent.Agent
	agentTickers map[uint64]string

	fatal *InvariantViolation
}

// New returns an empty Simulation ready to have tickers and agents
// registered into it. logger is threaded through rather than pulled off
// a package-level global, so two Simulations in the same test binary
// never share one sink.
func New(logger zerolog.Logger) *Simulation {
	runID := uuid.New().String()
	return &Simulation{
		RunID:        runID,
		logger:       logger.With().Str("run_id", runID).Logger(),
		orderIDs:     common.NewIDGenerator(),
		eventIDs:     common.NewIDGenerator(),
		stream:       event.NewStream(),
		sched:        scheduler.New(),
		books:        make(map[string]*book.LimitOrderBook),
		data:         make(map[string]*marketdata.Store),
		ticks:        make(map[string]common.TickSize),
		agents:       make(map[uint64]agent.Agent),
		agentTickers: make(map[uint64]string),
	}
}

// RegisterTicker opens a book and a market-data store for ticker. Returns
// common.ErrDuplicateRegistration if the ticker is already registered.
func (s *Simulation) RegisterTicker(ticker string, tick common.TickSize, ohlcvPeriods []int, storeTicks bool, maxTicks int) error {
	if _, exists := s.books[ticker]; exists {
		return fmt.Errorf("%w: ticker %s", common.ErrDuplicateRegistration, ticker)
	}

	s.books[ticker] = book.New(ticker, tick)
	s.ticks[ticker] = tick

	store := marketdata.New(ohlcvPeriods, storeTicks, maxTicks)
	store.Attach(s.stream, ticker)
	s.data[ticker] = store

	s.stream.Append(event.Event{
		EventID:   s.eventIDs.Next(),
		Timestamp: s.clock,
		Payload:   event.TickerAddedPayload{Ticker: ticker},
	})
	s.logger.Info().Str("ticker", ticker).Msg("ticker registered")
	return nil
}

// RegisterAgent adds a to the scheduler at dueTime, bound to ticker for
// the lifetime of the run. Returns common.ErrDuplicateRegistration if the
// agent id is already known, or common.ErrUnknownTicker if ticker was
// never registered.
func (s *Simulation) RegisterAgent(a agent.Agent, ticker string, dueTime int64) error {
	id := a.ID()
	if _, exists := s.agents[id]; exists {
		return fmt.Errorf("%w: agent %d", common.ErrDuplicateRegistration, id)
	}
	if _, ok := s.books[ticker]; !ok {
		return fmt.Errorf("%w: %s", common.ErrUnknownTicker, ticker)
	}
	if err := s.sched.Register(id, dueTime); err != nil {
		return fmt.Errorf("%w: %s", common.ErrDuplicateRegistration, err)
	}

	s.agents[id] = a
	s.agentTickers[id] = ticker

	s.stream.Append(event.Event{
		EventID:   s.eventIDs.Next(),
		Timestamp: s.clock,
		Payload:   event.AgentAddedPayload{AgentID: id},
	})
	s.logger.Info().Uint64("agent_id", id).Str("ticker", ticker).Msg("agent registered")
	return nil
}

// RetireAgent removes agentID from the schedule and the arena, emitting
// AgentRemoved. A no-op on an id that was never registered.
func (s *Simulation) RetireAgent(agentID uint64) {
	if _, ok := s.agents[agentID]; !ok {
		return
	}
	s.sched.Retire(agentID)
	delete(s.agents, agentID)
	delete(s.agentTickers, agentID)
	s.stream.Append(event.Event{
		EventID:   s.eventIDs.Next(),
		Timestamp: s.clock,
		Payload:   event.AgentRemovedPayload{AgentID: agentID},
	})
}

// Clock returns the simulation's current logical time.
func (s *Simulation) Clock() int64 { return s.clock }

// Events returns a copy of the full event log recorded so far.
func (s *Simulation) Events() []event.Event { return s.stream.All() }

// Stream exposes the underlying event stream for subscription by
// external collaborators (tick stores, agent bookkeepers).
func (s *Simulation) Stream() *event.Stream { return s.stream }

// Book returns the ticker's order book and whether it is registered.
func (s *Simulation) Book(ticker string) (*book.LimitOrderBook, bool) {
	b, ok := s.books[ticker]
	return b, ok
}

// MarketData returns the ticker's market-data store and whether it is
// registered.
func (s *Simulation) MarketData(ticker string) (*marketdata.Store, bool) {
	d, ok := s.data[ticker]
	return d, ok
}

// Fatal returns the invariant violation that halted the run, if any.
func (s *Simulation) Fatal() *InvariantViolation { return s.fatal }

// --- agent-facing views --------------------------------------------------

// marketView is the per-ticker, read-only snapshot handed to an agent's
// Activate call. It never hands back a reference the agent could retain
// across activations: every method returns a value.
type marketView struct {
	sim    *Simulation
	ticker string
}

var _ agent.MarketView = marketView{}

func (v marketView) BestBid() (decimal.Decimal, bool) { return v.sim.books[v.ticker].BestBid() }
func (v marketView) BestAsk() (decimal.Decimal, bool) { return v.sim.books[v.ticker].BestAsk() }

func (v marketView) MidPrice() (decimal.Decimal, bool) {
	bid, okBid := v.BestBid()
	ask, okAsk := v.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), true
}

func (v marketView) LastTradePrice() (decimal.Decimal, bool) {
	return v.sim.data[v.ticker].LastTradePrice()
}

func (v marketView) Bars(period int) []agent.Bar {
	raw := v.sim.data[v.ticker].Bars(period)
	out := make([]agent.Bar, len(raw))
	for i, b := range raw {
		out[i] = agent.Bar{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	return out
}

// submissionPort is the per-agent, per-ticker order-entry handle. Every
// call routes through the Simulation and completes synchronously through
// the matching engine before returning.
type submissionPort struct {
	sim     *Simulation
	agentID uint64
	ticker  string
}

var _ agent.SubmissionPort = submissionPort{}

func (p submissionPort) PlaceLimit(side common.Side, qty uint64, price decimal.Decimal) (uint64, error) {
	return p.sim.placeLimit(p.agentID, p.ticker, side, qty, price)
}

func (p submissionPort) PlaceMarket(side common.Side, qty uint64) (uint64, error) {
	return p.sim.placeMarket(p.agentID, p.ticker, side, qty)
}

func (p submissionPort) Cancel(orderID uint64) error {
	return p.sim.cancelOrder(p.agentID, p.ticker, orderID)
}

// --- order entry -----------------------------------------------------

func (s *Simulation) placeLimit(agentID uint64, ticker string, side common.Side, qty uint64, price decimal.Decimal) (uint64, error) {
	if s.fatal != nil {
		return 0, s.fatal
	}
	b, ok := s.books[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", common.ErrUnknownTicker, ticker)
	}

	id := s.orderIDs.Next()
	o, err := order.NewLimit(id, agentID, ticker, side, qty, price, s.clock, nil, s.ticks[ticker])
	if err != nil {
		s.rejectOrder(ticker, id, agentID, err)
		return 0, err
	}

	trigger := s.mintSubmission(ticker, o.OrderID, agentID, side, common.Limit)
	events, err := s.eng.Process(o, b, s.clock, &trigger, s.eventIDs)
	if err != nil {
		s.rejectOrder(ticker, id, agentID, err)
		return 0, err
	}
	s.stream.AppendAll(events)
	s.checkInvariants(ticker)
	if s.fatal != nil {
		return o.OrderID, s.fatal
	}
	return o.OrderID, nil
}

func (s *Simulation) placeMarket(agentID uint64, ticker string, side common.Side, qty uint64) (uint64, error) {
	if s.fatal != nil {
		return 0, s.fatal
	}
	b, ok := s.books[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", common.ErrUnknownTicker, ticker)
	}

	id := s.orderIDs.Next()
	o, err := order.NewMarket(id, agentID, ticker, side, qty, s.clock)
	if err != nil {
		s.rejectOrder(ticker, id, agentID, err)
		return 0, err
	}

	trigger := s.mintSubmission(ticker, o.OrderID, agentID, side, common.Market)
	events, err := s.eng.Process(o, b, s.clock, &trigger, s.eventIDs)
	if err != nil {
		s.rejectOrder(ticker, id, agentID, err)
		return 0, err
	}
	s.stream.AppendAll(events)
	s.checkInvariants(ticker)
	if s.fatal != nil {
		return o.OrderID, s.fatal
	}
	return o.OrderID, nil
}

func (s *Simulation) cancelOrder(agentID uint64, ticker string, orderID uint64) error {
	if s.fatal != nil {
		return s.fatal
	}
	b, ok := s.books[ticker]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrUnknownTicker, ticker)
	}

	trigger := s.mintCancelRequest(ticker, orderID, agentID)
	events, err := b.Cancel(orderID, s.clock, &trigger, s.eventIDs)
	if err != nil {
		s.logger.Debug().Uint64("order_id", orderID).Err(err).Msg("cancel rejected")
		return err
	}
	s.stream.AppendAll(events)
	s.checkInvariants(ticker)
	if s.fatal != nil {
		return s.fatal
	}
	return nil
}

// mintSubmission appends the root event representing an incoming order's
// submission and returns its id for use as the trigger of every event
// the matching engine produces while processing it.
func (s *Simulation) mintSubmission(ticker string, orderID, agentID uint64, side common.Side, kind common.OrderKind) uint64 {
	id := s.eventIDs.Next()
	s.stream.Append(event.Event{
		EventID:   id,
		Timestamp: s.clock,
		Payload:   event.OrderSubmittedPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID, Side: side, Kind: kind},
	})
	return id
}

func (s *Simulation) mintCancelRequest(ticker string, orderID, agentID uint64) uint64 {
	id := s.eventIDs.Next()
	s.stream.Append(event.Event{
		EventID:   id,
		Timestamp: s.clock,
		Payload:   event.CancelRequestedPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID},
	})
	return id
}

// rejectOrder turns a non-fatal error from order construction or from the
// matching engine (InvalidOrder, UnknownTicker) into an OrderRejected
// event, logged at debug level. The order never reached the book. The
// rejection event carries no trigger: it is a root, even when the engine
// rejected the order after its OrderSubmitted root was already appended.
// An unknown ticker found before construction and a failed cancel are
// returned to the caller without an OrderRejected event.
func (s *Simulation) rejectOrder(ticker string, orderID, agentID uint64, cause error) {
	s.logger.Debug().Uint64("order_id", orderID).Uint64("agent_id", agentID).Err(cause).Msg("order rejected")
	s.stream.Append(event.Event{
		EventID:   s.eventIDs.Next(),
		Timestamp: s.clock,
		Payload:   event.OrderRejectedPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID, Reason: cause.Error()},
	})
}

// --- invariant checking -----------------------------------------------

// checkInvariants enforces best_bid() < best_ask() whenever both are
// defined, after every mutating operation. A violation is fatal: it is
// latched onto s.fatal, which every entry point and the run loop itself
// check before doing further work.
func (s *Simulation) checkInvariants(ticker string) {
	if s.fatal != nil {
		return
	}
	b, ok := s.books[ticker]
	if !ok {
		return
	}
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if okBid && okAsk && !bid.LessThan(ask) {
		s.fatal = &InvariantViolation{
			Reason:      fmt.Sprintf("crossed book on %s: best_bid=%s best_ask=%s", ticker, bid, ask),
			Clock:       s.clock,
			LastEventID: s.stream.LastEventID(),
			TopOfBook:   s.topOfBookSnapshot(),
		}
		s.logger.Error().Interface("violation", s.fatal).Msg("invariant violation, simulation aborting")
	}
}

func (s *Simulation) topOfBookSnapshot() map[string]TopOfBook {
	out := make(map[string]TopOfBook, len(s.books))
	for ticker, b := range s.books {
		tb := TopOfBook{Ticker: ticker}
		if bid, ok := b.BestBid(); ok {
			tb.HasBid = true
			tb.BestBid = bid.String()
		}
		if ask, ok := b.BestAsk(); ok {
			tb.HasAsk = true
			tb.BestAsk = ask.String()
		}
		out[ticker] = tb
	}
	return out
}

// --- run loop ----------------------------------------------------------

// sortedTickers returns the registered ticker names in a fixed order so
// the expiry sweeper (which touches every book each tick) produces the
// same event sequence on every run given the same seed, rather than one
// that depends on Go's randomized map iteration.
func (s *Simulation) sortedTickers() []string {
	out := make([]string, 0, len(s.books))
	for ticker := range s.books {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// sweepExpired runs before each activation: every resting order whose
// expiration has passed is pulled from its book and reported as expired.
// Root events (no submission caused them; the clock itself did).
func (s *Simulation) sweepExpired() {
	for _, ticker := range s.sortedTickers() {
		events := s.books[ticker].SweepExpired(s.clock, nil, s.eventIDs)
		if len(events) == 0 {
			continue
		}
		s.stream.AppendAll(events)
		s.checkInvariants(ticker)
		if s.fatal != nil {
			return
		}
	}
}

// RunUntil advances simulated time by repeatedly popping the
// next-due agent activation until none remains due at or before horizon,
// or until ctx is canceled, or until a fatal invariant violation aborts
// the run. There is no parallelism: this goroutine is the single logical
// thread of control.
func (s *Simulation) RunUntil(ctx context.Context, horizon int64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		due, agentID, ok := s.sched.PeekNext()
		if !ok || due > horizon {
			return nil
		}
		s.sched.PopNext()
		s.clock = due

		s.sweepExpired()
		if s.fatal != nil {
			return s.fatal
		}

		a, ok := s.agents[agentID]
		if !ok {
			continue
		}
		ticker := s.agentTickers[agentID]
		mv := marketView{sim: s, ticker: ticker}
		sp := submissionPort{sim: s, agentID: agentID, ticker: ticker}

		next := a.Activate(s.clock, mv, sp)
		if s.fatal != nil {
			return s.fatal
		}
		s.sched.Reschedule(agentID, next)
	}
}

// Run wraps RunUntil in a supervising tomb so a caller can drive it from
// a signal.NotifyContext over one cooperative run-loop goroutine.
func (s *Simulation) Run(ctx context.Context, horizon int64) error {
	t, tombCtx := tomb.WithContext(ctx)
	t.Go(func() error {
		return s.RunUntil(tombCtx, horizon)
	})
	return t.Wait()
}

// BuildFromConfig constructs a Simulation from a loaded, validated
// config.Config: registers every ticker in cfg.Market.Tickers and every
// agent in cfg.Agents, wiring each archetype to its TimeActivated rate
// and seed.
func BuildFromConfig(cfg *config.Config, logger zerolog.Logger) (*Simulation, error) {
	sim := New(logger)

	tick := common.DefaultTickSize
	if cfg.Market.TickDecimals > 0 {
		tick = common.NewTickSize(cfg.Market.TickDecimals)
	}
	for _, ticker := range cfg.Market.Tickers {
		if err := sim.RegisterTicker(ticker, tick, cfg.Market.OHLCVPeriods, cfg.Market.StoreTickData, cfg.Market.MaxTicks); err != nil {
			return nil, err
		}
	}

	for _, ac := range cfg.Agents {
		ticker := ac.Ticker
		if ticker == "" && len(cfg.Market.Tickers) > 0 {
			ticker = cfg.Market.Tickers[0]
		}

		var a agent.Agent
		switch ac.Type {
		case "zero_intelligence":
			a = agent.NewZeroIntelligenceAgent(ac.ID, ticker, tick, ac.MaxOrderSize, ac.LimitOrderRate, ac.MarketOrderRate, ac.CancellationRate, ac.ActivationRate, cfg.Seed)
		case "fundamentalist":
			a = agent.NewFundamentalistAgent(ac.ID, ticker, decimal.NewFromFloat(ac.FundamentalValue), ac.MaxOrderSize, ac.ActivationRate, cfg.Seed)
		case "chartist":
			a = agent.NewChartistAgent(ac.ID, ticker, ac.MaxOrderSize, ac.IndicatorWindow, ac.BarPeriod, ac.ActivationRate, cfg.Seed)
		default:
			return nil, fmt.Errorf("%w: agent %d has unknown type %q", common.ErrInvalidOrder, ac.ID, ac.Type)
		}

		if err := sim.RegisterAgent(a, ticker, 0); err != nil {
			return nil, err
		}
	}

	return sim, nil
}
