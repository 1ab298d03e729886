package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pnlledger/internal/domain"
)

const (
	// StreamName is the JetStream stream name for ledger trades.
	StreamName = "LEDGER_TRADES"
	// SubjectPrefix is the NATS subject prefix for trade events.
	SubjectPrefix = "ledger.trades."
	// SubjectWildcard subscribes to all trade subjects.
	SubjectWildcard = "ledger.trades.>"
	// ConsumerName is the durable consumer name.
	ConsumerName = "pnl-ledger-trade-consumer"
	// PriceSubjectWildcard subscribes to all price ticks (ledger.prices.<BASE>.<QUOTE>).
	PriceSubjectWildcard = "ledger.prices.>"
)

// Repository is the storage the consumer writes to.
type Repository interface {
	GetOrCreateAccount(ctx context.Context, id string, accountType domain.AccountType) (*domain.Account, error)
	InsertTrade(ctx context.Context, trade *domain.Trade) (bool, error)
	UpsertPrices(ctx context.Context, prices []domain.Price) error
}

// PriceCache receives fresh prices so reads see them before the cache expires.
type PriceCache interface {
	Set(ctx context.Context, prices []domain.Price) error
}

// disposition tells JetStream what to do with a message.
type disposition int

const (
	dispAck disposition = iota
	// dispTerm drops a message that can never succeed.
	dispTerm
	// dispNak asks for redelivery after a transient failure.
	dispNak
)

// Consumer subscribes to trade events and price ticks via NATS.
type Consumer struct {
	nc     *nats.Conn
	repo   Repository
	cache  PriceCache
	logger zerolog.Logger
}

// NewConsumer creates a new NATS consumer. cache may be nil.
func NewConsumer(nc *nats.Conn, repo Repository, cache PriceCache) *Consumer {
	return &Consumer{
		nc:     nc,
		repo:   repo,
		cache:  cache,
		logger: log.With().Str("component", "ingest").Logger(),
	}
}

// Start begins consuming trade events and price ticks. Blocks until context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	js, err := jetstream.New(c.nc)
	if err != nil {
		return fmt.Errorf("create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectWildcard},
		Storage:  jetstream.FileStorage,
		MaxBytes: 100 * 1024 * 1024, // 100MB
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	cons, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		disp, err := c.processTrade(ctx, msg.Data())
		if err != nil {
			c.logger.Error().Err(err).
				Str("subject", msg.Subject()).
				Msg("failed to handle trade message")
		}
		switch disp {
		case dispTerm:
			msg.Term()
		case dispNak:
			msg.Nak()
		default:
			msg.Ack()
		}
	})
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	defer cc.Stop()

	// Price ticks are ephemeral: a missed tick is superseded by the next one.
	sub, err := c.nc.Subscribe(PriceSubjectWildcard, func(msg *nats.Msg) {
		if err := c.processPrice(ctx, msg.Data, time.Now()); err != nil {
			c.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to handle price tick")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe prices: %w", err)
	}
	defer sub.Unsubscribe()

	c.logger.Info().Msg("started consuming trade events and price ticks")

	<-ctx.Done()
	c.logger.Info().Msg("stopped consuming")
	return nil
}

// processTrade stores one trade event. Malformed events are terminated; store
// failures are returned with dispNak so the message is redelivered.
func (c *Consumer) processTrade(ctx context.Context, data []byte) (disposition, error) {
	var event TradeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Warn().Err(err).Msg("failed to unmarshal trade event, rejecting")
		return dispTerm, nil
	}

	if err := event.Validate(); err != nil {
		c.logger.Warn().Err(err).
			Str("trade_id", event.ID).
			Msg("invalid trade event, rejecting")
		return dispTerm, nil
	}

	trade, err := event.ToDomain()
	if err != nil {
		c.logger.Warn().Err(err).
			Str("trade_id", event.ID).
			Msg("failed to convert trade event, rejecting")
		return dispTerm, nil
	}

	accountType := domain.InferAccountType(trade.AccountID)
	if _, err := c.repo.GetOrCreateAccount(ctx, trade.AccountID, accountType); err != nil {
		return dispNak, fmt.Errorf("get or create account: %w", err)
	}

	inserted, err := c.repo.InsertTrade(ctx, trade)
	if err != nil {
		return dispNak, fmt.Errorf("insert trade: %w", err)
	}

	if inserted {
		c.logger.Info().
			Str("trade_id", trade.ID).
			Str("account_id", trade.AccountID).
			Str("symbol", trade.Symbol).
			Str("type", string(trade.Kind)).
			Str("amount", trade.Amount.String()).
			Str("price", trade.Price.String()).
			Msg("ingested trade")
	} else {
		c.logger.Debug().
			Str("trade_id", trade.ID).
			Msg("duplicate trade, skipped")
	}

	return dispAck, nil
}

// processPrice stores one price tick in the price book and the cache.
func (c *Consumer) processPrice(ctx context.Context, data []byte, now time.Time) error {
	var event PriceEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal price tick: %w", err)
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if event.Source == "" {
		event.Source = "nats"
	}

	prices := []domain.Price{event.ToDomain(now)}
	if err := c.repo.UpsertPrices(ctx, prices); err != nil {
		return fmt.Errorf("store price: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, prices); err != nil {
			return fmt.Errorf("cache price: %w", err)
		}
	}
	return nil
}

// ConnectNATS connects to NATS with retry logic.
func ConnectNATS(urls string, credsFile, creds string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("pnl-ledger"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	// Add credentials if configured
	if creds != "" {
		tmpFile, err := os.CreateTemp("", "nats-creds-*.creds")
		if err != nil {
			return nil, fmt.Errorf("create temp credentials file: %w", err)
		}
		if _, err := tmpFile.WriteString(creds); err != nil {
			tmpFile.Close()
			os.Remove(tmpFile.Name())
			return nil, fmt.Errorf("write credentials: %w", err)
		}
		tmpFile.Close()
		opts = append(opts, nats.UserCredentials(tmpFile.Name()))
	} else if credsFile != "" {
		opts = append(opts, nats.UserCredentials(credsFile))
	}

	backoff := 100 * time.Millisecond
	maxBackoff := 30 * time.Second

	for attempt := 1; ; attempt++ {
		nc, err := nats.Connect(urls, opts...)
		if err == nil {
			log.Info().Str("url", nc.ConnectedUrl()).Int("attempt", attempt).Msg("connected to NATS")
			return nc, nil
		}

		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).
			Msg("failed to connect to NATS, retrying...")
		time.Sleep(backoff)

		backoff = min(backoff*2, maxBackoff)
	}
}
