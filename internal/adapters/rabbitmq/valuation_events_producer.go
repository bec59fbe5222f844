package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"valuation-service/internal/contextkeys"
	"valuation-service/internal/contracts"
	"valuation-service/internal/core/domain"
	"valuation-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// PublisherConfig - конфигурация издателя аналитических событий
type PublisherConfig struct {
	URL             string
	ExchangeName    string // Имя обменника для публикации
	ExchangeType    string // Тип обменника (direct, fanout, topic)
	DurableExchange bool
}

// ValuationComputedDTO - сообщение для аналитического конвейера.
// Формат зафиксирован схемой events/valuation-computed/v1.json.
type ValuationComputedDTO struct {
	AdID            string   `json:"ad_id"`
	Tier            string   `json:"tier"`
	CurrentPrice    *float64 `json:"current_price"`
	MarketPrice     *int64   `json:"market_price"`
	SimilarAdsCount int      `json:"similar_ads_count"`
	ComputedAt      string   `json:"computed_at"`
}

// ValuationEventsPublisher реализует ValuationEventsPort поверх RabbitMQ.
type ValuationEventsPublisher struct {
	config     PublisherConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	routingKey string
	logger     port.LoggerPort
}

// NewValuationEventsPublisher подключается к брокеру и объявляет обменник.
func NewValuationEventsPublisher(cfg PublisherConfig, routingKey string, logger port.LoggerPort) (*ValuationEventsPublisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("producer: RabbitMQ URL is required")
	}
	if cfg.ExchangeName == "" || cfg.ExchangeType == "" {
		return nil, fmt.Errorf("producer: exchange name and type are required")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("producer: routing key is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("producer: failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("producer: failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.ExchangeName,
		cfg.ExchangeType,
		cfg.DurableExchange,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", cfg.ExchangeName, err)
	}

	logger.Debug("RabbitMQ publisher connected", port.Fields{
		"exchange":    cfg.ExchangeName,
		"routing_key": routingKey,
	})

	return &ValuationEventsPublisher{
		config:     cfg,
		connection: conn,
		channel:    ch,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublishValuationComputed отправляет событие о посчитанной оценке.
func (p *ValuationEventsPublisher) PublishValuationComputed(ctx context.Context, event domain.ValuationComputedEvent) error {
	if p.channel == nil || p.connection == nil || p.connection.IsClosed() {
		return fmt.Errorf("producer: not connected or channel/connection is closed")
	}

	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "ValuationEventsPublisher",
		"routing_key": p.routingKey,
		"ad_id":       event.AdID.String(),
	})

	dto := ValuationComputedDTO{
		AdID:            event.AdID.String(),
		Tier:            string(event.Tier),
		CurrentPrice:    event.CurrentPrice,
		MarketPrice:     event.MarketPrice,
		SimilarAdsCount: event.SimilarAdsCount,
		ComputedAt:      event.ComputedAt.Format(time.RFC3339Nano),
	}

	body, _ := json.Marshal(dto)

	// Контракт проверяется до публикации: битое событие не должно
	// дойти до потребителей
	if err := contracts.ValidateEvent("ValuationComputedEvent", "1.0.0", body); err != nil {
		adapterLogger.Error("Event failed contract validation", err, nil)
		return fmt.Errorf("producer: event contract validation failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent, // Для сохранения сообщений при перезапуске брокера
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	// Таймаут на операцию публикации, если контекст его не предоставляет
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.channel.PublishWithContext(publishCtx,
		p.config.ExchangeName,
		p.routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		adapterLogger.Error("Failed to publish valuation event", err, nil)
		return fmt.Errorf("producer: failed to publish valuation event for ad %s: %w", event.AdID, err)
	}

	adapterLogger.Debug("Valuation event published", nil)
	return nil
}

// Close закрывает канал и соединение с брокером.
func (p *ValuationEventsPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.connection != nil && !p.connection.IsClosed() {
		if err := p.connection.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
