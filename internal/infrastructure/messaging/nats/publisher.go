// Package nats доставляет события из transactional outbox в NATS.
//
// Сам по себе NATS не участвует в корректности ядра: события сначала
// коммитятся в outbox_events вместе с ledger-строками, relay доставляет
// их асинхронно (at-least-once).
package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Config содержит настройки подключения к NATS.
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "coinvault",
		MaxReconnects: -1, // reconnect бесконечно
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Connect устанавливает соединение с NATS.
func Connect(cfg Config) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// MessageSender - узкий контракт доставки, за которым прячется *nats.Conn.
// Позволяет подставить фейк в unit-тестах relay'я.
type MessageSender interface {
	Publish(subject string, data []byte) error
}

// Subject строит NATS subject из типа события.
// "transaction.recorded" -> "coinvault.transaction.recorded".
func Subject(eventType string) string {
	return "coinvault." + eventType
}
