package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"heist-server/internal/models"
)

// GameNotificationPublisher defines the interface for publishing game events
// to the notification queue.
type GameNotificationPublisher interface {
	PublishGameNotification(ctx context.Context, payload models.GameNotification) error
}

// rabbitMQPublisher implements GameNotificationPublisher for RabbitMQ.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
}

// NewRabbitMQGameNotificationPublisher creates a new instance of GameNotificationPublisher.
// Очередь объявляется здесь, чтобы система не зависела от порядка запуска сервисов.
// Важно, чтобы параметры очереди совпадали с консьюмером (notification-service).
func NewRabbitMQGameNotificationPublisher(conn *amqp.Connection, queueName string) (GameNotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("game notification publisher: не удалось открыть канал: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("game notification publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	log.Printf("GameNotificationPublisher: очередь '%s' успешно объявлена/найдена", queueName)
	return &rabbitMQPublisher{channel: ch, queueName: queueName}, nil
}

// PublishGameNotification publishes a game event.
func (p *rabbitMQPublisher) PublishGameNotification(ctx context.Context, payload models.GameNotification) error {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[PlayerID: %s] Ошибка сериализации GameNotification (%s): %v", payload.PlayerID, payload.Type, err)
		return fmt.Errorf("ошибка подготовки сообщения GameNotification: %w", err)
	}

	if err := p.publishMessage(ctx, body); err != nil {
		log.Printf("[PlayerID: %s] Ошибка публикации GameNotification (%s): %v", payload.PlayerID, payload.Type, err)
		return fmt.Errorf("ошибка публикации игрового события %s: %w", payload.Type, err)
	}
	return nil
}

// publishMessage is a helper method for publishing a message.
func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		log.Println("Ошибка публикации: канал RabbitMQ не инициализирован (nil)")
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	// Попытка публикации с retry до 3 раз
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (используем default)
			p.queueName, // routing key (имя очереди)
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "heist-server",
			},
		)
		if err == nil {
			break
		}
		log.Printf("Ошибка публикации (attempt %d) в очередь '%s': %v", attempt, p.queueName, err)
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
	}
	return nil
}
