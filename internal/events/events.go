package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/internal/model"
	"github.com/astlibr/loan-service/pkg/kafka"
)

// Publisher pushes notification and audit events onto kafka. Callers treat
// delivery as fire-and-forget; errors are returned only so they can log them.
type Publisher struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log.Named("events"),
	}
}

func (p *Publisher) SendIssueNotice(_ context.Context, loan model.LoanView) error {
	return p.publish(kafka.NotificationTopic, notice(kafka.NoticeIssue, loan))
}

func (p *Publisher) SendReturnNotice(_ context.Context, loan model.LoanView) error {
	return p.publish(kafka.NotificationTopic, notice(kafka.NoticeReturn, loan))
}

func (p *Publisher) SendOverdueReminder(_ context.Context, loan model.LoanView) error {
	return p.publish(kafka.NotificationTopic, notice(kafka.NoticeOverdue, loan))
}

func (p *Publisher) RecordEvent(_ context.Context, action, actor string, details map[string]any) error {
	return p.publish(kafka.AuditTopic, kafka.EventAudit{
		Action:    action,
		Actor:     actor,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func notice(t kafka.NoticeType, loan model.LoanView) kafka.EventNotification {
	return kafka.EventNotification{
		Type:          t,
		StudentName:   loan.StudentName,
		StudentEmail:  loan.StudentEmail,
		StudentNumber: loan.StudentNumber,
		BookTitle:     loan.BookTitle,
		BookAuthor:    loan.BookAuthor,
		DueDate:       loan.DueDate,
		FineAmount:    loan.FineAmount,
		Timestamp:     time.Now().UTC(),
	}
}

func (p *Publisher) publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return err
	}
	p.log.Debug("published", zap.String("topic", topic))
	return nil
}
