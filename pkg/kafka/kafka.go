package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

const (
	NotificationTopic = "notification"
	AuditTopic        = "audit"
)

type NoticeType string

const (
	NoticeIssue   NoticeType = "ISSUE"
	NoticeReturn  NoticeType = "RETURN"
	NoticeOverdue NoticeType = "OVERDUE_REMINDER"
)

type EventNotification struct {
	Type          NoticeType `json:"type"`
	StudentName   string     `json:"studentName"`
	StudentEmail  string     `json:"studentEmail"`
	StudentNumber string     `json:"studentNumber"`
	BookTitle     string     `json:"bookTitle"`
	BookAuthor    string     `json:"bookAuthor"`
	DueDate       time.Time  `json:"dueDate"`
	FineAmount    int        `json:"fineAmount"`
	Timestamp     time.Time  `json:"timestamp"`
}

type EventAudit struct {
	Action    string         `json:"action"`
	Actor     string         `json:"performedBy"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
