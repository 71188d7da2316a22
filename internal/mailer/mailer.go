package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"social-go/internal/config"
	"social-go/internal/kafka"
)

// Message kinds carried in the outbox.
const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

// Message 是一封待发送的邮件，也是发件箱 topic 中的 JSON 负载。
type Message struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers or enqueues a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender 只记录邮件，用于本地开发。
type LogSender struct {
	log *logrus.Logger
}

func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.WithFields(logrus.Fields{"kind": msg.Kind, "to": msg.To, "subject": msg.Subject}).Info("mail (log transport)")
	s.log.Debug(msg.HTML)
	return nil
}

// OutboxSender publishes messages to Kafka; cmd/mailer delivers them.
type OutboxSender struct {
	producer kafka.MessageProducer
	topic    string
}

func NewOutboxSender(producer kafka.MessageProducer, topic string) *OutboxSender {
	return &OutboxSender{producer: producer, topic: topic}
}

func (s *OutboxSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化邮件失败: %w", err)
	}
	if err := s.producer.SendMessage(ctx, s.topic, []byte(msg.To), payload); err != nil {
		return fmt.Errorf("写入邮件发件箱失败: %w", err)
	}
	return nil
}

// SMTPSender 通过 SMTP 服务器直接发送。
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr: cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.format(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) format(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// New picks the sender named by MAIL.TRANSPORT. producer is only needed for "kafka".
func New(cfg config.Config, producer kafka.MessageProducer, log *logrus.Logger) (Sender, error) {
	switch cfg.Mail.Transport {
	case "", "log":
		return NewLogSender(log), nil
	case "kafka":
		if producer == nil {
			return nil, fmt.Errorf("mail transport kafka requires a producer")
		}
		return NewOutboxSender(producer, cfg.Kafka.EmailTopic), nil
	case "smtp":
		return NewSMTPSender(cfg.Mail), nil
	default:
		return nil, fmt.Errorf("unsupported mail transport: %s", cfg.Mail.Transport)
	}
}
