package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"social-go/internal/config"
	appKafka "social-go/internal/kafka"
	kafkahandlers "social-go/internal/kafka/handlers"
	"social-go/internal/logging"
	"social-go/internal/mailer"
)

// mailer 消费 API 服务器写入发件箱 topic 的邮件并通过 SMTP 发送。
func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "log mails instead of sending them")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	var sender mailer.Sender = mailer.NewSMTPSender(cfg.Mail)
	if *dryRun {
		sender = mailer.NewLogSender(log)
	}

	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, log)
	if err != nil {
		log.WithError(err).Fatal("无法创建 Kafka 消费者")
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := kafkahandlers.NewEmailOutboxHandler(sender, log)
	log.WithFields(logrus.Fields{
		"topic":   cfg.Kafka.EmailTopic,
		"groupID": cfg.Kafka.ConsumerGroup,
		"dryRun":  *dryRun,
	}).Info("邮件发送服务启动")

	err = consumer.Consume(ctx, []string{cfg.Kafka.EmailTopic}, cfg.Kafka.ConsumerGroup, handler.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Kafka 消费者错误")
	}
	log.Info("邮件发送服务已停止")
}
