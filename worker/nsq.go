package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nsqio/go-nsq"
	"go.uber.org/zap"
)

type NSQConfig struct {
	NSQDAddr       string // producer target, and consumer target without lookupd
	NSQLookupdAddr string // optional
	Topic          string
	Channel        string
	MaxInFlight    int
	JobTimeout     time.Duration
}

// NSQQueue publishes upload ids to an NSQ topic and consumes them on a
// channel, so any instance may run the verification.
type NSQQueue struct {
	cfg      NSQConfig
	producer *nsq.Producer
	consumer *nsq.Consumer
	job      Job
	logger   *zap.Logger
}

func NewNSQQueue(cfg NSQConfig, job Job, logger *zap.Logger) (*NSQQueue, error) {
	if cfg.NSQDAddr == "" || cfg.Topic == "" || cfg.Channel == "" {
		return nil, errors.New("nsq queue: nsqd address, topic and channel are required")
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &NSQQueue{cfg: cfg, job: job, logger: logger}
	nsqLog := nsqLogger{logger.Named("nsq")}

	config := nsq.NewConfig()
	_ = config.Set("heartbeat_interval", "10s")
	_ = config.Set("max_in_flight", cfg.MaxInFlight)
	_ = config.Set("msg_timeout", cfg.JobTimeout+time.Minute)

	producer, err := nsq.NewProducer(cfg.NSQDAddr, config)
	if err != nil {
		return nil, fmt.Errorf("nsq producer: %w", err)
	}
	producer.SetLogger(nsqLog, nsq.LogLevelWarning)

	consumer, err := nsq.NewConsumer(cfg.Topic, cfg.Channel, config)
	if err != nil {
		producer.Stop()
		return nil, fmt.Errorf("nsq consumer: %w", err)
	}
	consumer.SetLogger(nsqLog, nsq.LogLevelWarning)
	consumer.AddConcurrentHandlers(q, cfg.MaxInFlight)

	if cfg.NSQLookupdAddr != "" {
		err = consumer.ConnectToNSQLookupd(cfg.NSQLookupdAddr)
	} else {
		err = consumer.ConnectToNSQD(cfg.NSQDAddr)
	}
	if err != nil {
		producer.Stop()
		consumer.Stop()
		return nil, fmt.Errorf("nsq connect: %w", err)
	}

	q.producer = producer
	q.consumer = consumer
	logger.Info("registered as nsq consumer", zap.String("topic", cfg.Topic), zap.String("channel", cfg.Channel))
	return q, nil
}

func (q *NSQQueue) Enqueue(_ context.Context, uploadID string) error {
	if err := q.producer.Publish(q.cfg.Topic, []byte(uploadID)); err != nil {
		return fmt.Errorf("publish %s: %w", uploadID, err)
	}
	return nil
}

// HandleMessage runs the job for the upload id in the body. Returning an
// error makes nsq requeue the message.
func (q *NSQQueue) HandleMessage(m *nsq.Message) error {
	id := strings.TrimSpace(string(m.Body))
	if id == "" {
		q.logger.Warn("dropping empty nsq message")
		return nil
	}
	timeout := q.cfg.JobTimeout
	if timeout <= 0 {
		timeout = DefaultLockTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return q.job(ctx, id)
}

func (q *NSQQueue) Close(ctx context.Context) error {
	if q.consumer != nil {
		q.consumer.Stop()
		select {
		case <-q.consumer.StopChan:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if q.producer != nil {
		q.producer.Stop()
	}
	return nil
}

// nsqLogger routes go-nsq's log lines into zap.
type nsqLogger struct {
	l *zap.Logger
}

// Output maps the level prefix go-nsq writes ("WRN 1 [topic/chan] ...")
// onto the matching zap level.
func (n nsqLogger) Output(_ int, s string) error {
	prefix, msg, _ := strings.Cut(s, " ")
	msg = strings.TrimSpace(msg)
	switch prefix {
	case "DBG":
		n.l.Debug(msg)
	case "INF":
		n.l.Info(msg)
	case "WRN":
		n.l.Warn(msg)
	case "ERR":
		n.l.Error(msg)
	default:
		n.l.Info(s)
	}
	return nil
}
