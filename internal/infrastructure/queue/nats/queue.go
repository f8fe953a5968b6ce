package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/resilience"
)

// Queue publishes workflow events (mail resends, NDA nudges, offer and finalize
// notifications) for the mailer and consumes them in the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	group    string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	QueueGroup           string
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	group := strings.TrimSpace(options.QueueGroup)
	if group == "" {
		group = "onboarding-workers"
	}

	conn, err := nats.Connect(
		url,
		nats.Name("hr-onboarding"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		group:    group,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishEvent(ctx context.Context, event domain.WorkflowEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	subject := eventSubject(q.subject, event.Kind)

	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeEvents blocks until ctx is done, then drains the subscription.
func (q *Queue) SubscribeEvents(ctx context.Context, handler func(context.Context, domain.WorkflowEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject+".>", q.group, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		handleMessage(ctx, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func handleMessage(ctx context.Context, data []byte, handler func(context.Context, domain.WorkflowEvent) error) {
	event, err := decodeEvent(data)
	if err != nil {
		slog.Warn("workflow_event_decode_failed", "error", err)
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, event); err != nil {
		slog.Error("workflow_event_handler_failed",
			"event_id", event.ID,
			"kind", string(event.Kind),
			"candidate_id", event.CandidateID,
			"error", err,
		)
	}
}

// eventSubject keeps one subject per kind so mailers can subscribe selectively.
func eventSubject(base string, kind domain.EventKind) string {
	return base + "." + string(kind)
}

func encodeEvent(event domain.WorkflowEvent) ([]byte, error) {
	if strings.TrimSpace(event.CandidateID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode event", fmt.Errorf("candidate id is required"))
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.WorkflowEvent, error) {
	var event domain.WorkflowEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WorkflowEvent{}, fmt.Errorf("unmarshal workflow event: %w", err)
	}
	if event.Kind == "" || event.CandidateID == "" {
		return domain.WorkflowEvent{}, fmt.Errorf("workflow event missing kind or candidate id")
	}
	return event, nil
}
