package enqueue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/config"
	"tokenhunter-event-gate/internal/app/amqp/eventworker"
	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/router"
	"tokenhunter-event-gate/internal/source"
)

// Handler accepts a scraped event over HTTP and hands it to the
// eventworker queue, so scrapers never block on validation.
type Handler struct {
	cfg     *config.Config
	channel *amqp.Channel
	logger  *zap.SugaredLogger

	publish func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type NewHandlerParams struct {
	fx.In

	Cfg     *config.Config
	Channel *amqp.Channel `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewHandler(p NewHandlerParams) *Handler {
	var publishFn func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	if p.Channel != nil {
		publishFn = p.Channel.PublishWithContext
	}

	return &Handler{
		cfg:     p.Cfg,
		channel: p.Channel,
		logger:  p.Logger,
		publish: publishFn,
	}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/events/enqueue", h.Handle)
}

type enqueueResponse struct {
	OK      bool   `json:"ok"`
	EventID string `json:"event_id"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req eventworker.ScrapedEventData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	rawURL := strings.TrimSpace(req.LumaURL)
	if rawURL == "" {
		rawURL = strings.TrimSpace(req.URL)
	}
	if rawURL == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing url")
		return
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid url")
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		render.ChiErr(w, http.StatusBadRequest, "url must be http(s)")
		return
	}
	if parsed.Hostname() == "" {
		render.ChiErr(w, http.StatusBadRequest, "invalid url host")
		return
	}
	if _, err := source.Detect(rawURL); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "unsupported url domain (supported: luma, eventbrite, meetup)")
		return
	}

	if h.cfg.RabbitMQ.URL == "" || h.publish == nil {
		render.ChiErr(w, http.StatusServiceUnavailable, "rabbitmq disabled")
		return
	}

	ex := h.cfg.RabbitMQ.Exchange
	if ex == "" {
		ex = "events"
	}
	routingKey := h.cfg.RabbitMQ.RoutingKey
	if routingKey == "" {
		routingKey = "gate.event.scraped.v1"
	}

	now := time.Now().UTC()
	eventID := eventIDFromURL(rawURL)

	env := eventworker.ScrapedEventEnvelope{
		EventName: eventworker.ScrapedEventName,
		EventID:   eventID,
		TS:        now,
		Data:      req,
	}
	body, err := json.Marshal(env)
	if err != nil {
		h.logger.Errorw("enqueue_marshal_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to encode message")
		return
	}

	if h.channel != nil && h.cfg.RabbitMQ.DeclareTopology {
		if err := h.channel.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			h.logger.Errorw("enqueue_exchange_declare_failed", "exchange", ex, "err", err)
			render.ChiErr(w, http.StatusBadGateway, fmt.Sprintf("rabbitmq exchange declare failed: %s", ex))
			return
		}
	}

	if err := h.publish(r.Context(), ex, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    now,
		MessageId:    eventID,
		Body:         body,
	}); err != nil {
		h.logger.Errorw(
			"enqueue_publish_failed",
			"exchange", ex,
			"routing_key", routingKey,
			"event_id", eventID,
			"url", rawURL,
			"err", err,
		)
		render.ChiErr(w, http.StatusBadGateway, "failed to publish message")
		return
	}

	h.logger.Infow("enqueue_published", "exchange", ex, "routing_key", routingKey, "event_id", eventID, "url", rawURL)
	render.ChiJSON(w, http.StatusOK, enqueueResponse{OK: true, EventID: eventID})
}

func eventIDFromURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return "urlsha256:" + hex.EncodeToString(sum[:])
}

var _ router.Handler = (*Handler)(nil)
