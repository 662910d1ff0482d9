// internal/handlers/stock-lookup/handler.go
package stocklookup

import (
	"context"
	"strings"

	"stock-bot/internal/common/logger"
	"stock-bot/internal/common/metrics"
	"stock-bot/internal/matcher"
	"stock-bot/internal/models"
)

const (
	TaskType = "stock-lookup"
)

type Handler struct {
	config  *Config
	catalog Catalog
	trigger string
	logger  logger.Logger
}

func NewHandler(config *Config, catalog Catalog, log logger.Logger) *Handler {
	trigger := strings.ToLower(strings.TrimSpace(config.Trigger))
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return &Handler{
		config:  config,
		catalog: catalog,
		trigger: trigger,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle turns an inbound message into a reply. When the message is not for
// the bot it returns nil and the reason it was skipped.
func (h *Handler) Handle(ctx context.Context, msg models.InboundMessage) (*models.OutboundReply, string) {
	if msg.IsSelf {
		return h.ignore(msg, ReasonSelf)
	}
	if msg.Text == "" {
		return h.ignore(msg, ReasonEmptyText)
	}
	if msg.Sender == "" {
		return h.ignore(msg, ReasonNoSender)
	}

	query, ok := ExtractQuery(msg.Text, h.trigger)
	if !ok {
		return h.ignore(msg, ReasonNoTrigger)
	}

	reply := h.Answer(query)
	reply.Recipient = msg.Sender

	h.logger.Info("stock lookup answered", map[string]interface{}{
		"messageId":  msg.ID,
		"sender":     msg.Sender,
		"query":      query,
		"kind":       reply.Kind,
		"matchCount": reply.MatchCount,
	})
	return &reply, ""
}

// Answer builds the reply text for an already extracted query. An empty query
// gets the usage hint without searching.
func (h *Handler) Answer(query string) models.OutboundReply {
	if query == "" {
		metrics.LookupsTotal.WithLabelValues(string(models.ReplyUsageHint)).Inc()
		return models.OutboundReply{Text: UsageHint(h.trigger), Kind: models.ReplyUsageHint}
	}

	matches := matcher.FindMatches(h.catalog.Products(), query)
	text, kind := FormatMatches(query, matches)
	metrics.LookupsTotal.WithLabelValues(string(kind)).Inc()

	return models.OutboundReply{
		Text:       text,
		Kind:       kind,
		Query:      query,
		MatchCount: len(matches),
	}
}

func (h *Handler) ignore(msg models.InboundMessage, reason string) (*models.OutboundReply, string) {
	metrics.MessagesIgnored.WithLabelValues(reason).Inc()
	h.logger.Debug("message ignored", map[string]interface{}{
		"messageId": msg.ID,
		"reason":    reason,
	})
	return nil, reason
}

// ExtractQuery finds trigger in text ignoring case and returns the lowercased
// text after its first occurrence, trimmed. ok is false when the trigger is
// absent.
func ExtractQuery(text, trigger string) (query string, ok bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(trigger))
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(lower[idx+len(trigger):]), true
}
