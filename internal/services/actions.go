package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/observability"
	"github.com/yungbote/formflow-backend/internal/platform/eventbus"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
	"github.com/yungbote/formflow-backend/internal/platform/sendgrid"
	"github.com/yungbote/formflow-backend/internal/platform/webhook"
)

// Action keys with a built-in handler.
const (
	ActionSendEmail    = "send_email"
	ActionPublishEvent = "publish_event"
	ActionWebhook      = "webhook"
	ActionLog          = "log"
)

const EventEntryTransitioned = "entry.transitioned"

// ActionContext is what a fired transition hands its actions.
type ActionContext struct {
	Entry       *types.Entry
	Graph       *graph.Graph
	FromStageID uuid.UUID
	Transition  *types.StageTransition
	Values      conditions.Values
	Caller      *access.Caller
}

type ActionResult struct {
	ActionID   uuid.UUID `json:"action_id"`
	Action     string    `json:"action"`
	OK         bool      `json:"ok"`
	Message    string    `json:"message,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// ActionHandler runs one kind of action. props is the decoded action_props object.
type ActionHandler interface {
	Key() string
	Run(ctx context.Context, ac ActionContext, props map[string]any) (string, error)
}

// ActionExecutor runs a transition's actions in order after the entry commit.
// Failures are reported per action and never undo the transition.
type ActionExecutor interface {
	Execute(ctx context.Context, ac ActionContext, actions []*types.StageTransitionAction) []ActionResult
	Register(h ActionHandler)
}

type actionExecutor struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	timeout  time.Duration
	handlers map[string]ActionHandler
}

type ActionExecutorDeps struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// Timeout bounds each action; zero means 15s.
	Timeout time.Duration

	Mail     sendgrid.Client
	Events   eventbus.Bus
	Webhooks webhook.Client

	FromEmail string
	FromName  string
}

// NewActionExecutor registers the built-in handlers. Handlers whose client is
// nil still register and fail with "not configured" when fired.
func NewActionExecutor(deps ActionExecutorDeps) ActionExecutor {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 15 * time.Second
	}
	e := &actionExecutor{
		log:      log.With("service", "ActionExecutor"),
		metrics:  deps.Metrics,
		timeout:  deps.Timeout,
		handlers: map[string]ActionHandler{},
	}
	e.Register(&sendEmailAction{client: deps.Mail, fromEmail: deps.FromEmail, fromName: deps.FromName})
	e.Register(&publishEventAction{bus: deps.Events})
	e.Register(&webhookAction{client: deps.Webhooks})
	e.Register(&logAction{log: e.log})
	return e
}

func (e *actionExecutor) Register(h ActionHandler) {
	if h == nil {
		return
	}
	e.handlers[strings.ToLower(strings.TrimSpace(h.Key()))] = h
}

func (e *actionExecutor) Execute(ctx context.Context, ac ActionContext, actions []*types.StageTransitionAction) []ActionResult {
	if len(actions) == 0 {
		return nil
	}
	// The entry is already committed; a dropped client connection must not cut
	// the side effects short.
	base := context.WithoutCancel(ctx)
	out := make([]ActionResult, 0, len(actions))
	for _, a := range actions {
		key := ""
		if ac.Graph != nil {
			key = ac.Graph.ActionKey(a)
		}
		res := ActionResult{ActionID: a.ActionID, Action: key}
		start := time.Now()
		msg, err := e.run(base, ac, key, a)
		res.DurationMS = time.Since(start).Milliseconds()
		res.Message = msg
		if err != nil {
			res.Message = err.Error()
			e.log.Warn("transition action failed",
				"action", key,
				"transition_id", ac.Transition.ID,
				"error", err,
			)
		} else {
			res.OK = true
		}
		e.metrics.ObserveAction(key, res.OK, time.Since(start))
		out = append(out, res)
	}
	return out
}

func (e *actionExecutor) run(ctx context.Context, ac ActionContext, key string, a *types.StageTransitionAction) (string, error) {
	h, ok := e.handlers[key]
	if !ok {
		return "", fmt.Errorf("no handler for action %q", key)
	}
	props := map[string]any{}
	if len(a.ActionProps) > 0 && string(a.ActionProps) != "null" {
		if err := json.Unmarshal(a.ActionProps, &props); err != nil {
			return "", fmt.Errorf("decode action props: %w", err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return h.Run(ctx, ac, props)
}

// transitionPayload is the body shared by events and webhooks.
func transitionPayload(ac ActionContext, includeValues bool) map[string]any {
	data := map[string]any{
		"form_version_id":   ac.Entry.FormVersionID.String(),
		"public_identifier": ac.Entry.PublicIdentifier,
		"from_stage_id":     ac.FromStageID.String(),
		"transition_id":     ac.Transition.ID.String(),
		"is_complete":       ac.Entry.IsComplete,
	}
	if !ac.Entry.IsComplete {
		data["current_stage_id"] = ac.Entry.CurrentStageID.String()
	}
	if includeValues {
		data["values"] = ac.Values
	}
	return data
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

type sendEmailAction struct {
	client    sendgrid.Client
	fromEmail string
	fromName  string
}

func (a *sendEmailAction) Key() string { return ActionSendEmail }

// Run mails props.to, or the value stored in props.email_field_id.
func (a *sendEmailAction) Run(ctx context.Context, ac ActionContext, props map[string]any) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("email delivery not configured")
	}
	to := propString(props, "to")
	if to == "" {
		if fieldID := propString(props, "email_field_id"); fieldID != "" {
			if v, ok := ac.Values.Lookup(fieldID); ok {
				to = strings.TrimSpace(conditions.TextOf(v))
			}
		}
	}
	if to == "" {
		return "", fmt.Errorf("no recipient")
	}
	subject := propString(props, "subject")
	if subject == "" {
		subject = "Your submission was received"
	}
	body := propString(props, "body")
	if body == "" {
		body = "Reference: " + ac.Entry.PublicIdentifier
	}
	res, err := a.client.Send(ctx, sendgrid.SendEmailRequest{
		From:       sendgrid.EmailAddress{Email: a.fromEmail, Name: a.fromName},
		To:         []sendgrid.EmailAddress{{Email: to}},
		Subject:    subject,
		Text:       body,
		Categories: []string{"formflow", ActionSendEmail},
		CustomArgs: map[string]string{"transition_id": ac.Transition.ID.String()},
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

type publishEventAction struct {
	bus eventbus.Bus
}

func (a *publishEventAction) Key() string { return ActionPublishEvent }

func (a *publishEventAction) Run(ctx context.Context, ac ActionContext, props map[string]any) (string, error) {
	if a.bus == nil {
		return "", fmt.Errorf("event bus not configured")
	}
	name := propString(props, "event")
	if name == "" {
		name = EventEntryTransitioned
	}
	ev := eventbus.Event{
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Data:       transitionPayload(ac, false),
	}
	if err := a.bus.Publish(ctx, propString(props, "channel"), ev); err != nil {
		return "", err
	}
	return name, nil
}

type webhookAction struct {
	client webhook.Client
}

func (a *webhookAction) Key() string { return ActionWebhook }

func (a *webhookAction) Run(ctx context.Context, ac ActionContext, props map[string]any) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("webhooks not configured")
	}
	headers := map[string]string{}
	if raw, ok := props["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}
	res, err := a.client.Post(ctx, webhook.Request{
		URL:     propString(props, "url"),
		Headers: headers,
		Body:    transitionPayload(ac, true),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("status %d after %d attempt(s)", res.StatusCode, res.Attempts), nil
}

type logAction struct {
	log *logger.Logger
}

func (a *logAction) Key() string { return ActionLog }

func (a *logAction) Run(_ context.Context, ac ActionContext, props map[string]any) (string, error) {
	msg := propString(props, "message")
	if msg == "" {
		msg = "transition fired"
	}
	a.log.Info(msg,
		"transition_id", ac.Transition.ID,
		"form_version_id", ac.Entry.FormVersionID,
		"is_complete", ac.Entry.IsComplete,
	)
	return "", nil
}
