package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/llm"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/soyeahso/frontdesk/internal/throttle"
)

// DefaultHistoryTurns is how many history entries are sent as context.
const DefaultHistoryTurns = 4

// LLM asks the language model for a label and, for general questions, a short
// answer. Calls go through the throttle; any degraded result is Unavailable.
type LLM struct {
	Client       llm.Client
	Queue        *throttle.Queue
	Catalog      *catalog.Catalog
	Model        string
	MaxTokens    int
	HistoryTurns int
	Log          *logging.Logger
}

func (*LLM) Name() string { return "llm" }

// conversational reports whether the state accepts free-form questions.
func conversational(s domain.State) bool {
	return s == domain.StateMainMenu || s == domain.StateTrackingStart
}

func (l *LLM) Resolve(ctx context.Context, q Query) Result {
	if l == nil || l.Client == nil || l.Queue == nil {
		return Result{Outcome: Unavailable}
	}
	if !conversational(q.State) || strings.TrimSpace(q.Utterance) == "" {
		return Result{Outcome: NoMatch}
	}

	req := llm.CompletionRequest{
		Model:     l.Model,
		System:    BuildSystemPrompt(l.Catalog, q.Language),
		Messages:  l.messages(q),
		MaxTokens: l.MaxTokens,
	}
	res := l.Queue.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := l.Client.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	})
	if !res.OK() {
		if l.Log != nil {
			l.Log.Debug().Str("status", string(res.Status)).Err(res.Err).Msg("llm unavailable, falling through")
		}
		return Result{Outcome: Unavailable, Err: fmt.Errorf("llm %s: %w", res.Status, res.Err)}
	}

	label, reply, ok := parseAnswer(res.Text)
	if !ok {
		return Result{Outcome: NoMatch, Err: fmt.Errorf("llm: unparseable answer")}
	}
	if label == domain.IntentGeneral && reply == "" {
		return Result{Outcome: NoMatch}
	}
	r := matched(label, ConfidenceLLM, "llm")
	r.Intent.Reply = reply
	return r
}

func (l *LLM) messages(q Query) []llm.Message {
	n := l.HistoryTurns
	if n <= 0 {
		n = DefaultHistoryTurns
	}
	h := q.History
	if len(h) > n {
		h = h[len(h)-n:]
	}
	msgs := make([]llm.Message, 0, len(h)+1)
	for _, e := range h {
		role := llm.RoleUser
		if e.Role == "agent" {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: e.Text})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: q.Utterance})
}

// BuildSystemPrompt describes the business, its services and the allowed
// labels, and asks for a one-line JSON answer.
func BuildSystemPrompt(cat *catalog.Catalog, lang domain.Language) string {
	var b strings.Builder

	business := "the studio"
	if cat != nil && cat.Business != "" {
		business = cat.Business
	}
	fmt.Fprintf(&b, "You are the phone receptionist of %s.\n", business)
	fmt.Fprintf(&b, "The caller speaks %s. Answer in %s.\n\n", lang.Name(), lang.Name())

	if cat != nil {
		b.WriteString("Services:\n")
		for _, s := range cat.Active() {
			fmt.Fprintf(&b, "- %s: %s\n", s.Name(lang), cat.PriceText(s))
		}
		if h := cat.HoursText(lang); h != "" {
			fmt.Fprintf(&b, "Hours: %s\n", h)
		}
		b.WriteString("\n")
	}

	labels := make([]string, len(domain.IntentLabels))
	for i, l := range domain.IntentLabels {
		labels[i] = string(l)
	}
	b.WriteString("Classify the caller's last message as one of: ")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString(".\n")
	b.WriteString("Reply with JSON only: {\"intent\": \"<label>\", \"reply\": \"<answer>\"}.\n")
	b.WriteString("Leave reply empty unless the intent is general and you can answer from the information above.\n")
	b.WriteString("Keep any reply to one or two short sentences suitable for speaking on a phone call.\n")
	return b.String()
}

type answer struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}

// parseAnswer reads the first JSON object in text. Models often wrap it in
// prose or code fences.
func parseAnswer(text string) (domain.IntentLabel, string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", "", false
	}
	var a answer
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return "", "", false
	}
	label := domain.IntentLabel(strings.ToLower(strings.TrimSpace(a.Intent)))
	if !label.Valid() {
		return "", "", false
	}
	return label, strings.TrimSpace(a.Reply), true
}
