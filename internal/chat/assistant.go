package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fmuoria/candidate-dashboard/internal/llm"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// DefaultCooldown applies when a rate limit error carries no retry hint
const DefaultCooldown = 60 * time.Second

const greeting = "Hi! I'm your AI Talent Analyst. I can answer complex questions about your data."

var (
	ErrCoolingDown   = errors.New("assistant is cooling down")
	ErrNotConfigured = errors.New("assistant is not configured")
	ErrEmptyQuestion = errors.New("question is empty")
)

// CooldownError is returned while the model quota recovers. It matches
// ErrCoolingDown with errors.Is.
type CooldownError struct {
	Remaining time.Duration
	Err       error
}

func (e *CooldownError) Error() string {
	secs := int(math.Ceil(e.Remaining.Seconds()))
	if e.Err != nil {
		return fmt.Sprintf("rate limited, available in %ds: %v", secs, e.Err)
	}
	return fmt.Sprintf("assistant is cooling down, available in %ds", secs)
}

func (e *CooldownError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCoolingDown}
	}
	return []error{ErrCoolingDown, e.Err}
}

// DatasetFunc returns the dataset questions are answered from
type DatasetFunc func() *models.Dataset

// Assistant answers natural-language questions about the loaded dataset.
// It only reads the dataset and never touches filter state.
type Assistant struct {
	mu            sync.Mutex
	generator     llm.Generator
	dataset       DatasetFunc
	excluded      []string
	limiter       *rate.Limiter
	cooldownUntil time.Time
	messages      []models.ChatMessage
	now           func() time.Time
}

// NewAssistant creates an assistant. interval paces model calls; zero
// disables pacing. A nil generator leaves the assistant unconfigured.
func NewAssistant(generator llm.Generator, dataset DatasetFunc, interval time.Duration) *Assistant {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	a := &Assistant{
		generator: generator,
		dataset:   dataset,
		excluded:  DefaultExcluded,
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
	}
	a.messages = []models.ChatMessage{a.message("bot", greeting)}
	return a
}

// SetGenerator swaps the model, e.g. after the API keys change
func (a *Assistant) SetGenerator(generator llm.Generator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generator = generator
}

// Configured reports whether a model is available
func (a *Assistant) Configured() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generator != nil
}

// Cooldown returns how long new questions are still refused
func (a *Assistant) Cooldown() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remaining()
}

func (a *Assistant) remaining() time.Duration {
	if d := a.cooldownUntil.Sub(a.now()); d > 0 {
		return d
	}
	return 0
}

// Ask sends a question with the dataset context to the model and records
// both sides of the exchange
func (a *Assistant) Ask(ctx context.Context, question string) (models.ChatAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatAnswer{}, ErrEmptyQuestion
	}

	a.mu.Lock()
	if d := a.remaining(); d > 0 {
		a.mu.Unlock()
		return models.ChatAnswer{}, &CooldownError{Remaining: d}
	}
	generator := a.generator
	if generator == nil {
		a.mu.Unlock()
		return models.ChatAnswer{}, ErrNotConfigured
	}
	a.messages = append(a.messages, a.message("user", question))
	a.mu.Unlock()

	if err := a.limiter.Wait(ctx); err != nil {
		return models.ChatAnswer{}, a.fail(fmt.Errorf("question not sent: %w", err))
	}

	var dataset *models.Dataset
	if a.dataset != nil {
		dataset = a.dataset()
	}
	prompt := buildPrompt(BuildContext(dataset, a.excluded), question)

	response, err := generator.GenerateContent(ctx, prompt)
	if err != nil {
		return models.ChatAnswer{}, a.fail(err)
	}

	answer := parseAnswer(response)

	a.mu.Lock()
	msg := a.message("bot", answer.Text)
	msg.Kind = answer.Kind
	msg.Series = answer.Series
	a.messages = append(a.messages, msg)
	a.mu.Unlock()

	return answer, nil
}

// fail records an error reply and starts a cooldown on rate limits
func (a *Assistant) fail(err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !llm.IsRateLimitError(err) {
		log.Printf("chat: model call failed: %v", err)
		msg := a.message("bot", "Sorry, I encountered an error. Please check your connection.")
		msg.IsError = true
		a.messages = append(a.messages, msg)
		return fmt.Errorf("failed to get answer: %w", err)
	}

	delay, ok := llm.RetryAfter(err)
	if !ok {
		delay = DefaultCooldown
	}
	delay = time.Duration(math.Ceil(delay.Seconds())) * time.Second
	a.cooldownUntil = a.now().Add(delay)
	log.Printf("chat: rate limited, cooling down for %v", delay)

	msg := a.message("bot", fmt.Sprintf("Running hot! Recharging AI capacity. Available in %ds...", int(delay.Seconds())))
	msg.IsError = true
	a.messages = append(a.messages, msg)

	return &CooldownError{Remaining: delay, Err: err}
}

// Messages returns a copy of the conversation
func (a *Assistant) Messages() []models.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	messagesCopy := make([]models.ChatMessage, len(a.messages))
	copy(messagesCopy, a.messages)
	return messagesCopy
}

func (a *Assistant) message(sender, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: a.now(),
	}
}
