// Package session implements the command orchestrator: it owns the lifecycle
// of a bill session, delegates to the external interpreter, and applies its
// structured results to the bill deterministically.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/billchat/internal/auth"
	"github.com/mmynk/billchat/internal/calculator"
	"github.com/mmynk/billchat/internal/interpreter"
	"github.com/mmynk/billchat/internal/models"
	"github.com/mmynk/billchat/internal/resolver"
	"github.com/mmynk/billchat/internal/storage"
)

// ErrBusy is returned when a command arrives while another is still being
// processed for the same session. The caller should retry once the in-flight
// command finishes; nothing is queued.
var ErrBusy = errors.New("session is busy processing another command")

// Assistant feedback. Interpreter failures never propagate to the client as
// faults; they become one of these messages.
const (
	msgWelcome       = "Upload a receipt to get started! Then tell me who had what."
	msgNoReceipt     = "Please upload a receipt first!"
	msgReceiptFailed = "Sorry, I couldn't read that receipt. Please try another image."
	msgCommandFailed = "Something went wrong processing your request."
	msgUnsure        = "I'm not sure what you mean. Try something like 'Dhruv had the nachos'."
)

// DefaultInterpreterTimeout bounds a single oracle call. The oracle contract
// has no cancellation, but an unbounded hang would pin the session's
// in-flight guard forever.
const DefaultInterpreterTimeout = 60 * time.Second

// Service orchestrates receipt uploads and chat commands for bill sessions.
// All bill mutation flows through here; one command is in flight per session
// at a time, so the resolver never runs against a stale bill snapshot.
type Service struct {
	store   storage.Store
	interp  interpreter.Interpreter
	timeout time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates a session service. A zero timeout selects
// DefaultInterpreterTimeout.
func NewService(store storage.Store, interp interpreter.Interpreter, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultInterpreterTimeout
	}
	return &Service{
		store:    store,
		interp:   interp,
		timeout:  timeout,
		inFlight: make(map[string]bool),
	}
}

// begin marks the session as processing. Returns ErrBusy if a command is
// already in flight for it.
func (s *Service) begin(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sessionID] {
		return ErrBusy
	}
	s.inFlight[sessionID] = true
	return nil
}

func (s *Service) end(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

// CreateSession creates a new session with an optional passphrase and seeds
// the chat log with the welcome message.
func (s *Service) CreateSession(ctx context.Context, title, passphrase string) (*models.Session, error) {
	hash, err := auth.HashPassphrase(passphrase)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Title:          title,
		PassphraseHash: hash,
		Messages: []models.Message{
			{Role: models.RoleAssistant, Text: msgWelcome, CreatedAt: time.Now().Unix()},
		},
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	slog.Info("Session created", "session_id", session.ID, "title", session.Title, "protected", hash != "")
	return session, nil
}

// Join verifies the passphrase for an existing session and returns it.
func (s *Service) Join(ctx context.Context, sessionID, passphrase string) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassphrase(session.PassphraseHash, passphrase); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns the session with its bill and chat log.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// Summaries computes the per-person breakdown for the session's current bill.
// It is a pure projection of stored state; nothing is cached.
func (s *Service) Summaries(ctx context.Context, sessionID string) ([]models.PersonSummary, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return calculator.Summaries(session.Bill), nil
}

// LoadReceipt runs the receipt-load flow: delegate the image to the
// interpreter, replace the bill wholesale on success, and record
// conversational feedback either way. Extraction failures leave the bill
// unchanged and are not retried.
func (s *Service) LoadReceipt(ctx context.Context, sessionID string, image []byte) (*models.Session, error) {
	if err := s.begin(sessionID); err != nil {
		return nil, err
	}
	defer s.end(sessionID)

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	receipt, err := s.interp.ParseReceipt(ictx, image)
	cancel()
	if err != nil {
		observeInterpreterCall(opParseReceipt, outcomeError)
		slog.Warn("Receipt extraction failed", "session_id", sessionID, "error", err)
		return s.say(ctx, session, msgReceiptFailed)
	}
	observeInterpreterCall(opParseReceipt, outcomeOK)

	items := make([]models.Item, 0, len(receipt.Items))
	for _, line := range receipt.Items {
		items = append(items, models.NewItem(line.Name, line.Price))
	}
	bill := models.NewBill(items, receipt.Tax, receipt.Tip)

	if err := s.store.ReplaceBill(ctx, sessionID, bill); err != nil {
		return nil, fmt.Errorf("failed to replace bill: %w", err)
	}
	session.Bill = bill
	slog.Info("Receipt loaded", "session_id", sessionID, "items", len(bill.Items), "grand_total", bill.GrandTotal())

	confirmation := fmt.Sprintf("I've loaded %d items. Total: $%.2f. Who shared what?",
		len(bill.Items), bill.GrandTotal())
	return s.say(ctx, session, confirmation)
}

// HandleMessage runs the chat-command flow: record the user message, consult
// the interpreter, apply the resolver for assign/unassign intents, and record
// the assistant's reply. Interpreter failures and ambiguous intents leave the
// bill unchanged.
func (s *Service) HandleMessage(ctx context.Context, sessionID, text string) (*models.Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.store.GetSession(ctx, sessionID)
	}

	if err := s.begin(sessionID); err != nil {
		return nil, err
	}
	defer s.end(sessionID)

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.append(ctx, session, models.RoleUser, text); err != nil {
		return nil, err
	}

	// No receipt yet: short-circuit without contacting the interpreter.
	if len(session.Bill.Items) == 0 {
		return s.say(ctx, session, msgNoReceipt)
	}

	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	cmd, err := s.interp.InterpretCommand(ictx, text, session.Bill.ItemNames())
	cancel()
	if err != nil {
		observeInterpreterCall(opInterpretCommand, outcomeError)
		slog.Warn("Command interpretation failed", "session_id", sessionID, "error", err)
		return s.say(ctx, session, msgCommandFailed)
	}
	observeInterpreterCall(opInterpretCommand, outcomeOK)

	if len(cmd.People) == 0 {
		return s.say(ctx, session, msgUnsure)
	}

	switch cmd.Intent {
	case interpreter.IntentAssign:
		return s.applyResolver(ctx, session, cmd, resolver.Assign,
			fmt.Sprintf("Got it. Assigned %s to %s.", cmd.ItemSearch, joinNames(cmd.People)))
	case interpreter.IntentUnassign:
		return s.applyResolver(ctx, session, cmd, resolver.Unassign,
			fmt.Sprintf("Got it. Removed %s from %s.", joinNames(cmd.People), cmd.ItemSearch))
	default:
		return s.say(ctx, session, msgUnsure)
	}
}

type resolverFunc func(items []models.Item, people []string, search string) ([]models.Item, int)

// applyResolver applies an assign/unassign command and persists the result.
// A zero match count is surfaced as a clarification prompt, not an error.
func (s *Service) applyResolver(ctx context.Context, session *models.Session, cmd interpreter.Command, resolve resolverFunc, ack string) (*models.Session, error) {
	updated, matched := resolve(session.Bill.Items, cmd.People, cmd.ItemSearch)
	if matched == 0 {
		slog.Debug("No items matched", "session_id", session.ID, "search", cmd.ItemSearch)
		return s.say(ctx, session, fmt.Sprintf("I couldn't find an item matching %q. Which item did you mean?", cmd.ItemSearch))
	}

	if err := s.store.UpdateItems(ctx, session.ID, updated); err != nil {
		return nil, fmt.Errorf("failed to update items: %w", err)
	}
	session.Bill.Items = updated
	slog.Info("Assignments updated",
		"session_id", session.ID,
		"intent", cmd.Intent,
		"people", cmd.People,
		"search", cmd.ItemSearch,
		"matched", matched,
	)
	return s.say(ctx, session, ack)
}

// say appends an assistant message and returns the updated session.
func (s *Service) say(ctx context.Context, session *models.Session, text string) (*models.Session, error) {
	if err := s.append(ctx, session, models.RoleAssistant, text); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) append(ctx context.Context, session *models.Session, role, text string) error {
	msg := models.Message{Role: role, Text: text, CreatedAt: time.Now().Unix()}
	if err := s.store.AppendMessage(ctx, session.ID, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	session.Messages = append(session.Messages, msg)
	return nil
}

// joinNames renders a people list the way the assistant speaks:
// "Alice", "Alice and Bob", "Alice, Bob and Carol".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
