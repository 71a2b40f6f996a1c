// Package interpreter defines the boundary to the generative-AI oracle that
// turns receipt images and free-form chat into structured data.
//
// The engine treats the oracle as untrusted input: absent fields decode to
// zero values, unrecognized intents fold to IntentUnknown, and any transport
// or parse failure is returned as an error for the orchestrator to convert
// into conversational feedback. Nothing in the core depends on a real model;
// tests substitute a deterministic stub.
package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Intent classifies what a chat command asks for.
type Intent string

const (
	IntentAssign   Intent = "ASSIGN"
	IntentUnassign Intent = "UNASSIGN"
	IntentUnknown  Intent = "UNKNOWN"
)

// ParseIntent folds an intent string from the oracle into a known Intent.
// Anything unrecognized becomes IntentUnknown rather than an error.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(s))) {
	case IntentAssign:
		return IntentAssign
	case IntentUnassign:
		return IntentUnassign
	default:
		return IntentUnknown
	}
}

// LineItem is one extracted receipt line.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Receipt is the structured result of receipt extraction. Absent fields are
// zero, never an error.
type Receipt struct {
	Items []LineItem `json:"items"`
	Tax   float64    `json:"tax"`
	Tip   float64    `json:"tip"`
}

// Command is the structured result of command interpretation.
type Command struct {
	Intent     Intent
	People     []string
	ItemSearch string
}

// Interpreter is the oracle contract. Implementations perform the actual
// OCR-style extraction and natural-language understanding; the core only
// consumes their structured output.
type Interpreter interface {
	// ParseReceipt extracts items, tax, and tip from a receipt image.
	ParseReceipt(ctx context.Context, image []byte) (Receipt, error)

	// InterpretCommand extracts intent, people, and an item search string
	// from free text, given the current item names for context.
	InterpretCommand(ctx context.Context, text string, itemNames []string) (Command, error)
}

// decodeReceipt parses the oracle's JSON into a Receipt, tolerating missing
// fields. Non-JSON output is a failure.
func decodeReceipt(data []byte) (Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return Receipt{}, fmt.Errorf("malformed receipt response: %w", err)
	}
	return r, nil
}

// decodeCommand parses the oracle's JSON into a Command, folding unknown
// intents defensively.
func decodeCommand(data []byte) (Command, error) {
	var raw struct {
		Intent     string   `json:"intent"`
		People     []string `json:"people"`
		ItemSearch string   `json:"itemSearch"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Command{}, fmt.Errorf("malformed command response: %w", err)
	}
	return Command{
		Intent:     ParseIntent(raw.Intent),
		People:     raw.People,
		ItemSearch: raw.ItemSearch,
	}, nil
}
