package interpreter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when the config does not name one. Receipt parsing
// needs a vision-capable model.
const DefaultModel = openai.GPT4oMini

const receiptPrompt = `Extract items, their prices, tax, and tip from this receipt.
Respond with JSON only, in the shape:
{"items": [{"name": string, "price": number}], "tax": number, "tip": number}
Use 0 for tax or tip if the receipt does not show them.`

const commandPromptTemplate = `User says: %q
Available items: [%s]
Extract who is involved and which item they are referring to.
Respond with JSON only, in the shape:
{"intent": "ASSIGN" | "UNASSIGN" | "UNKNOWN", "people": [string], "itemSearch": string}
"people" is an array of names. "itemSearch" is the item name or the closest match.`

// OpenAIInterpreter implements Interpreter against the OpenAI chat API.
type OpenAIInterpreter struct {
	client *openai.Client
	model  string
}

// NewOpenAIInterpreter creates an interpreter using the given API key.
// An empty model selects DefaultModel.
func NewOpenAIInterpreter(apiKey, model string) *OpenAIInterpreter {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIInterpreter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// ParseReceipt sends the image as a base64 data URL to a vision chat
// completion and decodes the JSON reply.
func (i *OpenAIInterpreter) ParseReceipt(ctx context.Context, image []byte) (Receipt, error) {
	if len(image) == 0 {
		return Receipt{}, errors.New("empty image")
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: receiptPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt extraction request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Receipt{}, errors.New("receipt extraction returned no choices")
	}

	return decodeReceipt([]byte(resp.Choices[0].Message.Content))
}

// InterpretCommand asks the model to classify the message against the current
// item names and decodes the JSON reply.
func (i *OpenAIInterpreter) InterpretCommand(ctx context.Context, text string, itemNames []string) (Command, error) {
	prompt := fmt.Sprintf(commandPromptTemplate, text, strings.Join(itemNames, ", "))
	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Command{}, fmt.Errorf("command interpretation request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Command{}, errors.New("command interpretation returned no choices")
	}

	return decodeCommand([]byte(resp.Choices[0].Message.Content))
}
