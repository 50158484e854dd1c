package collect

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// Dimension is the risk dimension a reasoning agent evaluates.
type Dimension string

const (
	DimensionContent Dimension = "content"
	DimensionLink    Dimension = "link"
	DimensionSender  Dimension = "sender"
	DimensionContext Dimension = "context"
)

const agentSystemPrompt = "You are an SMS fraud analysis agent. Respond only with JSON."

const responseContract = `Respond with a JSON object containing:
- score: number between 0 and 1 (higher means more suspicious)
- judgment: "benign", "suspicious" or "unknown"
- signals: array of short signal labels you observed
- features: array of short derived feature notes
- rationale: string (brief explanation of your score)
- language: the language of the original message, if you can tell
- confidence: number between 0 and 1 (how confident you are)

Respond only with the JSON object and nothing else.`

var dimensionFocus = map[Dimension]string{
	DimensionContent: `Evaluate the CONTENT of the message: urgency pressure, reward bait,
threats, requests for personal or financial data, impersonation of
institutions, and wording typical of fraud campaigns.`,
	DimensionLink: `Evaluate the LINKS in the message: lookalike or typosquatted domains,
URL shorteners, scheme-less bare domains, mismatch between the claimed
sender and the link target. A message with no links is weak evidence
either way.`,
	DimensionSender: `Evaluate the SENDER characteristics implied by the message: claimed
identity, whether a legitimate organization would send this kind of
message, and inconsistencies between claimed identity and content.`,
	DimensionContext: `Evaluate the CONTEXT of delivery: timing, how many messages this
sender sent recently, and whether the recipient was expecting a message
of this kind. Unexpected high-frequency messages are more suspicious.`,
}

// Agent is one LLM-backed reasoning agent evaluating a single risk
// dimension. All four share one LLM client; only the prompt differs.
type Agent struct {
	dimension Dimension
	llm       core.LLMClient
	logger    *zap.Logger
}

// NewAgent creates a reasoning agent for the given dimension.
func NewAgent(dimension Dimension, llm core.LLMClient, logger *zap.Logger) *Agent {
	return &Agent{
		dimension: dimension,
		llm:       llm,
		logger:    logger,
	}
}

// ID identifies the agent in results and availability flags
func (a *Agent) ID() core.SourceID {
	switch a.dimension {
	case DimensionLink:
		return core.SourceLinkAgent
	case DimensionSender:
		return core.SourceSenderAgent
	case DimensionContext:
		return core.SourceContextAgent
	default:
		return core.SourceContentAgent
	}
}

// Collect asks the LLM to score the message on this agent's dimension.
// Model errors and unparsable output both surface as errors; the caller
// records the source as unavailable and carries on.
func (a *Agent) Collect(ctx context.Context, in core.CollectInput) (*core.EvidenceItem, error) {
	prompt := a.buildPrompt(in)

	raw, err := a.llm.Complete(ctx, agentSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s agent completion failed: %w", a.dimension, err)
	}

	item, err := parseEvidence(a.ID(), raw)
	if err != nil {
		a.logger.Warn("Agent returned unparsable output",
			zap.String("dimension", string(a.dimension)),
			zap.Error(err))
		return nil, fmt.Errorf("%s agent output unusable: %w", a.dimension, err)
	}

	return item, nil
}

func (a *Agent) buildPrompt(in core.CollectInput) string {
	var b strings.Builder

	b.WriteString(dimensionFocus[a.dimension])
	b.WriteString("\n\n")
	b.WriteString(responseContract)
	b.WriteString("\n\nMessage (normalized):\n")
	b.WriteString(in.Normalized.Text)
	if in.Original != in.Normalized.Text {
		b.WriteString("\n\nMessage (original, detected language ")
		b.WriteString(in.Normalized.Language)
		b.WriteString("):\n")
		b.WriteString(in.Original)
	}

	switch a.dimension {
	case DimensionLink:
		if len(in.URLs) > 0 {
			b.WriteString("\n\nExtracted URLs:\n")
			for _, u := range in.URLs {
				b.WriteString("- " + u + "\n")
			}
		} else {
			b.WriteString("\n\nNo URLs were extracted from the message.\n")
		}
		if len(in.TrustedDomains) > 0 {
			b.WriteString("These link domains are on the local trusted allowlist: ")
			b.WriteString(strings.Join(in.TrustedDomains, ", "))
			b.WriteString(".\n")
		}
	case DimensionContext:
		if !in.ReceivedAt.IsZero() {
			fmt.Fprintf(&b, "\n\nReceived at: %s", in.ReceivedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if in.PriorFromSender >= 0 {
			fmt.Fprintf(&b, "\nMessages from this sender in the trailing window: %d", in.PriorFromSender)
		}
		if in.Expected != nil {
			fmt.Fprintf(&b, "\nRecipient was expecting a message of this kind: %t", *in.Expected)
		}
	}

	return b.String()
}
