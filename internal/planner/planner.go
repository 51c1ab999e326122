// Package planner implements two-stage plan generation over genkit: a draft
// stage reasons over the paper's extracted claims in free text, and a repair
// stage coerces that reasoning into a strict Plan JSON object, which is then
// sanitized and validated. A plan is only returned once it survives both.
package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/eventbus"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/logging"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/sanitizer"
)

const draftSystem = `You are a research engineer turning paper claims into a
minimal reproduction experiment. Reason step by step about which dataset,
model, training configuration and metrics best match the claims and the time
budget. Quote the claims you rely on.`

const repairSystem = `You convert free-form experiment reasoning into a single
JSON object for a Plan document with fields: version, dataset {name, split,
filters}, model {name, framework, variant, architecture}, config {epochs,
batch_size, optimizer, learning_rate}, metrics [{name, primary, split, goal}],
policy {budget_minutes, max_retries}, justifications {dataset, model, config:
{quote, citation}}. Return ONLY the JSON object.`

// repairRequest is the input to the repair flow.
type repairRequest struct {
	Draft    string `json:"draft"`
	Feedback string `json:"feedback,omitempty"`
}

// Planner is a genkit-backed implementation of p2n.Planner.
type Planner struct {
	datasets   *registry.DatasetRegistry
	bus        eventbus.EventBus
	maxRetries int

	// Flow runners, split out so tests can substitute deterministic text.
	draft  func(ctx context.Context, input *p2n.PlannerInput) (string, error)
	repair func(ctx context.Context, req *repairRequest) (string, error)
}

// Option configures a Planner.
type Option func(*Planner)

// WithEventBus attaches a bus for generation lifecycle events.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(p *Planner) { p.bus = bus }
}

// WithMaxRetries bounds the repair attempts after the first.
func WithMaxRetries(n int) Option {
	return func(p *Planner) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// New defines the two planner flows on the genkit instance and returns a
// Planner running them.
func New(g *genkit.Genkit, datasets *registry.DatasetRegistry, opts ...Option) (*Planner, error) {
	if g == nil {
		return nil, p2n.NewConfigurationError("planner needs an initialized genkit instance", nil)
	}
	if datasets == nil {
		return nil, p2n.NewConfigurationError("planner needs a dataset registry", nil)
	}

	p := &Planner{datasets: datasets, maxRetries: 2}
	for _, opt := range opts {
		opt(p)
	}

	draftFlow := genkit.DefineFlow(g, "planDraftFlow",
		func(ctx context.Context, input *p2n.PlannerInput) (string, error) {
			resp, err := genkit.Generate(ctx, g,
				ai.WithSystem(draftSystem),
				ai.WithPrompt(draftPrompt(input)),
			)
			if err != nil {
				return "", fmt.Errorf("draft generation failed: %w", err)
			}
			return resp.Text(), nil
		},
	)

	repairFlow := genkit.DefineFlow(g, "planRepairFlow",
		func(ctx context.Context, req *repairRequest) (string, error) {
			resp, err := genkit.Generate(ctx, g,
				ai.WithSystem(repairSystem),
				ai.WithPrompt(repairPrompt(req)),
			)
			if err != nil {
				return "", fmt.Errorf("repair generation failed: %w", err)
			}
			return resp.Text(), nil
		},
	)

	p.draft = flowRunner(draftFlow)
	p.repair = flowRunner(repairFlow)
	return p, nil
}

func flowRunner[In any, Out any](flow *core.Flow[In, Out, struct{}]) func(context.Context, In) (Out, error) {
	return func(ctx context.Context, input In) (Out, error) {
		return flow.Run(ctx, input)
	}
}

var _ p2n.Planner = (*Planner)(nil)

// GeneratePlan runs the draft stage once and the repair stage up to
// maxRetries+1 times, feeding each failure back into the next repair attempt.
func (p *Planner) GeneratePlan(ctx context.Context, input p2n.PlannerInput) (*p2n.PlanDocument, error) {
	logger := logging.New("planner")
	p.publish(ctx, eventbus.EventPlanGenerationStarted, map[string]interface{}{
		"paper_title": input.PaperTitle,
		"claims":      len(input.Claims),
	})

	draftText, err := p.draft(ctx, &input)
	if err != nil {
		p.publish(ctx, eventbus.EventPlanGenerationFailure, map[string]interface{}{"error": err.Error()})
		return nil, p2n.NewPlanGenerationError(err)
	}

	policy := p2n.PlanPolicy{BudgetMinutes: input.BudgetMinutes, MaxRetries: p.maxRetries}
	req := &repairRequest{Draft: draftText}
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.publish(ctx, eventbus.EventPlanGenerationRepair, map[string]interface{}{
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
			req.Feedback = lastErr.Error()
		}

		plan, warnings, err := p.repairOnce(ctx, req, policy)
		if err != nil {
			lastErr = err
			logger.Warn("plan repair attempt failed", "attempt", attempt, "error", err)
			continue
		}

		p.publish(ctx, eventbus.EventPlanGenerationSuccess, map[string]interface{}{
			"dataset":  plan.Dataset.Name,
			"model":    plan.Model.Name,
			"warnings": warnings,
		})
		return plan, nil
	}

	p.publish(ctx, eventbus.EventPlanGenerationFailure, map[string]interface{}{"error": lastErr.Error()})
	return nil, p2n.NewPlanGenerationError(lastErr)
}

// repairOnce runs a single repair round: generate, extract JSON, sanitize,
// validate.
func (p *Planner) repairOnce(ctx context.Context, req *repairRequest, policy p2n.PlanPolicy) (*p2n.PlanDocument, []string, error) {
	raw, err := p.repair(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	extracted, err := ExtractJSON(raw)
	if err != nil {
		return nil, nil, err
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(extracted), &obj); err != nil {
		return nil, nil, fmt.Errorf("repaired output is not valid JSON: %w", err)
	}

	plan, warnings, err := sanitizer.Sanitize(obj, p.datasets, policy)
	if err != nil {
		return nil, warnings, err
	}
	if plan.Policy.BudgetMinutes == 0 {
		plan.Policy = policy
	}
	if err := plan.Validate(); err != nil {
		return nil, warnings, err
	}
	p.publish(ctx, eventbus.EventPlanSanitized, map[string]interface{}{"warnings": warnings})
	return plan, warnings, nil
}

func (p *Planner) publish(ctx context.Context, eventType eventbus.EventType, payload map[string]interface{}) {
	if p.bus == nil {
		return
	}
	_ = p.bus.Publish(ctx, eventbus.NewEvent(eventType, payload, "planner", nil))
}

// draftPrompt renders the stage-1 prompt from the extracted claims.
func draftPrompt(input *p2n.PlannerInput) string {
	var b []byte
	b = append(b, "Paper: "...)
	if input.PaperTitle != "" {
		b = append(b, input.PaperTitle...)
	} else {
		b = append(b, "(untitled)"...)
	}
	b = append(b, fmt.Sprintf("\nTime budget: %d minutes\nClaims:\n", input.BudgetMinutes)...)
	for i, claim := range input.Claims {
		line := fmt.Sprintf("%d. dataset=%q split=%q metric=%q", i+1, claim.Dataset, claim.Split, claim.Metric)
		if claim.Value != nil {
			line += fmt.Sprintf(" value=%g%s", *claim.Value, claim.Units)
		}
		line += fmt.Sprintf(" citation=%q confidence=%.2f", claim.Citation, claim.Confidence)
		b = append(b, line...)
		b = append(b, '\n')
	}
	b = append(b, "Propose one experiment that reproduces the strongest claim within the budget."...)
	return string(b)
}

// repairPrompt renders the stage-2 prompt, appending validation feedback from
// the previous failed attempt when present.
func repairPrompt(req *repairRequest) string {
	prompt := "REASONING:\n" + req.Draft
	if req.Feedback != "" {
		prompt += "\n\nThe previous JSON was rejected: " + req.Feedback + "\nFix it."
	}
	return prompt
}
