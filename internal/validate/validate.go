package validate

import (
	"fmt"
	"strings"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/shopspring/decimal"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Fails the validate command
	SeverityWarning                 // Reported but does not fail
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors reports whether any issue fails validation.
func (r *Result) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Result) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

func (r *Result) add(sev Severity, model, field, msg string, args ...any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	r.Issues = append(r.Issues, Issue{Severity: sev, Model: model, Field: field, Message: msg})
}

const maxContextLength = 10_000_000

// Upper bound for a plausible price, in USD per million tokens.
var maxPricePerMillion = decimal.NewFromInt(1000)

// ValidateModel checks a single normalized model. label identifies the
// model in issues when its ID is unusable.
func ValidateModel(m *catalog.Model, label string) *Result {
	r := &Result{}
	name := m.ID
	if name == "" || name == catalog.Unknown {
		name = label
		r.add(SeverityError, name, "id", "required field is missing")
	}

	if m.IsFallback() {
		r.add(SeverityWarning, name, "entry", "could not be normalized, raw entry kept")
	}

	// Context window; the provider comparison needs a plausible model value.
	switch ctx := m.ContextLength; {
	case !ctx.Known:
		r.add(SeverityWarning, name, "context_length", "unknown")
	case ctx.Tokens <= 0 || ctx.Tokens > maxContextLength:
		r.add(SeverityWarning, name, "context_length",
			"value %d outside expected range [1, %d]", ctx.Tokens, maxContextLength)
	case m.TopProviderContext.Known && m.TopProviderContext.Tokens > ctx.Tokens:
		r.add(SeverityWarning, name, "top_provider.context_length",
			"value %d exceeds model context_length %d", m.TopProviderContext.Tokens, ctx.Tokens)
	}

	// Pricing sanity
	if m.Pricing == nil {
		r.add(SeverityWarning, name, "pricing", "not available")
	} else {
		checkPrice(r, name, "pricing.prompt", m.Pricing.Prompt)
		checkPrice(r, name, "pricing.completion", m.Pricing.Completion)
	}

	if m.Architecture.Modality == catalog.Unknown {
		r.add(SeverityWarning, name, "architecture.modality", "unknown")
	}

	return r
}

func checkPrice(r *Result, name, field string, price *decimal.Decimal) {
	if price == nil {
		r.add(SeverityWarning, name, field, "not a number")
		return
	}
	perMillion := price.Mul(decimal.NewFromInt(1_000_000))
	if perMillion.IsNegative() || perMillion.GreaterThan(maxPricePerMillion) {
		r.add(SeverityWarning, name, field,
			"%s outside expected range [$0, $%s/1M]", catalog.PerMillion(price), maxPricePerMillion)
	}
}

// ValidateCatalog validates every model and flags duplicate IDs.
func ValidateCatalog(models []catalog.Model) *Result {
	r := &Result{}
	seen := make(map[string]bool, len(models))
	for i := range models {
		m := &models[i]
		modelResult := ValidateModel(m, fmt.Sprintf("#%d", i))
		r.Issues = append(r.Issues, modelResult.Issues...)

		if m.ID == "" || m.ID == catalog.Unknown {
			continue
		}
		if seen[m.ID] {
			r.add(SeverityError, m.ID, "id", "duplicate model id")
		}
		seen[m.ID] = true
	}
	return r
}

// FormatResult formats validation results for display, errors first.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	for _, group := range []struct {
		title  string
		issues []Issue
	}{
		{"Errors", r.Errors()},
		{"Warnings", r.Warnings()},
	} {
		if len(group.issues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d):\n", group.title, len(group.issues))
		for _, i := range group.issues {
			fmt.Fprintf(&b, "  %s\n", i)
		}
	}
	return b.String()
}
