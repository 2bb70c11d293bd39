package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	// NoDescription is used when an entry carries no description.
	NoDescription = "No description available"
	// NoPricing is the pricing summary for entries without a pricing object.
	NoPricing = "Pricing not available"
	// NotPriced is printed for a price component that is not a number.
	NotPriced = "N/A"

	createdLayout = "2006-01-02 15:04:05"

	// Bounds of a four-digit year, in Unix seconds.
	minCreated = -62135596800
	maxCreated = 253402300799
)

var (
	errInvalidJSON = errors.New("entry is not valid JSON")
	errNotObject   = errors.New("entry is not a JSON object")

	million = decimal.NewFromInt(1_000_000)
)

// Normalize converts raw catalog entries into models sorted by ID.
// It never fails: entries that cannot be normalized are kept as fallback
// records, so the result always has one model per entry.
func Normalize(entries []RawEntry) []Model {
	models := make([]Model, 0, len(entries))
	fallbacks := 0
	for i, e := range entries {
		m, err := normalizeEntry(e)
		if err != nil {
			slog.Warn("could not normalize model, keeping raw entry", "index", i, "error", err)
			m = fallbackModel(e)
			fallbacks++
		}
		models = append(models, m)
	}

	sort.SliceStable(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	slog.Debug("models normalized", "models", len(models), "fallbacks", fallbacks)
	return models
}

func normalizeEntry(e RawEntry) (m Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalizing entry: %v", r)
		}
	}()

	if !gjson.ValidBytes(e) {
		return Model{}, errInvalidJSON
	}
	r := gjson.ParseBytes(e)
	if !r.IsObject() {
		return Model{}, errNotObject
	}

	id, hasID := text(r.Get("id"))
	if !hasID {
		id = Unknown
	}
	m = Model{
		ID:               id,
		Name:             textOr(r.Get("name"), id),
		Description:      textOr(r.Get("description"), NoDescription),
		ContextLength:    contextLength(r.Get("context_length")),
		CreatedFormatted: Unknown,
		Tags:             tags(r.Get("tags")),
	}

	m.Pricing, m.PricingSummary = pricing(r.Get("pricing"))

	arch := object(r.Get("architecture"))
	m.Architecture = Architecture{
		Modality:     textOr(arch.Get("modality"), Unknown),
		Tokenizer:    textOr(arch.Get("tokenizer"), Unknown),
		InstructType: textOr(arch.Get("instruct_type"), Unknown),
	}
	m.ArchitectureSummary = m.Architecture.Summary()

	provider := object(r.Get("top_provider"))
	m.TopProviderName = textOr(provider.Get("name"), Unknown)
	m.TopProviderContext = contextLength(provider.Get("context_length"))

	m.Created, m.CreatedFormatted = created(r.Get("created"))
	return m, nil
}

// fallbackModel builds a fully-defaulted record for an entry that could not
// be normalized, recovering id and name when the entry allows it.
func fallbackModel(e RawEntry) Model {
	m := Model{
		ID:               Unknown,
		Name:             Unknown,
		Description:      NoDescription,
		PricingSummary:   NoPricing,
		Architecture:     Architecture{Modality: Unknown, Tokenizer: Unknown, InstructType: Unknown},
		TopProviderName:  Unknown,
		CreatedFormatted: Unknown,
		Tags:             []string{},
		Raw:              append(RawEntry(nil), e...),
	}
	m.ArchitectureSummary = m.Architecture.Summary()

	if len(m.Raw) == 0 {
		m.Raw = RawEntry("null")
	}
	if gjson.ValidBytes(e) {
		if r := gjson.ParseBytes(e); r.IsObject() {
			if id, ok := text(r.Get("id")); ok {
				m.ID = id
			}
			m.Name = textOr(r.Get("name"), m.ID)
		}
	}
	return m
}

// Summary renders the architecture as a single line.
func (a Architecture) Summary() string {
	return fmt.Sprintf("Modality: %s, Tokenizer: %s, Type: %s", a.Modality, a.Tokenizer, a.InstructType)
}

// Summary renders both prices per million tokens.
func (p *Pricing) Summary() string {
	if p == nil {
		return NoPricing
	}
	return fmt.Sprintf("Prompt: %s, Completion: %s", PerMillion(p.Prompt), PerMillion(p.Completion))
}

// PerMillion formats a per-token price as dollars per million tokens, rounded
// half away from zero to two decimals.
func PerMillion(price *decimal.Decimal) string {
	if price == nil {
		return NotPriced
	}
	return "$" + price.Mul(million).StringFixed(2) + "/1M"
}

func pricing(r gjson.Result) (*Pricing, string) {
	if !r.IsObject() || len(r.Map()) == 0 {
		return nil, NoPricing
	}
	p := &Pricing{
		Prompt:     price(r.Get("prompt")),
		Completion: price(r.Get("completion")),
	}
	return p, p.Summary()
}

// price parses a price given either as a numeric string or a JSON number.
func price(r gjson.Result) *decimal.Decimal {
	var s string
	switch r.Type {
	case gjson.String:
		s = strings.TrimSpace(r.Str)
	case gjson.Number:
		s = r.Raw
	default:
		return nil
	}
	if s == "" || strings.EqualFold(s, NotPriced) {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// contextLength is known only for JSON integers.
func contextLength(r gjson.Result) ContextLength {
	if r.Type != gjson.Number || strings.ContainsAny(r.Raw, ".eE") {
		return ContextLength{}
	}
	n, err := strconv.Atoi(r.Raw)
	if err != nil {
		return ContextLength{}
	}
	return Tokens(n)
}

func created(r gjson.Result) (int64, string) {
	if r.Type != gjson.Number {
		return 0, Unknown
	}
	f := r.Float()
	if f == 0 || math.IsNaN(f) || f < minCreated || f > maxCreated {
		return 0, Unknown
	}
	sec, frac := math.Modf(f)
	t := time.Unix(int64(sec), int64(frac*1e9)).Local()
	return int64(sec), t.Format(createdLayout)
}

func tags(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			out = append(out, v.Str)
		}
		return true
	})
	return out
}

// text returns a scalar field as a string. Null, absent and structured
// values are reported as missing.
func text(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number:
		return r.Raw, true
	default:
		return "", false
	}
}

func textOr(r gjson.Result, def string) string {
	if s, ok := text(r); ok {
		return s
	}
	return def
}

// object treats anything other than a JSON object as an empty mapping.
func object(r gjson.Result) gjson.Result {
	if r.IsObject() {
		return r
	}
	return gjson.Result{}
}
