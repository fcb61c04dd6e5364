package redact

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/sonnes/chatview/core"
)

// Config controls which rules the Redactor applies.
type Config struct {
	Secrets    bool
	PII        bool
	ExtraRules []Rule
	Allowlist  []string // regex patterns to skip
}

// ParseKinds builds a Config from rule group names ("secrets", "pii").
func ParseKinds(kinds []string) (Config, error) {
	var cfg Config
	for _, k := range kinds {
		switch Kind(k) {
		case KindSecret:
			cfg.Secrets = true
		case KindPII:
			cfg.PII = true
		default:
			return Config{}, fmt.Errorf("unknown redaction rule %q", k)
		}
	}
	return cfg, nil
}

// Enabled reports whether any rule would be applied.
func (c Config) Enabled() bool {
	return c.Secrets || c.PII || len(c.ExtraRules) > 0
}

// Redactor replaces sensitive substrings in message content.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config. Invalid allowlist patterns are
// ignored.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	rules = append(rules, cfg.ExtraRules...)

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		if re, err := regexp.Compile(pattern); err == nil {
			allowlist = append(allowlist, re)
		}
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Transform implements core.Transformer.
func (r *Redactor) Transform(t *core.Transcript) error {
	for i := range t.Records {
		t.Records[i].Message.Content = r.redactString(t.Records[i].Message.Content)
	}
	return nil
}

// Records returns a redacted copy of records, leaving the input untouched.
func (r *Redactor) Records(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	for i, rec := range records {
		rec.Message.Content = r.redactString(rec.Message.Content)
		out[i] = rec
	}
	return out
}

// redactString applies all rules to s. Overlapping matches resolve to
// earliest start, then longest. Allowlisted values are skipped.
func (r *Redactor) redactString(s string) string {
	if len(s) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{
				start: m.Start,
				end:   m.End,
				text:  rule.Replacement(m),
			})
		}
	}

	if len(reps) == 0 {
		return s
	}

	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	var result []byte
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue // overlaps with a previous replacement
		}
		result = append(result, s[pos:rep.start]...)
		result = append(result, rep.text...)
		pos = rep.end
	}
	result = append(result, s[pos:]...)
	return string(result)
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
