package governance

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	dErrors "brandgov/pkg/domain-errors"
)

// Verdict is the outcome of a multimodal audit.
type Verdict string

const (
	VerdictCheck Verdict = "check"
	VerdictFail  Verdict = "fail"
)

// AuditDecision is the parsed model verdict for one image audit.
type AuditDecision struct {
	Verdict     Verdict
	Explanation string
	Confidence  float64
}

const (
	defaultConfidence  = 0.5
	defaultExplanation = "No explanation returned"
)

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
	jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseAuditDecision extracts a decision from the model's raw response. The
// response may be fenced in markdown or wrapped in prose; the first JSON
// object found wins. Missing fields get defaults, out-of-range confidence is
// clamped, and anything but the exact verdict "check" fails the audit. A
// response with no usable JSON object is a bad-gateway error: the audit gate
// refuses to guess.
func ParseAuditDecision(raw string) (AuditDecision, error) {
	fields, err := extractJSONObject(raw)
	if err != nil {
		return AuditDecision{}, err
	}

	decision := AuditDecision{
		Verdict:     VerdictFail,
		Explanation: defaultExplanation,
		Confidence:  defaultConfidence,
	}

	if verdict, ok := fields["verdict"].(string); ok && verdict == string(VerdictCheck) {
		decision.Verdict = VerdictCheck
	}

	if explanation, ok := fields["explanation"].(string); ok {
		decision.Explanation = explanation
	}

	if rawConfidence, present := fields["confidence"]; present {
		confidence, err := toFloat(rawConfidence)
		if err != nil {
			return AuditDecision{}, dErrors.Wrap(err, dErrors.CodeBadGateway, "model returned a non-numeric confidence")
		}
		decision.Confidence = clamp(confidence, 0, 1)
	}
	return decision, nil
}

func extractJSONObject(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, dErrors.New(dErrors.CodeBadGateway, "model returned an empty audit response")
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(fenceOpen.ReplaceAllString(cleaned, ""))
		cleaned = strings.TrimSpace(fenceClose.ReplaceAllString(cleaned, ""))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err == nil {
		return fields, nil
	}

	match := jsonObject.FindString(cleaned)
	if match == "" {
		return nil, dErrors.New(dErrors.CodeBadGateway, "model returned an invalid audit payload")
	}
	if err := json.Unmarshal([]byte(match), &fields); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "model returned an invalid audit payload")
	}
	return fields, nil
}

func toFloat(v any) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(value), 64)
	default:
		return 0, dErrors.New(dErrors.CodeBadGateway, "confidence has an unsupported type")
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
