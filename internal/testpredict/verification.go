package testpredict

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/okian/sentio/internal/domain/sentiment"
)

// invalidBodies must all be rejected with 422.
var invalidBodies = []struct {
	name string
	body string
}{
	{"missing text", `{}`},
	{"numeric text", `{"text": 1}`},
	{"null text", `{"text": null}`},
}

// verifyResults checks every result and the agreement between repeats.
func verifyResults(results []Result) []Violation {
	log.Println("🔍 Verifying results...")

	var violations []Violation
	for _, res := range results {
		violations = append(violations, verifyResult(res)...)
	}
	violations = append(violations, verifyIdempotence(results)...)

	if len(violations) == 0 {
		log.Println("✅ Result verification completed")
	} else {
		log.Printf("❌ Result verification found %d violations", len(violations))
	}
	return violations
}

// verifyResult checks a single response.
func verifyResult(res Result) []Violation {
	if res.StatusCode == 0 || (res.Err != "" && res.StatusCode == StatusOK) {
		return []Violation{{Kind: KindTransport, Text: res.Text, Message: res.Err}}
	}
	if res.StatusCode != StatusOK {
		return []Violation{{
			Kind:    KindStatus,
			Text:    res.Text,
			Message: fmt.Sprintf("attempt %d: status %d", res.Attempt, res.StatusCode),
		}}
	}

	var violations []Violation
	pred := res.Prediction
	if want := sentiment.Classify(pred.Polarity); pred.Sentiment != want || !slices.Contains(sentiment.Labels(), pred.Sentiment) {
		violations = append(violations, Violation{
			Kind:    KindLabel,
			Text:    res.Text,
			Message: fmt.Sprintf("polarity %v classified as %q, expected %q", pred.Polarity, pred.Sentiment, want),
		})
	}
	if pred.Text != res.Text {
		violations = append(violations, Violation{
			Kind:    KindEcho,
			Text:    res.Text,
			Message: fmt.Sprintf("echoed %q", pred.Text),
		})
	}
	return violations
}

// verifyIdempotence reports texts whose successful answers disagree.
func verifyIdempotence(results []Result) []Violation {
	first := make(map[string]sentiment.Prediction)
	reported := make(map[string]bool)

	var violations []Violation
	for _, res := range results {
		if res.StatusCode != StatusOK || res.Err != "" {
			continue
		}
		prev, ok := first[res.Text]
		if !ok {
			first[res.Text] = res.Prediction
			continue
		}
		if reported[res.Text] {
			continue
		}
		if prev.Sentiment != res.Prediction.Sentiment || prev.Polarity != res.Prediction.Polarity {
			reported[res.Text] = true
			violations = append(violations, Violation{
				Kind:    KindIdempotent,
				Text:    res.Text,
				Message: fmt.Sprintf("%s %v then %s %v", prev.Sentiment, prev.Polarity, res.Prediction.Sentiment, res.Prediction.Polarity),
			})
		}
	}
	return violations
}

// verifyValidation checks that malformed requests are rejected with 422.
func verifyValidation(ctx context.Context, config *Config) []Violation {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	var violations []Violation
	for _, tc := range invalidBodies {
		resp, err := client.PostRaw(ctx, url, []byte(tc.body))
		if err != nil {
			violations = append(violations, Violation{Kind: KindTransport, Text: tc.body, Message: err.Error()})
			continue
		}
		_, _ = readResponseBody(resp)
		if resp.StatusCode != StatusUnprocessableEntity {
			violations = append(violations, Violation{
				Kind:    KindValidation,
				Text:    tc.body,
				Message: fmt.Sprintf("%s: status %d, expected %d", tc.name, resp.StatusCode, StatusUnprocessableEntity),
			})
		}
	}
	return violations
}
