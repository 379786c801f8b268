// Package sentiment contains the prediction model and the polarity classifier.
package sentiment

// Label is the coarse sentiment bucket derived from a polarity score.
type Label string

// Sentiment labels.
const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

// Labels lists every label in a stable order.
func Labels() []Label {
	return []Label{Positive, Negative, Neutral}
}

// String implements fmt.Stringer.
func (l Label) String() string { return string(l) }

// Classify maps a polarity score to a label by its sign.
// There is no tolerance band: any value above zero is Positive, any value
// below zero is Negative. Zero (and NaN, which compares false both ways) is Neutral.
func Classify(polarity float64) Label {
	switch {
	case polarity > 0:
		return Positive
	case polarity < 0:
		return Negative
	default:
		return Neutral
	}
}

// Prediction is the result of scoring one text.
type Prediction struct {
	Text      string  `json:"text"`
	Sentiment Label   `json:"sentiment"`
	Polarity  float64 `json:"polarity"`
}

// NewPrediction builds a Prediction for text. The text is kept verbatim and
// the polarity is stored unrounded.
func NewPrediction(text string, polarity float64) Prediction {
	return Prediction{
		Text:      text,
		Sentiment: Classify(polarity),
		Polarity:  polarity,
	}
}
