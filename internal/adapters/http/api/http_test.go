package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/sentio/internal/adapters/http/api"
	"github.com/okian/sentio/internal/domain/sentiment"
	"github.com/okian/sentio/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockPredictor scores from a fixed table and records every call.
type mockPredictor struct {
	mu       sync.Mutex
	polarity map[string]float64
	err      error
	panics   bool
	calls    []string
}

func (m *mockPredictor) Predict(_ context.Context, text string) (sentiment.Prediction, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.panics {
		panic("scorer exploded")
	}
	if m.err != nil {
		return sentiment.Prediction{}, m.err
	}
	return sentiment.NewPrediction(text, m.polarity[text]), nil
}

func (m *mockPredictor) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]interface{}{"started": true, "predictions": len(m.calls)}
}

func (m *mockPredictor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestHandler(deps api.Dependencies, opts ...api.ServerOption) http.Handler {
	server := api.NewServer(deps, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return server.Handler(mux)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type validationBody struct {
	Detail []struct {
		Loc  []string `json:"loc"`
		Msg  string   `json:"msg"`
		Type string   `json:"type"`
	} `json:"detail"`
}

func TestPredict_Success(t *testing.T) {
	Convey("Given an API server with a predictor", t, func() {
		deps := &mockPredictor{polarity: map[string]float64{
			"I love this product!":            0.5,
			"This is terrible and I hate it.": -0.8,
			"The sky is blue.":                0,
		}}
		h := newTestHandler(deps)

		cases := []struct {
			text      string
			sentiment string
			polarity  float64
		}{
			{"I love this product!", "Positive", 0.5},
			{"This is terrible and I hate it.", "Negative", -0.8},
			{"The sky is blue.", "Neutral", 0},
		}
		for _, tc := range cases {
			Convey("When posting "+tc.text, func() {
				body, _ := json.Marshal(map[string]string{"text": tc.text})
				w := do(h, http.MethodPost, "/predict", string(body))

				Convey("Then it should return the classified prediction", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
					var got sentiment.Prediction
					So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
					So(got.Text, ShouldEqual, tc.text)
					So(string(got.Sentiment), ShouldEqual, tc.sentiment)
					So(got.Polarity, ShouldEqual, tc.polarity)
				})
			})
		}

		Convey("When posting an empty text", func() {
			w := do(h, http.MethodPost, "/predict", `{"text": ""}`)

			Convey("Then it should be accepted and classified Neutral", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"text":"","sentiment":"Neutral","polarity":0}`)
				So(deps.calls, ShouldResemble, []string{""})
			})
		})

		Convey("When the text contains markup, escapes and non-ASCII characters", func() {
			text := "<b>café</b> & \"quotes\"\n\t\U0001F600  "
			body, _ := json.Marshal(map[string]string{"text": text})
			w := do(h, http.MethodPost, "/predict", string(body))

			Convey("Then the text should be echoed unchanged and unescaped", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "<b>café</b> &")
				var got sentiment.Prediction
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Text, ShouldEqual, text)
			})
		})

		Convey("When the body carries unknown members", func() {
			w := do(h, http.MethodPost, "/predict", `{"text":"The sky is blue.","lang":"en"}`)

			Convey("Then they should be ignored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the same text is posted twice", func() {
			first := do(h, http.MethodPost, "/predict", `{"text":"I love this product!"}`)
			second := do(h, http.MethodPost, "/predict", `{"text":"I love this product!"}`)

			Convey("Then both responses should be identical", func() {
				So(second.Body.String(), ShouldEqual, first.Body.String())
			})
		})
	})
}

func TestPredict_Validation(t *testing.T) {
	Convey("Given an API server with a predictor", t, func() {
		deps := &mockPredictor{}
		h := newTestHandler(deps)

		cases := []struct {
			name string
			body string
			loc  []string
			typ  string
		}{
			{"a missing text member", `{}`, []string{"body", "text"}, "value_error.missing"},
			{"a misnamed member", `{"message":"hi"}`, []string{"body", "text"}, "value_error.missing"},
			{"a numeric text", `{"text": 5}`, []string{"body", "text"}, "type_error.str"},
			{"an array text", `{"text": ["a"]}`, []string{"body", "text"}, "type_error.str"},
			{"an object text", `{"text": {"a": 1}}`, []string{"body", "text"}, "type_error.str"},
			{"a boolean text", `{"text": true}`, []string{"body", "text"}, "type_error.str"},
			{"a null text", `{"text": null}`, []string{"body", "text"}, "type_error.none.not_allowed"},
			{"an absent body", ``, []string{"body"}, "value_error.missing"},
			{"a whitespace body", "  \n ", []string{"body"}, "value_error.missing"},
			{"malformed JSON", `{"text": "unterminated`, []string{"body"}, "value_error.jsondecode"},
			{"trailing data", `{"text":"a"} {"text":"b"}`, []string{"body"}, "value_error.jsondecode"},
			{"invalid UTF-8", "{\"text\":\"\xff\xfe\"}", []string{"body"}, "value_error.jsondecode"},
			{"a JSON array body", `["text"]`, []string{"body"}, "type_error.dict"},
			{"a JSON string body", `"I love this product!"`, []string{"body"}, "type_error.dict"},
		}
		for _, tc := range cases {
			Convey("When posting "+tc.name, func() {
				w := do(h, http.MethodPost, "/predict", tc.body)

				Convey("Then it should be rejected with 422 without scoring", func() {
					So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
					var got validationBody
					So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
					So(len(got.Detail), ShouldEqual, 1)
					So(got.Detail[0].Loc, ShouldResemble, tc.loc)
					So(got.Detail[0].Type, ShouldEqual, tc.typ)
					So(got.Detail[0].Msg, ShouldNotBeEmpty)
					So(deps.callCount(), ShouldEqual, 0)
				})
			})
		}

		Convey("When posting without a text member", func() {
			w := do(h, http.MethodPost, "/predict", `{}`)

			Convey("Then the body should match the documented shape", func() {
				So(strings.TrimSpace(w.Body.String()), ShouldEqual,
					`{"detail":[{"loc":["body","text"],"msg":"field required","type":"value_error.missing"}]}`)
			})
		})
	})
}

func TestPredict_Limits(t *testing.T) {
	Convey("Given an API server with a small body limit", t, func() {
		deps := &mockPredictor{}
		h := newTestHandler(deps, api.WithMaxBodyBytes(32))

		Convey("When the body exceeds the limit", func() {
			w := do(h, http.MethodPost, "/predict", `{"text":"`+strings.Repeat("a", 64)+`"}`)

			Convey("Then it should be rejected with 413", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(w.Body.String(), ShouldContainSubstring, "payload_too_large")
				So(deps.callCount(), ShouldEqual, 0)
			})
		})

		Convey("When the body fits", func() {
			w := do(h, http.MethodPost, "/predict", `{"text":"short"}`)

			Convey("Then it should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestPredict_Failures(t *testing.T) {
	Convey("Given a predictor that fails", t, func() {
		deps := &mockPredictor{err: errors.New("lexicon unavailable at /secret/path")}
		h := newTestHandler(deps)

		Convey("When posting a valid request", func() {
			w := do(h, http.MethodPost, "/predict", `{"text":"hello"}`)

			Convey("Then it should return a generic 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual,
					`{"code":"internal_error","message":"Internal Server Error"}`)
				So(w.Body.String(), ShouldNotContainSubstring, "secret")
			})
		})
	})

	Convey("Given a predictor that panics", t, func() {
		h := newTestHandler(&mockPredictor{panics: true})

		Convey("When posting a valid request", func() {
			w := do(h, http.MethodPost, "/predict", `{"text":"hello"}`)

			Convey("Then the panic should be turned into a 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "internal_error")
			})
		})
	})
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		h := newTestHandler(&mockPredictor{})

		Convey("When calling /predict with another method", func() {
			w := do(h, http.MethodGet, "/predict", "")

			Convey("Then it should answer 405", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"detail":"Method Not Allowed"}`)
			})
		})

		Convey("When requesting the health endpoint", func() {
			w := do(h, http.MethodGet, "/healthz", "")

			Convey("Then it should serve Prometheus metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "sentio_")
			})
		})

		Convey("When requesting the liveness endpoint", func() {
			w := do(h, http.MethodGet, "/livez", "")

			Convey("Then it should report ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"status":"ok"}`)
			})
		})

		Convey("When requesting the stats endpoint", func() {
			w := do(h, http.MethodGet, "/stats", "")

			Convey("Then it should return the provider's stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When requesting the version endpoint", func() {
			w := do(h, http.MethodGet, "/version", "")

			Convey("Then it should return build information", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"go_version"`)
			})
		})

		Convey("When requesting an unknown path", func() {
			w := do(h, http.MethodGet, "/unknown", "")

			Convey("Then it should answer 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"detail":"Not Found"}`)
			})
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given an API server", t, func() {
		h := newTestHandler(&mockPredictor{})

		Convey("When the caller sends a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/livez", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "client-id-1")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be echoed", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "client-id-1")
			})
		})

		Convey("When the caller sends none or an unusable one", func() {
			for _, sent := range []string{"", "has spaces", strings.Repeat("x", 200)} {
				req := httptest.NewRequest(http.MethodGet, "/livez", http.NoBody)
				if sent != "" {
					req.Header.Set(api.RequestIDHeader, sent)
				}
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)

				_, err := uuid.Parse(w.Header().Get(api.RequestIDHeader))
				So(err, ShouldBeNil)
			}
		})
	})
}
