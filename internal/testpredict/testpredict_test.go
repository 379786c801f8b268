package testpredict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/sentio/internal/adapters/http/api"
	app "github.com/okian/sentio/internal/app"
	"github.com/okian/sentio/internal/domain/sentiment"
	"github.com/okian/sentio/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newService() *httptest.Server {
	svc := app.New()
	convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
	server := api.NewServer(svc)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return httptest.NewServer(server.Handler(mux))
}

// newFaultyService answers every request with 200 and a prediction that
// breaks label, echo and idempotence expectations.
func newFaultyService() *httptest.Server {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		text, _ := req["text"].(string)
		n := calls.Add(1)
		_ = json.NewEncoder(w).Encode(sentiment.Prediction{
			Text:      strings.ToUpper(text),
			Sentiment: sentiment.Positive,
			Polarity:  -float64(n),
		})
	})
	return httptest.NewServer(mux)
}

func testConfig(baseURL, dir string) *Config {
	return &Config{
		BaseURL:    baseURL,
		Repeat:     2,
		Workers:    4,
		Timeout:    5 * time.Second,
		ReportFile: filepath.Join(dir, "report.json"),
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running prediction service", t, func() {
		ts := newService()
		defer ts.Close()
		cfg := testConfig(ts.URL, t.TempDir())

		convey.Convey("The built-in corpus passes every check", func() {
			report, err := Run(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(report.Passed(), convey.ShouldBeTrue)
			convey.So(report.RunID, convey.ShouldNotBeEmpty)
			convey.So(report.Stats.Texts, convey.ShouldEqual, len(builtinCorpus))
			convey.So(report.Stats.Submitted, convey.ShouldEqual, 2*len(builtinCorpus))
			convey.So(report.Stats.Successful, convey.ShouldEqual, report.Stats.Submitted)
			convey.So(report.Stats.ByLabel[sentiment.Positive.String()], convey.ShouldBeGreaterThan, 0)
			convey.So(report.Stats.ByLabel[sentiment.Negative.String()], convey.ShouldBeGreaterThan, 0)
			convey.So(report.Stats.ByLabel[sentiment.Neutral.String()], convey.ShouldBeGreaterThan, 0)

			data, err := os.ReadFile(cfg.ReportFile)
			convey.So(err, convey.ShouldBeNil)
			var saved Report
			convey.So(json.Unmarshal(data, &saved), convey.ShouldBeNil)
			convey.So(saved.RunID, convey.ShouldEqual, report.RunID)
			convey.So(saved.Violations, convey.ShouldBeEmpty)
		})

		convey.Convey("A corpus file is read line by line", func() {
			path := filepath.Join(t.TempDir(), "corpus.txt")
			convey.So(os.WriteFile(path, []byte("good day\r\n\nbad day\n"), 0o600), convey.ShouldBeNil)
			cfg.CorpusFile = path
			cfg.Repeat = 3

			report, err := Run(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(report.Stats.Texts, convey.ShouldEqual, 2)
			convey.So(report.Stats.Submitted, convey.ShouldEqual, 6)
		})

		convey.Convey("Repeat is raised to the minimum", func() {
			cfg.Repeat = 1
			report, err := Run(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(report.Stats.Submitted, convey.ShouldEqual, MinRepeat*len(builtinCorpus))
		})
	})

	convey.Convey("Given a faulty service", t, func() {
		ts := newFaultyService()
		defer ts.Close()
		cfg := testConfig(ts.URL, t.TempDir())

		convey.Convey("Every kind of violation is reported", func() {
			report, err := Run(context.Background(), cfg)
			convey.So(errors.Is(err, ErrViolations), convey.ShouldBeTrue)
			convey.So(report, convey.ShouldNotBeNil)
			convey.So(report.Passed(), convey.ShouldBeFalse)

			kinds := make(map[string]int)
			for _, v := range report.Violations {
				kinds[v.Kind]++
			}
			convey.So(kinds[KindLabel], convey.ShouldBeGreaterThan, 0)
			convey.So(kinds[KindEcho], convey.ShouldBeGreaterThan, 0)
			convey.So(kinds[KindIdempotent], convey.ShouldEqual, len(builtinCorpus))
			convey.So(kinds[KindValidation], convey.ShouldEqual, len(invalidBodies))

			_, statErr := os.Stat(cfg.ReportFile)
			convey.So(statErr, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an unreachable service", t, func() {
		ts := newService()
		ts.Close()

		convey.Convey("Run fails the health check", func() {
			report, err := Run(context.Background(), testConfig(ts.URL, t.TempDir()))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(report, convey.ShouldBeNil)
		})
	})
}

func TestVerification(t *testing.T) {
	convey.Convey("Given single results", t, func() {
		ok := Result{
			Text:       "nice",
			Attempt:    1,
			StatusCode: StatusOK,
			Prediction: sentiment.Prediction{Text: "nice", Sentiment: sentiment.Positive, Polarity: 0.4},
		}

		convey.Convey("A consistent prediction has no violations", func() {
			convey.So(verifyResult(ok), convey.ShouldBeEmpty)
		})

		convey.Convey("Zero polarity must be Neutral", func() {
			res := ok
			res.Prediction.Polarity = 0
			v := verifyResult(res)
			convey.So(v, convey.ShouldHaveLength, 1)
			convey.So(v[0].Kind, convey.ShouldEqual, KindLabel)
		})

		convey.Convey("Unknown labels are rejected", func() {
			res := ok
			res.Prediction.Sentiment = "Mixed"
			convey.So(verifyResult(res)[0].Kind, convey.ShouldEqual, KindLabel)
		})

		convey.Convey("Echo must be byte-exact", func() {
			res := ok
			res.Prediction.Text = "nice "
			convey.So(verifyResult(res)[0].Kind, convey.ShouldEqual, KindEcho)
		})

		convey.Convey("Non-200 statuses and transport errors are reported", func() {
			convey.So(verifyResult(Result{Text: "x", StatusCode: 500})[0].Kind, convey.ShouldEqual, KindStatus)
			convey.So(verifyResult(Result{Text: "x", Err: "refused"})[0].Kind, convey.ShouldEqual, KindTransport)
		})

		convey.Convey("Disagreeing repeats are reported once per text", func() {
			second := ok
			second.Attempt = 2
			second.Prediction.Polarity = 0.5
			third := second
			third.Attempt = 3
			v := verifyIdempotence([]Result{ok, second, third})
			convey.So(v, convey.ShouldHaveLength, 1)
			convey.So(v[0].Kind, convey.ShouldEqual, KindIdempotent)
			convey.So(verifyIdempotence([]Result{ok, ok}), convey.ShouldBeEmpty)
		})
	})
}

func TestCorpus(t *testing.T) {
	convey.Convey("Given corpus input", t, func() {
		convey.Convey("The built-in corpus is returned as a copy", func() {
			texts, err := LoadCorpus(context.Background(), "")
			convey.So(err, convey.ShouldBeNil)
			texts[0] = "changed"
			convey.So(BuiltinCorpus()[0], convey.ShouldEqual, builtinCorpus[0])
		})

		convey.Convey("Blank lines are skipped and whitespace is kept", func() {
			texts, err := readCorpus(strings.NewReader("a\n\n  b \r\nc"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(texts, convey.ShouldResemble, []string{"a", "  b ", "c"})
		})

		convey.Convey("An empty corpus is an error", func() {
			_, err := readCorpus(strings.NewReader("\n\n"))
			convey.So(errors.Is(err, ErrEmptyCorpus), convey.ShouldBeTrue)
		})

		convey.Convey("Invalid UTF-8 is rejected", func() {
			_, err := readCorpus(strings.NewReader("ok\n\xff\n"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "line 2")
		})

		convey.Convey("A missing file is an error", func() {
			_, err := LoadCorpus(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Request bodies keep markup unescaped", t, func() {
		body, err := encodeText("<b>&</b>")
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(body), convey.ShouldEqual, "{\"text\":\"<b>&</b>\"}\n")
	})
}
