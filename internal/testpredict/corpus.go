package testpredict

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/okian/sentio/pkg/logger"
)

// ErrEmptyCorpus is returned when a corpus has no usable lines.
var ErrEmptyCorpus = errors.New("corpus is empty")

// builtinCorpus covers each label, an empty text, markup and non-ASCII input.
var builtinCorpus = []string{
	"I love this movie",
	"This is terrible",
	"The meeting is at noon",
	"What a wonderful, sunny day!",
	"I hate waiting in line.",
	"The food was not good at all",
	"Absolutely amazing service :)",
	"",
	"   ",
	"<b>bold</b> & \"quoted\"",
	"Ça marche très bien 👍",
	"Meh.",
}

// BuiltinCorpus returns a copy of the built-in corpus.
func BuiltinCorpus() []string {
	out := make([]string, len(builtinCorpus))
	copy(out, builtinCorpus)
	return out
}

// LoadCorpus returns the built-in corpus when path is empty, otherwise the
// lines of the file at path.
func LoadCorpus(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		return BuiltinCorpus(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close corpus", logger.Error(err))
		}
	}()

	texts, err := readCorpus(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	logger.Get().Info(ctx, "corpus loaded", logger.String("file", path), logger.Int("texts", len(texts)))
	return texts, nil
}

// readCorpus reads one text per line. Line endings are stripped; blank lines
// are skipped.
func readCorpus(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxCorpusLineBytes)

	var texts []string
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		if !utf8.ValidString(text) {
			return nil, fmt.Errorf("line %d: invalid UTF-8", line)
		}
		texts = append(texts, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, ErrEmptyCorpus
	}
	return texts, nil
}
