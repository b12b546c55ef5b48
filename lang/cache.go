package lang

import (
	"bytes"
	"cmp"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// parseCache stores root tokens keyed by source and option hash.
var parseCache sync.Map

// state tracks the parse of one source/options combination.
type state struct {
	once sync.Once
	tok  Token
	err  error
}

// hashOptions encodes the options that affect parse output using gob and
// hashes them with xxh3.
func hashOptions(p *Parser) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	markers := make([]rune, 0, len(p.decorators))
	for r := range p.decorators {
		markers = append(markers, r)
	}

	slices.SortFunc(markers, cmp.Compare[rune])

	_ = enc.Encode(p.maxDepth)

	for _, r := range markers {
		_ = enc.Encode(r)
		_ = enc.Encode(uint8(p.decorators[r]))
	}

	return xxh3.Hash(buf.Bytes())
}

// ParseString parses src into a root block. Results are cached per source
// and options; cached tokens are shared.
func ParseString(ctx context.Context, src string, opts ...Option) (Token, error) {
	p := NewParser([]byte(src), opts...)

	sourceHash := xxh3.HashString(src)
	optsHash := hashOptions(p)
	key := strconv.FormatUint(sourceHash^optsHash, 36)

	value, hit := parseCache.LoadOrStore(key, new(state))

	entry, ok := value.(*state)
	if !ok {
		return Token{}, NewError("invalid parse cache entry").
			With(slog.String("key", key))
	}

	p.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		entry.tok, entry.err = p.Parse(ctx)
	})

	return entry.tok, entry.err
}

// ParseReader reads all of r and parses it with [ParseString].
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (Token, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return Token{}, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return ParseString(ctx, string(data), opts...)
}

// ClearCache removes all cached parse results.
func ClearCache() {
	parseCache.Clear()
}
