// Package refcode derives sequential business reference codes for new
// stock transactions, of the form {TYPE}-{NNNN}-{ITEM_CODE}. Numbering is
// advisory, for operator convenience; it is not a concurrency-safe unique
// sequence, and two concurrent allocations can legitimately produce the
// same code.
package refcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// DefaultResource is the collaborator resource holding stock transactions.
const DefaultResource = "stock_tx"

// firstCounter starts a type's sequence when no usable predecessor exists.
const firstCounter = 1

// Allocator computes the next reference code per transaction type from the
// most recently created matching record.
type Allocator struct {
	src      types.Source
	resource string
	logger   *slog.Logger
}

// NewAllocator returns an allocator reading predecessors from src. An empty
// resource selects DefaultResource; a nil logger selects slog.Default().
func NewAllocator(src types.Source, resource string, logger *slog.Logger) *Allocator {
	if resource == "" {
		resource = DefaultResource
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{src: src, resource: resource, logger: logger}
}

// Next returns the next reference code for a transaction type and item
// code. It never fails: when the latest matching record is absent, its
// reference is malformed, or the lookup itself errors, the counter falls
// back to 0001 so record creation is never blocked.
func (a *Allocator) Next(ctx context.Context, txType, itemCode string) string {
	t := strings.ToUpper(strings.TrimSpace(txType))
	item := strings.TrimSpace(itemCode)
	counter := firstCounter

	latest, err := a.src.FetchLatestByType(ctx, a.resource, t)
	switch {
	case errors.Is(err, types.ErrNotFound):
		// first transaction of this type
	case err != nil:
		a.logger.Warn("latest reference lookup failed, starting sequence over",
			"type", t, "error", err)
	default:
		ref, _ := latest.Get("ref")
		if n, ok := parseCounter(t, query.AsString(ref)); ok {
			counter = n + 1
		}
	}

	return fmt.Sprintf("%s-%04d-%s", t, counter, item)
}

// parseCounter extracts the 4-digit counter from a reference of the
// expected shape for the given type. A reference minted for a different
// type, or one edited out of shape, does not parse.
func parseCounter(txType, ref string) (int, bool) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(txType) + `-(\d{4})-`)
	m := re.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
