package columnar

import (
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
)

// enumSymbols is the parsed form of the MetadataSymbols annotation.
type enumSymbols struct {
	ordered []string
	index   map[string]int
}

func (s *enumSymbols) contains(sym string) bool {
	_, ok := s.index[sym]
	return ok
}

// symbolCache maps an annotation value to its *enumSymbols. Schemas are
// translated once per source, so it holds one entry per distinct enum.
var symbolCache sync.Map

// symbolsOf returns the enum symbols annotated on a field, or nil when the
// field carries none.
func symbolsOf(md arrow.Metadata) *enumSymbols {
	idx := md.FindKey(MetadataSymbols)
	if idx < 0 {
		return nil
	}
	raw := md.Values()[idx]
	if cached, ok := symbolCache.Load(raw); ok {
		return cached.(*enumSymbols)
	}

	syms := &enumSymbols{index: make(map[string]int)}
	if raw != "" {
		syms.ordered = strings.Split(raw, ",")
	}
	for i, sym := range syms.ordered {
		syms.index[sym] = i
	}
	cached, _ := symbolCache.LoadOrStore(raw, syms)
	return cached.(*enumSymbols)
}
