package usecase

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/logger"
	"storefront-catalog/pkg/utils"
)

// Address keys. Only a single category is round-tripped.
const (
	AddrSearch   = "search"
	AddrCategory = "category"
	AddrSort     = "sort"
	AddrOnSale   = "onSale"
	AddrPage     = "page"
)

// AddressWriter replaces the externally visible address without navigating.
type AddressWriter interface {
	ReplaceAddress(address string)
}

// ParseAddress restores criteria and page from a flat key/value address.
// raw may be a bare query string, with or without a leading '?', or a full
// URL. Absent or invalid fields fall back to their defaults and unknown keys
// are ignored; parsing never fails.
func ParseAddress(raw string, priceCeiling float64) (domain.FilterCriteria, int) {
	c := domain.DefaultCriteria(priceCeiling)

	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		// ParseQuery keeps every pair it could decode.
		logger.Warn().Err(err).Str("address", raw).Msg("malformed address, keeping decodable fields")
	}

	if s := values.Get(AddrSearch); s != "" {
		c.SearchText = s
		c.CommittedSearchText = s
	}
	if cat := values.Get(AddrCategory); cat != "" {
		c.CategoryIDs = []string{cat}
	}
	if mode, ok := domain.ParseSortMode(values.Get(AddrSort)); ok {
		c.SortMode = mode
	}
	c.OnlyOnSale = values.Get(AddrOnSale) == "true"

	page := utils.ParseInt(values.Get(AddrPage), 1)
	if page < 1 {
		page = 1
	}
	return c, page
}

// SerializeAddress writes criteria and page back as a query string, omitting
// every field that sits at its default so shared links stay minimal. Keys are
// emitted in a stable order.
func SerializeAddress(c domain.FilterCriteria, page int) string {
	values := url.Values{}
	if c.CommittedSearchText != "" {
		values.Set(AddrSearch, c.CommittedSearchText)
	}
	if len(c.CategoryIDs) == 1 {
		values.Set(AddrCategory, c.CategoryIDs[0])
	}
	if c.SortMode != "" && c.SortMode != domain.SortPopular {
		values.Set(AddrSort, string(c.SortMode))
	}
	if c.OnlyOnSale {
		values.Set(AddrOnSale, "true")
	}
	if page > 1 {
		values.Set(AddrPage, strconv.Itoa(page))
	}
	return values.Encode()
}

// URLSync keeps the external address in step with the committed state.
type URLSync struct {
	mu      sync.Mutex
	writer  AddressWriter
	current string
}

func NewURLSync(writer AddressWriter) *URLSync {
	return &URLSync{writer: writer}
}

// Restore parses the entry address and remembers it as the current one.
func (u *URLSync) Restore(raw string, priceCeiling float64) (domain.FilterCriteria, int) {
	c, page := ParseAddress(raw, priceCeiling)
	u.mu.Lock()
	u.current = SerializeAddress(c, page)
	u.mu.Unlock()
	return c, page
}

// Rewrite serializes the state and hands it to the writer when it differs
// from the current address. It reports whether the address changed.
func (u *URLSync) Rewrite(c domain.FilterCriteria, page int) (string, bool) {
	addr := SerializeAddress(c, page)

	u.mu.Lock()
	defer u.mu.Unlock()
	if addr == u.current {
		return addr, false
	}
	u.current = addr
	if u.writer != nil {
		u.writer.ReplaceAddress(addr)
	}
	return addr, true
}

// Address returns the last written address.
func (u *URLSync) Address() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}
