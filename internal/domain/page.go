package domain

// FetchMode identifies which of the three pagination access modes produced a state.
type FetchMode string

const (
	FetchReload FetchMode = "reload"
	FetchAppend FetchMode = "append"
	FetchJump   FetchMode = "jump"
)

type ErrorKind string

const (
	// ErrorKindQuery is a failed reload or jump; the list was cleared and the
	// user is offered a retry that re-runs reload.
	ErrorKindQuery ErrorKind = "query"
	// ErrorKindIncremental is a failed append; existing items stay visible.
	ErrorKindIncremental ErrorKind = "incremental"
)

// LoadError is the user-facing error state of the listing.
type LoadError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// PageState is the pagination metadata plus the visible list.
type PageState struct {
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
	HasMore    bool             `json:"hasMore"`
	Items      []ProductSummary `json:"items"`
	Loading    bool             `json:"loading"`
	Error      *LoadError       `json:"error,omitempty"`
}

// TotalPages is ceil(totalCount / pageSize).
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// HasMore is page < ceil(totalCount / pageSize). It goes false on its own when
// the total shrinks below the current page.
func HasMore(page, totalCount, pageSize int) bool {
	return page < TotalPages(totalCount, pageSize)
}

// Pagination is the listing metadata returned by stateless endpoints.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// Response standardizes API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}
