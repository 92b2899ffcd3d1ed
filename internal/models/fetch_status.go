package models

// FetchStatus tracks the outcome of the most recent upstream fetch for a
// per-title record. Stored as its string form.
type FetchStatus string

const (
	FetchPending  FetchStatus = "pending"
	FetchSuccess  FetchStatus = "success"
	FetchFailed   FetchStatus = "failed"
	FetchNotFound FetchStatus = "not_found"
)

func (s FetchStatus) Valid() bool {
	switch s {
	case FetchPending, FetchSuccess, FetchFailed, FetchNotFound:
		return true
	}
	return false
}

func (s FetchStatus) String() string {
	return string(s)
}
