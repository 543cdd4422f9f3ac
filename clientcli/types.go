package clientcli

// FileInfo is a file record as returned by the server.
type FileInfo struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Timestamp uint64 `json:"timestamp,string"`
	Owner     string `json:"owner"`
}

// AddResult is the outcome of registering one file.
type AddResult struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListResult holds the files owned by one account.
type ListResult struct {
	Account string     `json:"account"`
	Items   []FileInfo `json:"items"`
}

// DeleteResult represents the result of deleting a single key.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// HasDeleteErrors reports whether any delete failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

type serverAddRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type serverAddResponse struct {
	Key string `json:"key"`
}

type serverListResponse struct {
	Items []FileInfo `json:"items"`
}

type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
