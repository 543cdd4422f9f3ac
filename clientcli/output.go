package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Formatter formats results for output.
type Formatter interface {
	FormatAdd(w io.Writer, result *AddResult) error
	FormatFile(w io.Writer, file *FileInfo) error
	FormatList(w io.Writer, result *ListResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
// Quiet reduces output to bare keys.
type HumanFormatter struct {
	Quiet bool
}

// FormatAdd formats an add result as human-readable text.
func (f *HumanFormatter) FormatAdd(w io.Writer, result *AddResult) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, result.Key)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Added: %s\n", result.Name)
	_, _ = fmt.Fprintf(w, "  Key: %s\n", result.Key)
	_, _ = fmt.Fprintf(w, "  URL: %s\n", result.URL)
	return nil
}

// FormatFile formats a single record as human-readable text.
func (f *HumanFormatter) FormatFile(w io.Writer, file *FileInfo) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, file.URL)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Key:     %s\n", file.Key)
	_, _ = fmt.Fprintf(w, "Name:    %s\n", file.Name)
	_, _ = fmt.Fprintf(w, "URL:     %s\n", file.URL)
	_, _ = fmt.Fprintf(w, "Owner:   %s\n", file.Owner)
	_, _ = fmt.Fprintf(w, "Added:   %s\n", formatTimestamp(file.Timestamp))
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if f.Quiet {
		for i := range result.Items {
			_, _ = fmt.Fprintln(w, result.Items[i].Key)
		}
		return nil
	}

	if len(result.Items) == 0 {
		_, _ = fmt.Fprintf(w, "No files owned by %s\n", result.Account)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tNAME\tADDED\tURL")
	for i := range result.Items {
		item := &result.Items[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Key, item.Name, formatTimestamp(item.Timestamp), item.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s)\n", len(result.Items))
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Key, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Key)
		}
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatAdd formats an add result as JSON.
func (f *JSONFormatter) FormatAdd(w io.Writer, result *AddResult) error {
	return writeJSON(w, result)
}

// FormatFile formats a single record as JSON.
func (f *JSONFormatter) FormatFile(w io.Writer, file *FileInfo) error {
	return writeJSON(w, file)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		Key     string `json:"key"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			Key:     r.Key,
			Deleted: r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatTimestamp renders a nanosecond timestamp in UTC.
func formatTimestamp(ts uint64) string {
	if ts > math.MaxInt64 {
		return strconv.FormatUint(ts, 10)
	}
	return time.Unix(0, int64(ts)).UTC().Format(time.RFC3339)
}

// profileView is a profile as printed. Secrets are masked unless the caller
// asked to see them.
type profileView struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Default   bool   `json:"default"`
}

func viewProfile(p Profile, isDefault, showSecrets bool) profileView {
	return profileView{
		Name:      p.Name,
		Endpoint:  p.Endpoint,
		AccessKey: maskSecret(p.AccessKey, showSecrets),
		SecretKey: maskSecret(p.SecretKey, showSecrets),
		Default:   isDefault,
	}
}

// FormatProfileList prints one row per profile; the default is starred.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tENDPOINT\tACCESS KEY")
	for _, p := range profiles {
		v := viewProfile(p, p.Name == defaultName, showSecrets)
		marker := " "
		if v.Default {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, v.Name, v.Endpoint, v.AccessKey)
	}
	return tw.Flush()
}

// FormatProfileShow prints a profile as labelled lines.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	v := viewProfile(profile, isDefault, showSecrets)
	name := v.Name
	if v.Default {
		name += " (default)"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", name)
	_, _ = fmt.Fprintf(tw, "Endpoint:\t%s\n", v.Endpoint)
	_, _ = fmt.Fprintf(tw, "Access Key:\t%s\n", v.AccessKey)
	_, _ = fmt.Fprintf(tw, "Secret Key:\t%s\n", v.SecretKey)
	return tw.Flush()
}

// FormatProfileList writes {"profiles": [...]}.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, viewProfile(p, p.Name == defaultName, showSecrets))
	}
	return writeJSON(w, map[string][]profileView{"profiles": views})
}

func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, viewProfile(profile, isDefault, showSecrets))
}

// maskSecret keeps the first and last four characters of long secrets.
func maskSecret(secret string, show bool) string {
	switch {
	case show:
		return secret
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return strings.Repeat("*", 8)
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
