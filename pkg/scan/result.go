package scan

// UpdateStatus describes what happened to a document in update mode.
type UpdateStatus string

const (
	// UpdateNone means update mode was off.
	UpdateNone UpdateStatus = ""
	// UpdateWritten means the new count was written to the file.
	UpdateWritten UpdateStatus = "written"
	// UpdateUnchanged means the file already recorded the count.
	UpdateUnchanged UpdateStatus = "unchanged"
	// UpdatePending means the count differs but writes were disabled.
	UpdatePending UpdateStatus = "pending"
	// UpdateSkipped means the frontmatter could not be updated.
	UpdateSkipped UpdateStatus = "skipped"
	// UpdateFailed means the file could not be written.
	UpdateFailed UpdateStatus = "failed"
)

// Updated reports whether the update succeeded or would succeed.
func (s UpdateStatus) Updated() bool {
	switch s {
	case UpdateWritten, UpdateUnchanged, UpdatePending:
		return true
	case UpdateNone, UpdateSkipped, UpdateFailed:
		return false
	}

	return false
}

// Result is the outcome for one rule document.
type Result struct {
	// Recorded is the `ruleTokenCount` in the file after processing, if any.
	Recorded    *int         `json:"recordedTokens,omitempty" yaml:"recordedTokens,omitempty"`
	Name        string       `json:"name"                     yaml:"name"`
	Path        string       `json:"path"                     yaml:"path"`
	Update      UpdateStatus `json:"update,omitempty"         yaml:"update,omitempty"`
	Reason      string       `json:"reason,omitempty"         yaml:"reason,omitempty"`
	// Size is Bytes in human readable form, such as "1.2 kB".
	Size        string       `json:"size"                     yaml:"size"`
	Tokens      int          `json:"tokens"                   yaml:"tokens"`
	// Bytes is the size of the file as read, before any update.
	Bytes       int          `json:"bytes"                    yaml:"bytes"`
	AlwaysApply bool         `json:"alwaysApply"              yaml:"alwaysApply"`
}

// Stale reports whether the recorded count is missing or out of date.
func (r Result) Stale() bool {
	return r.Recorded == nil || *r.Recorded != r.Tokens
}

// Failure is a document that could not be processed at all.
type Failure struct {
	Path  string `json:"path"  yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// Summary aggregates the results of one run.
type Summary struct {
	Results  []Result  `json:"rules"              yaml:"rules"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	// Total is the sum of all result token counts.
	Total int `json:"totalTokens" yaml:"totalTokens"`
	// AlwaysApplied is the sum of token counts of always-applied documents.
	AlwaysApplied int `json:"alwaysAppliedTokens" yaml:"alwaysAppliedTokens"`
	// Updated counts documents whose update succeeded.
	Updated int `json:"updated" yaml:"updated"`
	// Skipped counts documents whose update was refused or failed.
	Skipped int `json:"skipped" yaml:"skipped"`
	// Filtered counts documents excluded by the match expression.
	Filtered   int  `json:"filtered"   yaml:"filtered"`
	UpdateMode bool `json:"updateMode" yaml:"updateMode"`
	DryRun     bool `json:"dryRun"     yaml:"dryRun"`
}

// AlwaysAppliedPercent returns the always-applied share of the total, or 0
// when the total is 0.
func (s *Summary) AlwaysAppliedPercent() float64 {
	if s.Total == 0 {
		return 0
	}

	return float64(s.AlwaysApplied) / float64(s.Total) * 100
}

// Attempted returns the number of documents processed in update mode.
func (s *Summary) Attempted() int {
	if !s.UpdateMode {
		return 0
	}

	return len(s.Results)
}

// Stale returns the results whose recorded count is missing or out of date.
func (s *Summary) Stale() []Result {
	var stale []Result

	for _, r := range s.Results {
		if r.Stale() {
			stale = append(stale, r)
		}
	}

	return stale
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.Total += r.Tokens

	if r.AlwaysApply {
		s.AlwaysApplied += r.Tokens
	}

	switch {
	case r.Update.Updated():
		s.Updated++
	case r.Update != UpdateNone:
		s.Skipped++
	}
}
