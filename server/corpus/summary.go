package corpus

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Summary aggregates a batch.
type Summary struct {
	Files      int
	Decoded    int
	Claimed    int
	PassedOut  int
	SinkErrors int

	// Failed counts failures by Result.Label.
	Failed map[string]int

	// Contracts counts decoded deals by contract, e.g. "3NT" or "PO".
	Contracts map[string]int
}

// Summarize folds results into a Summary.
func Summarize(results []Result) Summary {
	s := Summary{Failed: map[string]int{}, Contracts: map[string]int{}}
	for _, r := range results {
		s.add(r)
	}
	return s
}

func (s *Summary) add(r Result) {
	s.Files++
	if r.SinkErr != nil {
		s.SinkErrors++
	}
	if !r.OK() {
		s.Failed[r.Label()]++
		return
	}
	s.Decoded++
	if r.Deal.Claimed() {
		s.Claimed++
	}
	if r.Deal.PassedOut() {
		s.PassedOut++
	}
	s.Contracts[r.Deal.Contract().String()]++
}

// FailedTotal is the number of files that did not decode.
func (s Summary) FailedTotal() int { return s.Files - s.Decoded }

// DecodeRate is the decoded share of files.
func (s Summary) DecodeRate() float64 {
	if s.Files == 0 {
		return 0
	}
	return float64(s.Decoded) / float64(s.Files)
}

// DecodeRateCI95 is the Wilson score interval of the decode rate.
func (s Summary) DecodeRateCI95() (low, hi float64) {
	return WilsonCI95(s.Decoded, s.Files)
}

// WilsonCI95 for a Bernoulli rate of successes out of total.
func WilsonCI95(successes, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := float64(successes) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// Write prints the summary followed by one line per failed file.
func (s Summary) Write(w io.Writer, results []Result) error {
	lo, hi := s.DecodeRateCI95()
	var b strings.Builder
	fmt.Fprintf(&b, "files: %d decoded: %d (%.1f%%, 95%% CI %.1f-%.1f%%) claimed: %d passed out: %d\n",
		s.Files, s.Decoded, 100*s.DecodeRate(), 100*lo, 100*hi, s.Claimed, s.PassedOut)
	for _, label := range sortedKeys(s.Failed) {
		fmt.Fprintf(&b, "  %-16s %d\n", label, s.Failed[label])
	}
	if s.SinkErrors > 0 {
		fmt.Fprintf(&b, "  sink errors      %d\n", s.SinkErrors)
	}
	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(&b, "%s: %v\n", r.File, r.Err)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
