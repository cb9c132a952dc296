package models

import "strconv"

// Grade is one exam result embedded in the student document. Scores stay as
// the store delivered them (strings, possibly non-numeric).
type Grade struct {
	ExamName string            `json:"exam_name"`
	Date     string            `json:"date"`
	Subjects map[string]string `json:"subjects"`
}

// Average computes the mean over the numerically parseable scores. The second
// return is false when no subject parses. Non-numeric entries are excluded
// from the average but remain present in Subjects for display.
func (g Grade) Average() (float64, bool) {
	var sum float64
	var count int
	for _, raw := range g.Subjects {
		if score, err := strconv.ParseFloat(raw, 64); err == nil {
			sum += score
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
