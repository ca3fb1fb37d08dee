package exam

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/abhisek/prepzone/internal/attempt"
)

// Grade scores answers against the pack's answer key. Choice questions need
// the exact option set; numeric answers must fall within the tolerance.
// Wrong answers cost the question's negative marks.
func Grade(p *Pack, answers map[string]attempt.Answer) Result {
	res := Result{TestID: p.ID, Title: p.Title}

	for _, q := range p.Questions() {
		key, _ := p.question(q.ID)
		res.MaxScore += key.Marks

		qr := QuestionResult{
			QuestionID: q.ID,
			Position:   q.Position,
			Section:    q.Section,
			Expected:   key.expected(),
		}

		a, ok := answers[q.ID]
		switch {
		case !ok || a.IsEmpty():
			qr.Outcome = OutcomeUnattempted
			res.Unattempted++
		case key.matches(a):
			qr.Outcome = OutcomeCorrect
			qr.Awarded = key.Marks
			res.Correct++
		default:
			qr.Outcome = OutcomeIncorrect
			qr.Awarded = -key.NegativeMarks
			res.Incorrect++
		}
		if ok {
			qr.Given = a.String()
		}
		res.Score += qr.Awarded
		res.Questions = append(res.Questions, qr)
	}
	return res
}

func (q PackQuestion) matches(a attempt.Answer) bool {
	if q.Type.IsChoice() {
		if len(a.Selected) != len(q.Correct) {
			return false
		}
		want := sortedCopy(q.Correct)
		got := sortedCopy(a.Selected)
		for i := range want {
			if want[i] != got[i] {
				return false
			}
		}
		return true
	}
	if a.Value == nil || q.CorrectValue == nil {
		return false
	}
	return math.Abs(*a.Value-*q.CorrectValue) <= q.Tolerance
}

func (q PackQuestion) expected() string {
	if q.Type.IsChoice() {
		return strings.Join(q.Correct, ",")
	}
	if q.CorrectValue == nil {
		return ""
	}
	return strconv.FormatFloat(*q.CorrectValue, 'f', -1, 64)
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
