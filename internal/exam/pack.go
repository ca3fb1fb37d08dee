package exam

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhisek/prepzone/internal/attempt"
)

//go:embed packs/*.json
var builtinPacks embed.FS

// Pack is an authored test: sections of questions with an answer key.
type Pack struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	Sections        []PackSection `json:"sections"`
}

// PackSection groups questions under a heading.
type PackSection struct {
	Name      string         `json:"name"`
	Questions []PackQuestion `json:"questions"`
}

// PackQuestion is a question together with its answer key.
type PackQuestion struct {
	ID            string               `json:"id"`
	Type          attempt.QuestionType `json:"type"`
	Text          string               `json:"text"`
	Options       []attempt.Option     `json:"options,omitempty"`
	Marks         float64              `json:"marks"`
	NegativeMarks float64              `json:"negative_marks"`
	Correct       []string             `json:"correct,omitempty"`
	CorrectValue  *float64             `json:"correct_value,omitempty"`
	Tolerance     float64              `json:"tolerance,omitempty"`
}

// ParsePack validates raw against the pack schema, decodes it and checks
// cross-field rules the schema cannot express. source names the pack in
// errors.
func ParsePack(source string, raw []byte) (*Pack, error) {
	if err := validatePack(raw); err != nil {
		return nil, &ErrInvalidPack{Source: source, Err: err}
	}

	var p Pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ErrInvalidPack{Source: source, Err: err}
	}
	if err := p.check(); err != nil {
		return nil, &ErrInvalidPack{Source: source, Err: err}
	}
	return &p, nil
}

func (p *Pack) check() error {
	seen := make(map[string]bool)
	for _, sec := range p.Sections {
		for _, q := range sec.Questions {
			if seen[q.ID] {
				return fmt.Errorf("duplicate question id %q", q.ID)
			}
			seen[q.ID] = true

			if !q.Type.IsChoice() {
				continue
			}
			if q.Type == attempt.TypeSingleChoice && len(q.Correct) != 1 {
				return fmt.Errorf("question %q: single choice needs exactly one correct option", q.ID)
			}
			ids := make(map[string]bool, len(q.Options))
			for _, o := range q.Options {
				ids[o.ID] = true
			}
			for _, c := range q.Correct {
				if !ids[c] {
					return fmt.Errorf("question %q: correct option %q is not an option", q.ID, c)
				}
			}
		}
	}
	return nil
}

// Questions flattens sections into navigation order with 1-based
// positions.
func (p *Pack) Questions() []attempt.Question {
	var out []attempt.Question
	for _, sec := range p.Sections {
		for _, q := range sec.Questions {
			out = append(out, attempt.Question{
				ID:            q.ID,
				Position:      len(out) + 1,
				Type:          q.Type,
				Text:          q.Text,
				Options:       q.Options,
				Marks:         q.Marks,
				NegativeMarks: q.NegativeMarks,
				Section:       sec.Name,
			})
		}
	}
	return out
}

// Info summarizes the pack for the catalog.
func (p *Pack) Info() TestInfo {
	info := TestInfo{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		DurationMinutes: p.DurationMinutes,
	}
	for _, sec := range p.Sections {
		info.Sections = append(info.Sections, sec.Name)
		for _, q := range sec.Questions {
			info.QuestionCount++
			info.TotalMarks += q.Marks
		}
	}
	return info
}

func (p *Pack) question(id string) (PackQuestion, bool) {
	for _, sec := range p.Sections {
		for _, q := range sec.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return PackQuestion{}, false
}

// LoadBuiltinPacks returns the packs compiled into the binary.
func LoadBuiltinPacks() ([]*Pack, error) {
	return loadPacks(builtinPacks, "packs")
}

// LoadPackDir reads every *.json pack in dir. A missing directory yields
// no packs.
func LoadPackDir(dir string) ([]*Pack, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return loadPacks(os.DirFS(dir), ".")
}

func loadPacks(fsys fs.FS, dir string) ([]*Pack, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read pack dir: %w", err)
	}

	var packs []*Pack
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		name := e.Name()
		if dir != "." {
			name = dir + "/" + name
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", name, err)
		}
		p, err := ParsePack(name, raw)
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].ID < packs[j].ID })
	return packs, nil
}
