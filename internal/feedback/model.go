// Package feedback holds the structured evaluation returned for a resume and
// the extractor that recovers it from free-form model output.
package feedback

import (
	"encoding/json"
	"fmt"
)

// Tip labels.
const (
	TipGood    = "good"
	TipImprove = "improve"
)

// Tip is one suggestion within a section.
type Tip struct {
	Type        string `json:"type"`
	Tip         string `json:"tip"`
	Explanation string `json:"explanation,omitempty"`
}

// Category is a scored feedback section.
type Category struct {
	Score float64 `json:"score"`
	Tips  []Tip   `json:"tips"`
}

// ATS is the applicant-tracking-system section. Models sometimes emit its tips
// as bare strings, so decoding accepts either form.
type ATS struct {
	Score float64 `json:"score"`
	Tips  []Tip   `json:"tips"`
}

// Result is a complete evaluation of one resume.
type Result struct {
	OverallScore float64  `json:"overallScore"`
	ATS          ATS      `json:"ATS"`
	ToneAndStyle Category `json:"toneAndStyle"`
	Content      Category `json:"content"`
	Structure    Category `json:"structure"`
	Skills       Category `json:"skills"`
}

func (a *ATS) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score float64           `json:"score"`
		Tips  []json.RawMessage `json:"tips"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Score = raw.Score
	if raw.Tips == nil {
		a.Tips = nil
		return nil
	}
	a.Tips = make([]Tip, 0, len(raw.Tips))
	for i, item := range raw.Tips {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			a.Tips = append(a.Tips, Tip{Tip: text})
			continue
		}
		var tip Tip
		if err := json.Unmarshal(item, &tip); err != nil {
			return fmt.Errorf("ATS tip %d: %w", i, err)
		}
		a.Tips = append(a.Tips, tip)
	}
	return nil
}
