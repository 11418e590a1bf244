package resume

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Record is a parsed resume document. The schema is open: chunking reads the
// fields it knows and ignores the rest. Object iteration follows the source
// document's key order.
type Record struct {
	doc gjson.Result
}

// Parse validates data as a JSON object and wraps it.
func Parse(data []byte) (Record, error) {
	if !gjson.ValidBytes(data) {
		return Record{}, fmt.Errorf("resume is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Record{}, fmt.Errorf("resume must be a JSON object, got %s", doc.Type)
	}
	return Record{doc: doc}, nil
}

// Get returns the value at a gjson path.
func (r Record) Get(path string) gjson.Result {
	return r.doc.Get(path)
}

// QA is one curated question/answer pair.
type QA struct {
	Question string
	Answer   string
}

// FAQ is an ordered list of curated pairs. The zero value is an absent FAQ.
type FAQ struct {
	Pairs []QA
}

// ParseFAQ reads `{"qa": [{"question": ..., "answer": ...}]}`. Missing
// fields read as empty strings; the chunker decides what to keep.
func ParseFAQ(data []byte) (FAQ, error) {
	if !gjson.ValidBytes(data) {
		return FAQ{}, fmt.Errorf("faq is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return FAQ{}, fmt.Errorf("faq must be a JSON object, got %s", doc.Type)
	}

	var faq FAQ
	doc.Get("qa").ForEach(func(_, item gjson.Result) bool {
		faq.Pairs = append(faq.Pairs, QA{
			Question: item.Get("question").String(),
			Answer:   item.Get("answer").String(),
		})
		return true
	})
	return faq, nil
}
