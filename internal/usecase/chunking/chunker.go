// Package chunking flattens a resume record and an FAQ into retrievable
// passages. Output is deterministic: the same input always yields the same
// chunks in the same order.
package chunking

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/domain/resume"
)

var summaryKeys = []string{"technical_skills_experience", "key_strengths", "hobbies"}

// Chunk converts the record and FAQ into chunks in source order: profile,
// summary, technical, education, experience, training, then FAQ pairs.
// Empty or missing optional fields produce no chunk.
func Chunk(rec resume.Record, faq resume.FAQ) []chunk.Chunk {
	var b builder

	if p := rec.Get("profile"); p.IsObject() && len(p.Map()) > 0 {
		b.add(chunk.Profile, "Profile: "+p.Get("name").String()+
			". Address: "+p.Get("address").String()+
			". Email: "+p.Get("email").String()+
			". Phone: "+p.Get("phone").String()+
			". LinkedIn: "+p.Get("linkedin").String()+".")
	}

	s := rec.Get("summary")
	for _, key := range summaryKeys {
		if v := s.Get(key); truthy(v) {
			b.add(chunk.Summary, "Summary "+key+": "+strings.Join(items(v), " "))
		}
	}
	if v := s.Get("next_great_challenge"); truthy(v) {
		b.add(chunk.Summary, "Next great challenge: "+v.String())
	}

	rec.Get("technical_summary").ForEach(func(category, v gjson.Result) bool {
		if truthy(v) {
			b.add(chunk.Technical, "Technical "+category.String()+": "+strings.Join(items(v), " "))
		}
		return true
	})

	rec.Get("education").ForEach(func(_, ed gjson.Result) bool {
		detail := ed.Get("gpa")
		if !truthy(detail) {
			detail = ed.Get("notes")
		}
		b.add(chunk.Education, "Education: "+ed.Get("degree").String()+
			" at "+ed.Get("school").String()+
			", "+ed.Get("date").String()+
			". "+detail.String()+".")
		return true
	})

	rec.Get("professional_experience").ForEach(func(_, job gjson.Result) bool {
		b.addExperience(experienceText(job), job.Get("company").String())
		return true
	})

	if v := rec.Get("additional_training_education"); truthy(v) {
		b.add(chunk.Training, "Additional training: "+strings.Join(items(v), "; "))
	}

	for _, qa := range faq.Pairs {
		q, a := strings.TrimSpace(qa.Question), strings.TrimSpace(qa.Answer)
		if q == "" || a == "" {
			continue
		}
		b.add(chunk.FAQ, "Question: "+q+"\nAnswer: "+a)
	}

	return b.chunks
}

func experienceText(job gjson.Result) string {
	role := job.Get("role")
	if !role.Exists() || role.Type == gjson.Null {
		role = job.Get("title")
	}

	parts := []string{"Company: " + job.Get("company").String() +
		". Role: " + role.String() +
		". Date: " + job.Get("date").String() + "."}
	if v := job.Get("tech"); truthy(v) {
		parts = append(parts, "Tech: "+strings.Join(items(v), ", "))
	}
	if v := job.Get("tasks"); truthy(v) {
		parts = append(parts, "Tasks: "+strings.Join(items(v), " "))
	}
	job.Get("projects").ForEach(func(_, proj gjson.Result) bool {
		parts = append(parts, "Project "+proj.Get("name").String()+": "+proj.Get("description").String())
		return true
	})
	return strings.Join(parts, " ")
}

// truthy reports whether v is present and non-empty.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	}
	return true
}

// items returns array elements as strings; a scalar counts as one item.
func items(v gjson.Result) []string {
	if !v.IsArray() {
		return []string{v.String()}
	}
	arr := v.Array()
	out := make([]string, len(arr))
	for i, it := range arr {
		out[i] = it.String()
	}
	return out
}

type builder struct {
	chunks []chunk.Chunk
}

// add drops text that fails chunk validation; formatted texts always carry a
// label prefix, so nothing is lost in practice.
func (b *builder) add(cat chunk.Category, text string) {
	if c, err := chunk.New(text, cat); err == nil {
		b.chunks = append(b.chunks, c)
	}
}

func (b *builder) addExperience(text, company string) {
	if c, err := chunk.NewExperience(text, company); err == nil {
		b.chunks = append(b.chunks, c)
	}
}
