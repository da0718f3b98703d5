package main

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	tagPool  = []string{"grace", "faith", "hope", "parables", "prayer", "psalms", "advent", "lent"}
	bookPool = []string{"Genesis", "Psalm", "Isaiah", "Matthew", "Luke", "John", "Romans", "Ephesians"}
)

// notePayload is the POST /notes body.
type notePayload struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Preacher      string   `json:"preacher,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ScriptureRefs []string `json:"scripture_refs,omitempty"`
}

func pick(f *gofakeit.Faker, pool []string, n int) []string {
	out := make([]string, 0, n)
	seen := map[string]bool{}
	for len(out) < n {
		v := pool[f.Number(0, len(pool)-1)]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func fakeNote(f *gofakeit.Faker) notePayload {
	refs := make([]string, f.Number(0, 2))
	for i := range refs {
		refs[i] = fmt.Sprintf("%s %d:%d", bookPool[f.Number(0, len(bookPool)-1)], f.Number(1, 50), f.Number(1, 30))
	}
	return notePayload{
		Title:         f.Sentence(f.Number(2, 6)),
		Content:       f.Paragraph(1, 3, 40, " "),
		Preacher:      f.Name(),
		Tags:          pick(f, tagPool, f.Number(0, 3)),
		ScriptureRefs: refs,
	}
}

// fakeSchedule lands between one hour and thirty days after now, on the minute.
func fakeSchedule(f *gofakeit.Faker, now time.Time) time.Time {
	offset := time.Duration(f.Number(60, 30*24*60)) * time.Minute
	return now.Add(offset).Truncate(time.Minute)
}
