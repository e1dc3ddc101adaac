package services

import (
	"fmt"
	"regexp"
	"strings"
)

var optionSplitRe = regexp.MustCompile(`[A-D]\)`)

// ParseQuestions extracts questions from a line-oriented document blob.
//
// The grammar is keyword-prefixed and case-insensitive:
//
//	Category: <coding|math|aptitude|communication>
//	Question: <text>
//	A) <opt> B) <opt> C) <opt> D) <opt>
//	Answer: <text>
//
// A Category line sets the current category for every following question
// until overwritten; questions seen before any Category line default to
// aptitude. A Question line consumes the next line as options and the one
// after as the answer; when the answer line is missing the question is
// dropped and scanning resumes at the options line. Answers are stored as
// written and are not checked against the parsed options. When no question
// can be extracted at all, ParseQuestions fails.
func ParseQuestions(raw string) ([]*Question, error) {
	questions := []*Question{}
	currentCategory := Category("")
	lines := strings.Split(raw, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if v, ok := keywordValue(line, "Category:"); ok {
			v = strings.ToLower(v)
			if ValidCategory(v) {
				currentCategory = Category(v)
			}
			continue
		}

		if text, ok := keywordValue(line, "Question:"); ok {
			if i+1 >= len(lines) {
				continue
			}
			optionsLine := strings.TrimSpace(lines[i+1])
			var options []string
			if strings.Contains(optionsLine, ")") {
				for _, opt := range optionSplitRe.Split(optionsLine, -1) {
					opt = strings.TrimSpace(opt)
					if opt != "" {
						options = append(options, opt)
					}
				}
			}
			if i+2 < len(lines) {
				if answer, ok := keywordValue(strings.TrimSpace(lines[i+2]), "Answer:"); ok {
					cat := currentCategory
					if cat == "" {
						cat = CategoryAptitude
					}
					questions = append(questions, &Question{
						ID:       fmt.Sprintf("q-%d", len(questions)+1),
						Text:     text,
						Options:  options,
						Answer:   answer,
						Category: cat,
					})
					i += 2
				}
			}
		}
	}

	if len(questions) == 0 {
		return nil, NewInvalidError("no valid questions found in the file, please check the format")
	}
	return questions, nil
}

// keywordValue matches a case-insensitive "Keyword:" prefix and returns
// the trimmed remainder of the line.
func keywordValue(line, keyword string) (string, bool) {
	if len(line) < len(keyword) || !strings.EqualFold(line[:len(keyword)], keyword) {
		return "", false
	}
	return strings.TrimSpace(line[len(keyword):]), true
}
