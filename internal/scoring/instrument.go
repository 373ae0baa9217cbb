package scoring

// DefaultQuestions is the built-in screening instrument: six developmental
// domains, three questions each, one optional per domain. Values are
// expected on a 0-100 concern scale.
func DefaultQuestions() []Question {
	domains := []string{"communication", "gross_motor", "fine_motor", "problem_solving", "personal_social", "adaptive"}
	questions := make([]Question, 0, len(domains)*3)
	for _, d := range domains {
		questions = append(questions,
			Question{ID: d + "_1", Category: d, Required: true},
			Question{ID: d + "_2", Category: d, Required: true},
			Question{ID: d + "_3", Category: d, Required: false},
		)
	}
	return questions
}

// DefaultCategoryWeights weighs communication and problem solving slightly
// higher, following the screening instrument's published weighting.
func DefaultCategoryWeights() map[string]float64 {
	return map[string]float64{
		"communication":   1.5,
		"gross_motor":     1.0,
		"fine_motor":      1.0,
		"problem_solving": 1.5,
		"personal_social": 1.0,
		"adaptive":        0.5,
	}
}
