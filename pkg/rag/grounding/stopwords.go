package grounding

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"of": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

// contradictionPairs are (context term, response term) pairs that hint at a
// contradiction. They are reported, never enforced.
var contradictionPairs = [][2]string{
	{"not", "is"},
	{"never", "always"},
	{"false", "true"},
	{"incorrect", "correct"},
	{"wrong", "right"},
}
