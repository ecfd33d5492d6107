package preprocess

// defaultStopwords holds common English function words excluded from the
// similarity signal. It is read-only after package initialization.
var defaultStopwords = []string{
	// articles and determiners
	"a", "an", "the", "this", "that", "these", "those", "all", "any", "both",
	"each", "few", "more", "most", "other", "some", "such", "own", "same",

	// conjunctions
	"and", "or", "but", "nor", "so", "than", "as", "if", "because", "until",
	"while",

	// prepositions
	"in", "on", "at", "to", "for", "with", "by", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below", "from",
	"up", "down", "of", "off", "over", "under",

	// adverbs
	"again", "further", "then", "once", "here", "there", "when", "where",
	"why", "how", "no", "not", "only", "too", "very",

	// pronouns
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"your", "yours", "yourself", "yourselves", "he", "him", "his", "himself",
	"she", "her", "hers", "herself", "it", "its", "itself", "they", "them",
	"their", "theirs", "themselves", "what", "which", "who", "whom",

	// auxiliary and modal verbs
	"is", "are", "was", "were", "be", "been", "being", "am", "have", "has",
	"had", "having", "do", "does", "did", "doing", "would", "should", "could",
	"ought", "will", "shall", "can", "may", "might", "must",
}

// DefaultStopwords returns a copy of the built-in stopword list.
func DefaultStopwords() []string {
	words := make([]string, len(defaultStopwords))
	copy(words, defaultStopwords)
	return words
}
