package domain

// Comment is one ledger row: a single harvested comment together with the
// post and community context it was found in. CommentID is globally unique
// and stable across runs.
type Comment struct {
	CommentID    string
	PostID       string
	Community    string
	Author       string
	PostScore    int
	CommentScore int
	RawText      string
}

// DeletedAuthor is stored when a comment's author account is gone.
const DeletedAuthor = "[deleted_user]"

// Placeholder bodies the source substitutes for deleted or moderated
// comments. Rows carrying them are never worth classifying.
const (
	DeletedBody = "[deleted]"
	RemovedBody = "[removed]"
)

// NoCategory marks the absence of a product mention or pain point in a
// classification record.
const NoCategory = "N/A"

// TriageCandidate is a ledger row that survived the triage funnel.
// Normalized holds the keyword-matching form of the text and is never
// persisted anywhere.
type TriageCandidate struct {
	Comment
	Normalized string
}

// Classification is one record of the model's structured response.
type Classification struct {
	CommentID        string `json:"Comment_ID"`
	ProductMentioned string `json:"product_mentioned"`
	Sentiment        string `json:"sentiment"`
	PainPoint        string `json:"pain_point"`
}

// AnalyzedComment is one row of the final analyst table: a classification
// joined back onto the metadata of the candidate it was produced from.
// Matched is false when the classifier returned an id the triage set does
// not contain; the metadata fields are then meaningless and rendered empty.
type AnalyzedComment struct {
	Classification
	Matched      bool
	Community    string
	Author       string
	PostScore    int
	CommentScore int
	RawText      string
}
