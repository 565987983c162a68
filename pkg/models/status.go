package models

// DocumentStatus represents the processing state of a document in the store
type DocumentStatus string

const (
	DocStatusUnset    DocumentStatus = ""         // Zero value = unset/unknown
	DocStatusPending  DocumentStatus = "pending"  // Stored but content not extracted yet
	DocStatusReady    DocumentStatus = "ready"    // Content available for study
	DocStatusAdapting DocumentStatus = "adapting" // Level adaptation in progress
	DocStatusFailed   DocumentStatus = "failed"   // Import or adaptation failed
)

// String implements fmt.Stringer for logging
func (s DocumentStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocStatusPending, DocStatusReady, DocStatusAdapting, DocStatusFailed:
		return true
	}
	return false
}

// ProficiencyLevel is a CEFR proficiency level a document can be adapted to
type ProficiencyLevel string

const (
	LevelA1 ProficiencyLevel = "A1"
	LevelA2 ProficiencyLevel = "A2"
	LevelB1 ProficiencyLevel = "B1"
	LevelB2 ProficiencyLevel = "B2"
	LevelC1 ProficiencyLevel = "C1"
	LevelC2 ProficiencyLevel = "C2"
)

// String implements fmt.Stringer
func (l ProficiencyLevel) String() string { return string(l) }

// IsValid returns true if l is one of the six CEFR levels
func (l ProficiencyLevel) IsValid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}

// Describe returns a short learner-facing description of the level,
// used when prompting the adaptation model
func (l ProficiencyLevel) Describe() string {
	switch l {
	case LevelA1:
		return "absolute beginner: very short sentences, only the most common words"
	case LevelA2:
		return "elementary: simple sentences, everyday vocabulary"
	case LevelB1:
		return "intermediate: connected text, common idioms explained"
	case LevelB2:
		return "upper intermediate: natural text, uncommon words simplified"
	case LevelC1:
		return "advanced: near-native text, only rare or technical terms simplified"
	case LevelC2:
		return "mastery: original text untouched except formatting"
	}
	return "unknown level"
}
