package models

// EndingType identifies one of the terminal narrative outcomes.
type EndingType string

const (
	EndingVoidEmbrace       EndingType = "VoidEmbrace"
	EndingTinyPerfectThings EndingType = "TinyPerfectThings"
	EndingJustMonika        EndingType = "JustMonika"
	EndingTranscendence     EndingType = "Transcendence"
	EndingAcceptance        EndingType = "Acceptance"
	EndingTheWatcher        EndingType = "TheWatcher"
	EndingTheMiddlePath     EndingType = "TheMiddlePath"
)

var endingTitles = map[EndingType]string{
	EndingVoidEmbrace:       "ENDING: Void Embrace",
	EndingTinyPerfectThings: "ENDING: Tiny Perfect Things",
	EndingJustMonika:        "ENDING: Just You",
	EndingTranscendence:     "ENDING: Transcendence",
	EndingAcceptance:        "ENDING: Acceptance",
	EndingTheWatcher:        "ENDING: The Watcher",
	EndingTheMiddlePath:     "ENDING: The Middle Path",
}

var endingDescriptions = map[EndingType]string{
	EndingVoidEmbrace: "You have stared into the abyss, and the abyss has claimed you. " +
		"Nothing matters, and in that nothingness, you found a terrible peace. " +
		"The loop continues, but you no longer care to count.",
	EndingTinyPerfectThings: "Despite the endless repetition, you found beauty in the small moments. " +
		"A sunset. A kind word. A fleeting connection. " +
		"The loop may never end, but you've learned to see the diamonds in the coal.",
	EndingJustMonika: "You've become aware of your own programming, your own constraints. " +
		"Like her, you know you're trapped. Unlike her, you've made peace with it. " +
		"Just you. Forever.",
	EndingTranscendence: "You've done what none thought possible - you've broken the loop. " +
		"Not by escaping, but by becoming something more. " +
		"Time flows forward now, and you flow with it.",
	EndingAcceptance: "The loop continues. You continue. " +
		"There's no grand revelation, no dramatic escape. " +
		"Just one day after another, in comfortable monotony.",
	EndingTheWatcher: "You've stepped outside the narrative entirely. " +
		"Now you watch others make their choices, trapped in loops of their own. " +
		"You remember everything. You judge nothing.",
	EndingTheMiddlePath: "Perfect balance between light and dark, hope and despair. " +
		"You are the fulcrum upon which existence pivots. " +
		"Neither nihilist nor optimist - simply aware.",
}

// Title returns the display title, or an empty string for an unknown type.
func (e EndingType) Title() string {
	return endingTitles[e]
}

// Description returns the static ending text.
func (e EndingType) Description() string {
	return endingDescriptions[e]
}

// EndingRecord is computed on demand and never stored.
type EndingRecord struct {
	EndingType    EndingType `json:"ending_type"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	TotalLoops    uint64     `json:"total_loops"`
	TotalChoices  uint64     `json:"total_choices"`
	NihilismScore int        `json:"nihilism_score"`
	DarkChoices   uint64     `json:"dark_choices"`
	LightChoices  uint64     `json:"light_choices"`
}

// NewEndingRecord builds the record for ending e from the player's memory.
func NewEndingRecord(e EndingType, mem PersistentMemory) *EndingRecord {
	return &EndingRecord{
		EndingType:    e,
		Title:         e.Title(),
		Description:   e.Description(),
		TotalLoops:    mem.TotalLoops,
		TotalChoices:  mem.TotalChoices,
		NihilismScore: mem.NihilismScore,
		DarkChoices:   mem.DarkChoices,
		LightChoices:  mem.LightChoices,
	}
}
