package records

import (
	"time"
)

// Mood is the viewer's mood of the day.
type Mood string

const (
	MoodHappy Mood = "happy"
	MoodOkay  Mood = "okay"
	MoodSad   Mood = "sad"
)

// GoalKind separates daily goals from weekly ones.
type GoalKind string

const (
	GoalDaily  GoalKind = "daily"
	GoalWeekly GoalKind = "weekly"
)

// ManualCategory is the section of the instruction manual an entry belongs to.
type ManualCategory string

const (
	CategoryPleasure ManualCategory = "pleasure"
	CategorySadness  ManualCategory = "sadness"
	CategoryAnger    ManualCategory = "anger"
	CategoryHelp     ManualCategory = "help"
	CategoryOther    ManualCategory = "other"
)

// ManualCategories lists the categories in display order.
var ManualCategories = []ManualCategory{
	CategoryPleasure,
	CategorySadness,
	CategoryAnger,
	CategoryHelp,
	CategoryOther,
}

// AccountRecord is the single persisted document holding one account's state.
type AccountRecord struct {
	ID          string `json:"id"`
	PartnerLink string `json:"partner_link"`
	Mood        Mood   `json:"mood"`

	// Private collections, never shown to a partner.
	Goals       []Goal       `json:"goals"`
	Habits      []Habit      `json:"habits"`
	Reflections []Reflection `json:"reflections"`
	Values      []Value      `json:"values"`

	// Shared collections, merged with the partner's for display.
	AngerLogs     []AngerLog     `json:"anger_logs"`
	Memos         []Memo         `json:"memos"`
	Wishes        []Wish         `json:"wishes"`
	Appreciations []Appreciation `json:"appreciations"`
	Manual        []ManualEntry  `json:"manual"`
	DatePlans     []DatePlan     `json:"date_plans"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Goal struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Kind GoalKind `json:"kind"`
	Done bool     `json:"done"`
}

type Habit struct {
	ID           string `json:"id"`
	HabitText    string `json:"habit_text"`
	Trigger      string `json:"trigger"`
	IdealAction  string `json:"ideal_action"`
	SuccessCount int    `json:"success_count"`
}

// Reflection is a weekly journal entry answering five fixed prompts.
type Reflection struct {
	ID         string `json:"id"`
	WeekEnding string `json:"week_ending"`
	Gratitude  string `json:"gratitude"`
	Challenge  string `json:"challenge"`
	Learning   string `json:"learning"`
	Praise     string `json:"praise"`
	NextAction string `json:"next_action"`
}

type Value struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Rationale string `json:"rationale"`
}

// AngerLog records one cool-down episode.
type AngerLog struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Situation       string    `json:"situation"`
	Intensity       int       `json:"intensity"`
	Trigger         string    `json:"trigger"`
	PlannedResponse string    `json:"planned_response"`
}

type Memo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Wish struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Planned   bool      `json:"planned"`
}

type Appreciation struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ManualEntry struct {
	ID       string         `json:"id"`
	Category ManualCategory `json:"category"`
	Content  string         `json:"content"`
}

// DatePlan is a planned outing. Date is a calendar date in YYYY-MM-DD form.
type DatePlan struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
	AuthorID    string `json:"author_id"`
}
