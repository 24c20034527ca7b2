package constants

// ActivityKind is the kind of timed practice tracked in daily aggregates
type ActivityKind string

// AchievementType is the stable identifier of an achievement
type AchievementType string

const (
	ActivityMeditation ActivityKind = "meditation"
	ActivityBreathing  ActivityKind = "breathing"

	// MaxSessionMinutes bounds a single credited session
	MaxSessionMinutes = 24 * 60

	// Recent aggregates window
	DefaultRecentDays = 14
	MinRecentDays     = 1
	MaxRecentDays     = 60

	// Journal listing and search
	DefaultJournalLimit = 50
	DefaultSearchLimit  = 200
	MaxJournalLimit     = 200
	DefaultJournalTitle = "New Journal"

	// Journey timeline
	DefaultJourneyDays = 7
	MaxJourneyDays     = 60

	AchievementOnboardingComplete AchievementType = "onboarding_complete"
	AchievementStreak3            AchievementType = "streak_3"
	AchievementStreak7            AchievementType = "streak_7"
	AchievementStreak30           AchievementType = "streak_30"
)

// ActivityKinds lists every valid activity kind
var ActivityKinds = []ActivityKind{ActivityMeditation, ActivityBreathing}

// Spaces are the known journal tag keys. Free-form tags are also accepted.
var Spaces = []string{
	"daily",
	"gratitude",
	"mood",
	"goals",
	"arts",
	"memories",
	"philosophy",
	"connections",
}

// Valid reports whether k is a known activity kind
func (k ActivityKind) Valid() bool {
	for _, v := range ActivityKinds {
		if k == v {
			return true
		}
	}
	return false
}
