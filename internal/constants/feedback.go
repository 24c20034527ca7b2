package constants

// Onboarding questionnaire bounds:
//   - mood is a 1..4 scale (low, okay, good, great)
//   - lifestyle scores are 0..10; higher is better except for stress
const (
	MinMoodScore      = 1
	MaxMoodScore      = 4
	MinLifestyleScore = 0
	MaxLifestyleScore = 10
)

// Onboarding progress steps. Progress only moves forward.
const (
	OnboardingStepStarted    = 0
	OnboardingStepAnswers    = 3
	OnboardingStepReflection = 4
	OnboardingStepGoals      = 5
	OnboardingStepComplete   = 6
)

// Frequency answers the two assessment questions
type Frequency string

const (
	FrequencyNever          Frequency = "never"
	FrequencySeveralDays    Frequency = "several_days"
	FrequencyMoreThanHalf   Frequency = "more_than_half_days"
	FrequencyNearlyEveryDay Frequency = "nearly_every_day"
)

type FocusArea string

const (
	FocusReduceStress       FocusArea = "reduce_stress"
	FocusImproveSleep       FocusArea = "improve_sleep"
	FocusBoostEnergy        FocusArea = "boost_energy"
	FocusBuildHealthyHabits FocusArea = "build_healthy_habits"
)

// ActionType is the kind of practice a feedback response recommends
type ActionType string

const (
	ActionMeditation  ActionType = "meditation"
	ActionJournaling  ActionType = "journaling"
	ActionBreathing   ActionType = "breathing"
	ActionMovement    ActionType = "movement"
	ActionReflection  ActionType = "reflection"
	ActionMindfulness ActionType = "mindfulness"
)

var (
	Frequencies = []Frequency{FrequencyNever, FrequencySeveralDays, FrequencyMoreThanHalf, FrequencyNearlyEveryDay}
	FocusAreas  = []FocusArea{FocusReduceStress, FocusImproveSleep, FocusBoostEnergy, FocusBuildHealthyHabits}
	ActionTypes = []ActionType{ActionMeditation, ActionJournaling, ActionBreathing, ActionMovement, ActionReflection, ActionMindfulness}
)

// MoodLabels names each mood score, indexed by score
var MoodLabels = [...]string{"", "Low", "Okay", "Good", "Great"}

func init() {
	if len(MoodLabels) != MaxMoodScore+1 {
		panic("MoodLabels must cover every mood score")
	}
}

func (f Frequency) Valid() bool {
	for _, v := range Frequencies {
		if v == f {
			return true
		}
	}
	return false
}

func (a FocusArea) Valid() bool {
	for _, v := range FocusAreas {
		if v == a {
			return true
		}
	}
	return false
}

func (a ActionType) Valid() bool {
	for _, v := range ActionTypes {
		if v == a {
			return true
		}
	}
	return false
}
