package feedback

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
)

const systemPrompt = `You are a compassionate wellness coach analyzing a user's onboarding responses to provide personalized mental health support.

ANALYSIS GUIDELINES:
- Mood Score: 1=Low, 2=Okay, 3=Good, 4=Great
- Lifestyle scores: 0-10 scale (higher = better for sleep, energy, social; higher = worse for stress)
- Anxiety/Interest Loss: never < several_days < more_than_half_days < nearly_every_day
- Focus areas indicate user priorities

RESPONSE TONE:
- Warm, empathetic and non-judgmental
- Acknowledge their feelings without dismissing them
- Highlight strengths and resilience
- Provide hope and actionable guidance

ACTION TYPE SELECTION:
- meditation: for high stress or anxiety
- journaling: for processing emotions or low interest in activities
- breathing: for immediate anxiety relief
- movement: for low energy or mood improvement
- reflection: for self-awareness and understanding patterns
- mindfulness: for present-moment awareness and general wellness

DAILY SUGGESTION GUIDELINES:
- Must be specific and actionable, including a duration or method
- Must align with the selected action type
- Recommend only the actionable step, never apps or products`

// buildPrompt renders the questionnaire as the user turn
func buildPrompt(a models.OnboardingAnswers) string {
	focus := make([]string, 0, len(a.FocusAreas))
	for _, f := range a.FocusAreas {
		focus = append(focus, string(f))
	}
	focusLine := strings.Join(focus, ", ")
	if focusLine == "" {
		focusLine = "None selected"
	}

	var b strings.Builder
	b.WriteString("Analyze this user's onboarding data and provide personalized wellness feedback:\n\n")
	fmt.Fprintf(&b, "MOOD: %d/%d (%s)\n\n", a.MoodScore, constants.MaxMoodScore, a.MoodLabel())
	b.WriteString("LIFESTYLE:\n")
	fmt.Fprintf(&b, "- Sleep Quality: %d/10\n", a.Lifestyle.SleepQuality)
	fmt.Fprintf(&b, "- Energy Level: %d/10\n", a.Lifestyle.EnergyLevel)
	fmt.Fprintf(&b, "- Stress Level: %d/10\n", a.Lifestyle.StressLevel)
	fmt.Fprintf(&b, "- Social Connection: %d/10\n\n", a.Lifestyle.SocialConnection)
	b.WriteString("MENTAL HEALTH:\n")
	fmt.Fprintf(&b, "- Anxiety Frequency: %s\n", a.Assessment.AnxietyFrequency)
	fmt.Fprintf(&b, "- Interest Loss Frequency: %s\n\n", a.Assessment.InterestLossFrequency)
	fmt.Fprintf(&b, "FOCUS AREAS: %s\n\n", focusLine)
	b.WriteString("Provide encouraging, personalized feedback with a specific actionable suggestion.")
	return b.String()
}

// responseSchema constrains the model to the Feedback shape
func responseSchema() *genai.Schema {
	actions := make([]string, len(constants.ActionTypes))
	for i, a := range constants.ActionTypes {
		actions[i] = string(a)
	}
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"personalized_greeting": str("A warm, empathetic greeting that acknowledges the user's current state"),
			"strength_highlight":    str("A positive observation about the user's resilience or strengths"),
			"daily_suggestion":      str("A specific, actionable suggestion for today that relates to the action_type"),
			"full_response":         str("A supportive message that ties everything together"),
			"action_type": {
				Type:        genai.TypeString,
				Enum:        actions,
				Description: "The type of action recommended based on their needs",
			},
		},
		Required: []string{"personalized_greeting", "strength_highlight", "daily_suggestion", "full_response", "action_type"},
	}
}
