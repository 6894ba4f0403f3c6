package chat

import "strings"

// symptomRule drives the rule-based health assistant. Matching is keyword
// based; severity runs 1 (self-care) to 5 (call emergency services).
type symptomRule struct {
	name      string
	keywords  []string
	severity  int
	specialty string
	advice    string
	redFlags  []string
}

var symptomRules = []symptomRule{
	{
		name:      "chest_pain",
		keywords:  []string{"chest pain", "chest tightness", "pressure in my chest", "heart pain"},
		severity:  5,
		specialty: "cardiology",
		advice: "Chest pain can be serious. If the pain is severe, spreads to your arm or jaw, " +
			"or comes with sweating or nausea, call emergency services now. Otherwise book an " +
			"urgent appointment with a cardiologist.",
		redFlags: []string{"radiating pain", "shortness of breath", "sweating", "nausea"},
	},
	{
		name:      "breathing_difficulty",
		keywords:  []string{"can't breathe", "cannot breathe", "short of breath", "breathing difficulty", "wheezing"},
		severity:  5,
		specialty: "pulmonology",
		advice: "Difficulty breathing needs prompt attention. If it is sudden or severe, use the " +
			"emergency connect option or call emergency services. For recurring wheezing, see a " +
			"pulmonologist.",
		redFlags: []string{"blue lips", "sudden onset", "chest pain"},
	},
	{
		name:      "fever",
		keywords:  []string{"fever", "high temperature", "chills"},
		severity:  2,
		specialty: "general medicine",
		advice: "Rest, stay hydrated and monitor your temperature. If the fever stays above " +
			"39°C for more than two days or you develop a rash or stiff neck, book an " +
			"appointment with a general physician.",
		redFlags: []string{"stiff neck", "rash", "confusion"},
	},
	{
		name:      "headache",
		keywords:  []string{"headache", "migraine", "head hurts"},
		severity:  2,
		specialty: "neurology",
		advice: "Most headaches pass with rest and hydration. If it is the worst headache of your " +
			"life, started suddenly, or comes with vision changes, seek urgent care. Recurring " +
			"migraines are worth discussing with a neurologist.",
		redFlags: []string{"sudden onset", "vision changes", "weakness"},
	},
	{
		name:      "cough",
		keywords:  []string{"cough", "coughing", "sore throat"},
		severity:  1,
		specialty: "general medicine",
		advice: "A cough usually clears within two weeks. Warm fluids help. If it lasts longer, " +
			"brings up blood, or comes with fever and breathlessness, book a check-up.",
		redFlags: []string{"coughing blood", "lasting over 3 weeks"},
	},
	{
		name:      "stomach_pain",
		keywords:  []string{"stomach pain", "abdominal pain", "stomach ache", "nausea", "vomiting"},
		severity:  2,
		specialty: "gastroenterology",
		advice: "Mild stomach upsets settle with bland food and fluids. Severe localized pain, " +
			"persistent vomiting or blood are reasons to see a gastroenterologist quickly.",
		redFlags: []string{"blood in vomit", "severe localized pain", "persistent vomiting"},
	},
}

// matchSymptoms returns every rule whose keywords appear in the message.
func matchSymptoms(message string) []symptomRule {
	lowered := strings.ToLower(message)
	var matched []symptomRule
	for _, rule := range symptomRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				matched = append(matched, rule)
				break
			}
		}
	}
	return matched
}
