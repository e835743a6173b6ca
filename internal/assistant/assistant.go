// Package assistant answers chat messages from a fixed keyword table.
package assistant

import "strings"

const Greeting = "Hello! I'm your medication assistant. How can I help you today?"

type rule struct {
	keywords []string
	reply    string
}

// rules are checked in order; the first rule with a keyword contained in
// the lower-cased message wins.
var rules = []rule{
	{
		keywords: []string{"hello", "hi"},
		reply:    "Hello! How are you feeling today?",
	},
	{
		keywords: []string{"medication", "medicine"},
		reply:    "I can help you manage your medications. You can ask about reminders, dosages, or potential side effects.",
	},
	{
		keywords: []string{"reminder", "remind"},
		reply:    "I can remind you to take your medications. Would you like me to set up a reminder for you?",
	},
	{
		keywords: []string{"side effect", "side-effect"},
		reply:    "If you're experiencing side effects, it's important to consult with your doctor. Would you like me to provide general information about common side effects?",
	},
	{
		keywords: []string{"thank"},
		reply:    "You're welcome! I'm here to help with your medication management needs.",
	},
}

const fallback = "I'm still learning about medications. For specific medical advice, please consult with your healthcare provider. Is there something else I can help you with?"

// Reply returns the canned answer for message.
func Reply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(lower, keyword) {
				return r.reply
			}
		}
	}
	return fallback
}
