package knowledge

import "strings"

const (
	greeting     = "Hello! I'm Zendaya, your AI assistant. How can I help you today?"
	capabilities = "I can help you with device control, file management, system monitoring, smart home control, scheduling, and much more. Even offline, I have extensive knowledge to assist you."
	unknown      = "I understand you're asking about something, but I don't have that information in my offline knowledge base. When I'm back online, I'll be able to help you better with that."
)

var (
	greetingWords   = []string{"hello", "hi", "hey"}
	greetingPhrases = []string{"good morning", "good afternoon", "good evening"}
	helpPhrases     = []string{"help", "what can you do", "capabilities"}
)

func isGreeting(lq string) bool {
	for _, w := range strings.FieldsFunc(lq, notLetter) {
		for _, g := range greetingWords {
			if w == g {
				return true
			}
		}
	}
	return containsAny(lq, greetingPhrases)
}

func isHelp(lq string) bool {
	return containsAny(lq, helpPhrases)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func notLetter(r rune) bool {
	return (r < 'a' || r > 'z') && r != '\''
}

type entry struct {
	category, question, answer string
}

var baseKnowledge = []entry{
	{"system_info", "What are you?", "I am Zendaya, an advanced AI assistant. I'm designed to help you with various tasks, from simple questions to complex system management."},
	{"system_info", "What can you do?", "I can control devices, manage your schedule, search the web, handle files, monitor system performance, control smart home devices, and much more."},
	{"device_control", "How do I open an application?", "Just tell me to 'open [application name]' and I'll launch it for you."},
	{"device_control", "How do I manage files?", "I can help you find, copy, move, or delete files. Just tell me what you need to do with which files."},
	{"smart_home", "How do I control lights?", "Say 'turn on the lights' or 'set the lamp to 40' and I'll pass it to the device."},
	{"productivity", "How do I check my email?", "Say 'check my email' and I'll read your latest unread messages."},
	{"productivity", "How do I check my calendar?", "Say 'check my calendar' and I'll list your next events."},
	{"productivity", "How do I create a routine?", "Add a routine to the config file as a list of steps, then say 'run my <name> routine'."},
	{"troubleshooting", "Why is my system running slow?", "Ask me for the system status and I'll report CPU, memory and disk usage so we can see what's eating resources."},
}
