package understand

import "regexp"

type alias struct {
	canonical string
	variants  []string
}

// Words speech recognition tends to confuse with the canonical word.
var homophones = []alias{
	{"there", []string{"their", "they're"}},
	{"to", []string{"too", "two"}},
	{"your", []string{"you're"}},
	{"its", []string{"it's"}},
	{"open", []string{"upon"}},
	{"close", []string{"clothes", "chose"}},
	{"file", []string{"while", "pile"}},
	{"system", []string{"sister", "cyst"}},
	{"control", []string{"central", "patrol"}},
	{"device", []string{"devise", "the vice"}},
	{"calendar", []string{"calender"}},
	{"email", []string{"e-mail", "gmail"}},
	{"volume", []string{"column"}},
	{"temperature", []string{"temp", "temper"}},
	{"security", []string{"secure", "securely"}},
}

var technicalTerms = []alias{
	{"api", []string{"a p i", "app", "happy"}},
	{"cpu", []string{"c p u", "see you"}},
	{"gpu", []string{"g p u", "gee you"}},
	{"ram", []string{"r a m", "ram memory"}},
	{"ssd", []string{"s s d", "solid state"}},
	{"wifi", []string{"wi-fi", "wireless", "wife i"}},
	{"bluetooth", []string{"blue tooth", "blue two"}},
	{"ethernet", []string{"ether net", "internet"}},
}

var commandVariations = []alias{
	{"open", []string{"launch", "start", "run", "execute", "begin"}},
	{"close", []string{"quit", "exit", "stop", "end", "kill", "terminate"}},
	{"increase", []string{"raise", "up", "higher", "more", "boost"}},
	{"decrease", []string{"lower", "down", "less", "reduce", "drop"}},
	{"set", []string{"change", "adjust", "modify", "configure"}},
	{"show", []string{"display", "view", "see", "list"}},
	{"find", []string{"search", "locate", "look for", "get"}},
	{"delete", []string{"remove", "erase", "clear", "destroy"}},
}

type Clue string

const (
	ClueDeviceControl    Clue = "device_control"
	ClueFileManagement   Clue = "file_management"
	ClueSystemInfo       Clue = "system_info"
	ClueCalendarSchedule Clue = "calendar_schedule"
	ClueCommunication    Clue = "communication"
)

type cluePatterns struct {
	clue     Clue
	patterns []*regexp.Regexp
}

var contextPatterns = []cluePatterns{
	{ClueDeviceControl, mustAll(
		`\b(turn|switch|set|adjust|control|manage)\b.*\b(on|off|up|down|to)\b`,
		`\b(open|close|start|stop|launch|quit)\b.*\b(app|application|program|software)\b`,
		`\b(volume|brightness|temperature|speed|power)\b`,
		`\b(lights|music|tv|computer|phone|tablet)\b`,
	)},
	{ClueFileManagement, mustAll(
		`\b(file|folder|document|picture|video|music)\b`,
		`\b(copy|move|delete|rename|create|save)\b`,
		`\b(desktop|downloads|documents|pictures)\b`,
		`\.(txt|pdf|doc|jpg|png|mp3|mp4|exe)\b`,
	)},
	{ClueSystemInfo, mustAll(
		`\b(system|computer|pc|laptop|device)\b.*\b(status|info|performance|health)\b`,
		`\b(cpu|memory|ram|disk|storage|battery)\b`,
		`\b(running|slow|fast|hot|cold|full|empty)\b`,
	)},
	{ClueCalendarSchedule, mustAll(
		`\b(meeting|appointment|event|schedule|calendar)\b`,
		`\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`,
		`\b(morning|afternoon|evening|night|am|pm)\b`,
		`\b(remind|notification|alert)\b`,
	)},
	{ClueCommunication, mustAll(
		`\b(email|message|text|call|contact)\b`,
		`\b(send|receive|reply|forward|delete)\b`,
		`\b(inbox|outbox|draft|spam)\b`,
	)},
}

type Intent string

const (
	IntentCommand     Intent = "command"
	IntentQuestion    Intent = "question"
	IntentRequest     Intent = "request"
	IntentInformation Intent = "information"
	IntentGeneral     Intent = "general"
)

type intentClass struct {
	intent   Intent
	patterns []*regexp.Regexp
	boost    float64
}

// Evaluated in this order; on equal scores the earlier class wins.
var intentClasses = []intentClass{
	{IntentCommand, mustAll(`^(please\s+)?(can\s+you\s+)?(\w+)\s+`, `\b(do|make|create|execute|run)\b`), 0.2},
	{IntentQuestion, mustAll(`^(what|how|when|where|why|who|which)\b`, `\?$`), 0.1},
	{IntentRequest, mustAll(`\b(could|would|can|will)\s+you\b`, `\bplease\b`), 0.15},
	{IntentInformation, mustAll(`\b(tell|show|display|list|find)\b.*\b(me|about|for)\b`), 0.1},
}

func mustAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}
