package nlu

import "strconv"

type Kind string

const (
	KindConfirm        Kind = "confirm"
	KindCancel         Kind = "cancel"
	KindMode           Kind = "mode"
	KindVoice          Kind = "voice"
	KindProfessional   Kind = "professional"
	KindName           Kind = "name"
	KindSelfInquiry    Kind = "self_inquiry"
	KindSystemStatus   Kind = "system_status"
	KindReadClipboard  Kind = "read_clipboard"
	KindWriteClipboard Kind = "write_clipboard"
	KindFindFile       Kind = "find_file"
	KindReadFile       Kind = "read_file"
	KindManageFile     Kind = "manage_file"
	KindCheckEmail     Kind = "check_email"
	KindCheckCalendar  Kind = "check_calendar"
	KindNotify         Kind = "notify"
	KindRoutine        Kind = "routine"
	KindOpen           Kind = "open"
	KindClose          Kind = "close"
	KindPower          Kind = "power"
	KindDevice         Kind = "device"
	KindSearch         Kind = "search"
	KindError          Kind = "error"
	KindChat           Kind = "chat"
)

// Intent is the classified meaning of one utterance.
type Intent struct {
	Kind     Kind              `json:"intent"`
	Rule     string            `json:"rule"`
	Entities map[string]string `json:"entities"`
	Query    string            `json:"query"`
}

func newIntent(kind Kind, query string, kv ...string) Intent {
	in := Intent{Kind: kind, Query: query, Entities: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			in.Entities[kv[i]] = kv[i+1]
		}
	}
	return in
}

func (in Intent) Get(key string) string {
	return in.Entities[key]
}

func (in Intent) Bool(key string) bool {
	b, _ := strconv.ParseBool(in.Entities[key])
	return b
}
