package bot

import (
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

// Request is one inbound update as the handlers see it.
type Request struct {
	Update  transport.Update
	ChatID  int64
	FromID  int64
	Command string // "/recordar" for commands, "cb:<prefix>:<action>" for buttons, "" for text
	Args    []string
	Text    string
	Payload string // callback payload
	ReqID   string
	Logger  logx.Logger
}

var ridSeq uint64

// newReqID is base36 time + base36 sequence + two random chars.
func newReqID() string {
	n := atomic.AddUint64(&ridSeq, 1)
	ts := time.Now().UnixNano()
	return strconv.FormatInt(ts, 36) + "-" + strconv.FormatUint(n, 36) + randSuffix(2)
}

func randSuffix(n int) string {
	const alpha = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alpha[rand.Intn(len(alpha))])
	}
	return b.String()
}

// parseCommand splits "/Cmd@bot a b" into ("/cmd", ["a", "b"]).
// ok is false for plain text.
func parseCommand(text string) (cmd string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	cmd = fields[0]
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	cmd = strings.ToLower(cmd)
	if cmd == "/" {
		return "", nil, false
	}
	return cmd, fields[1:], true
}
