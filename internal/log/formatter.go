package log

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// frames between the adapter's caller and Format when logrus does not report
// the caller itself
const callerSkip = 8

type formatter struct {
	pattern string
	time    string
}

// Format expands %time, %level, %msg, %field, %caller, %func and %goroutine
// in the pattern. Placeholders inside the message are left alone.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	pairs := []string{
		"%time", entry.Time.Format(f.time),
		"%level", entry.Level.String(),
		"%msg", entry.Message,
		"%field", buildFields(entry),
	}
	if strings.Contains(f.pattern, "%caller") || strings.Contains(f.pattern, "%func") {
		file, line, fn := callSite(entry)
		pairs = append(pairs, "%caller", fmt.Sprintf("%s:%d", file, line), "%func", fn)
	}
	if strings.Contains(f.pattern, "%goroutine") {
		pairs = append(pairs, "%goroutine", goroutineID())
	}
	return []byte(strings.NewReplacer(pairs...).Replace(f.pattern)), nil
}

// callSite returns pkg/file.go, line and bare function name of the log call.
func callSite(entry *logrus.Entry) (string, int, string) {
	var file, function string
	var line int
	if entry.HasCaller() {
		file, line, function = entry.Caller.File, entry.Caller.Line, entry.Caller.Function
	} else {
		pc, f, l, ok := runtime.Caller(callerSkip)
		if !ok {
			return "unknown", 0, "unknown"
		}
		file, line = f, l
		if fn := runtime.FuncForPC(pc); fn != nil {
			function = fn.Name()
		}
	}

	pkg := "unknown"
	if function != "" {
		qualified := function[strings.LastIndex(function, "/")+1:]
		if dot := strings.Index(qualified, "."); dot > 0 {
			pkg = qualified[:dot]
		}
		function = function[strings.LastIndex(function, ".")+1:]
	} else {
		function = "unknown"
	}
	return pkg + "/" + file[strings.LastIndex(file, "/")+1:], line, function
}

// goroutineID parses the id from the "goroutine N [running]" stack header.
func goroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[0]
}

// buildFields renders entry data as key=value pairs sorted by key.
func buildFields(entry *logrus.Entry) string {
	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", key, entry.Data[key]))
	}
	return strings.Join(fields, ",")
}
