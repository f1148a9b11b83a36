// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// UNITDEX_LOG env variable.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("UNITDEX_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewCustomHandler(os.Stderr))
	log.SetLevelFromString(level)
}

// CustomHandler formats log messages as a single line and writes them to w.
// Stdout is reserved for command output, so the default writer is stderr.
type CustomHandler struct {
	w io.Writer
}

func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	// Fields come out of a map, so sort them to keep lines stable.
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}

	_, err := fmt.Fprintln(h.w, b.String())
	return err
}
