package browserui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/chromedp"
)

type evalEnvelope struct {
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// jsCallTemplate dispatches one render operation to the page's
// ZangerUI object and reports the outcome in a stable envelope.
const jsCallTemplate = `(function() {
  var ui = window.ZangerUI;
  if (!ui || typeof ui[%[1]q] !== "function") {
    return {ok: false, error_message: "ZangerUI." + %[1]q + " not available"};
  }
  try {
    ui[%[1]q](%[2]s);
    return {ok: true};
  } catch (e) {
    return {ok: false, error_message: String(e)};
  }
})()`

// call evaluates one render operation in the attached tab. Failures
// are logged only; the state layer has already committed its change.
func (r *Renderer) call(op string, args ...any) {
	r.mu.Lock()
	tabCtx := r.tabCtx
	r.mu.Unlock()
	if tabCtx == nil {
		slog.Debug("render op skipped, renderer not attached", "op", op)
		return
	}

	encoded := make([]string, 0, len(args))
	for _, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			slog.Warn("render op argument encode failed", "op", op, "error", err)
			return
		}
		encoded = append(encoded, string(data))
	}
	js := fmt.Sprintf(jsCallTemplate, op, strings.Join(encoded, ", "))

	ctx, cancel := context.WithTimeout(tabCtx, r.evalTimeout)
	defer cancel()

	var env evalEnvelope
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &env)); err != nil {
		slog.Warn("render eval failed", "op", op, "error", err)
		return
	}
	if !env.OK {
		slog.Warn("render op rejected", "op", op, "reason", env.ErrorMessage)
	}
}
