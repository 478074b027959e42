package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Classification is the decoded output of the routing classifier.
type Classification struct {
	Next    model.HandlerID
	Actions []model.HandlerID
	Reason  string
}

type rawClassification struct {
	NextStep string   `json:"next_step"`
	Next     string   `json:"next"`
	Actions  []string `json:"actions"`
	Reason   string   `json:"reason"`
}

// ParseClassification decodes {"next_step": ..., "actions": [...]} from a
// classifier completion. Unknown action labels are dropped; an unknown
// next_step is an error wrapping errx.ErrMalformedOutput.
func ParseClassification(content string) (out *Classification, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "classification_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("classification parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			out = nil
		}
	}()

	obj, err := ExtractObject(content)
	if err != nil {
		// a bare label such as "booking" is still a usable answer
		if next, ok := model.ParseHandlerID(Clean(content)); ok {
			return &Classification{Next: next, Actions: []model.HandlerID{next}}, nil
		}
		return nil, err
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errx.ErrMalformedOutput, err)
	}
	label := raw.NextStep
	if strings.TrimSpace(label) == "" {
		label = raw.Next
	}
	next, ok := model.ParseHandlerID(label)
	if !ok {
		return nil, fmt.Errorf("%w: unknown next_step %q", errx.ErrMalformedOutput, safeSnippet(label))
	}

	out = &Classification{Next: next, Reason: strings.TrimSpace(raw.Reason)}
	seen := map[model.HandlerID]bool{}
	for _, a := range raw.Actions {
		h, ok := model.ParseHandlerID(a)
		if !ok || !h.IsHandler() || seen[h] {
			continue
		}
		seen[h] = true
		out.Actions = append(out.Actions, h)
	}
	return out, nil
}
