package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"serotonyl.ru/reputation-engine/internal/common"
	"serotonyl.ru/reputation-engine/internal/features/reputation"
	"serotonyl.ru/reputation-engine/internal/features/rules"
)

// outcomeView — исход события в виде, пригодном для вывода.
type outcomeView struct {
	EventID     string `json:"eventId"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Delta       int    `json:"delta,omitempty"`
	UserID      int64  `json:"userId,omitempty"`
	Reputation  int    `json:"reputation,omitempty"`
	EarnedToday int    `json:"earnedToday,omitempty"`
	RecordID    int64  `json:"recordId,omitempty"`
	DisabledID  int64  `json:"disabledRecordId,omitempty"`
}

func newOutcomeView(out reputation.Outcome) outcomeView {
	v := outcomeView{
		EventID: out.EventID.String(),
		Status:  string(out.Status),
	}
	if out.Reason != nil {
		v.Reason = out.Reason.Error()
	}
	if out.Status == reputation.StatusApplied {
		v.Delta = out.Delta
		v.UserID = out.State.UserID
		v.Reputation = out.State.Reputation
		v.EarnedToday = out.State.ReputationEarnedToday
	}
	if out.Record != nil {
		v.RecordID = out.Record.ID
	}
	if out.Disabled != nil {
		v.DisabledID = out.Disabled.ID
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutcome(w io.Writer, format string, out reputation.Outcome) error {
	v := newOutcomeView(out)
	if format == "json" {
		return writeJSON(w, v)
	}
	switch out.Status {
	case reputation.StatusApplied:
		_, err := fmt.Fprintf(w, "%s: %s, репутация %d, заработано сегодня %d\n",
			v.Status, common.FormatDelta(v.Delta), v.Reputation, v.EarnedToday)
		return err
	case reputation.StatusRejected:
		_, err := fmt.Fprintf(w, "%s: %s\n", v.Status, v.Reason)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s: событие %s уже обработано\n", v.Status, v.EventID)
		return err
	}
}

type ruleView struct {
	ID         int64  `json:"id"`
	EventType  string `json:"eventType"`
	EntityType string `json:"entityType"`
	Target     string `json:"target"`
	Group      string `json:"group,omitempty"`
	Change     int    `json:"change"`
}

func writeRules(w io.Writer, format string, list []*rules.Rule) error {
	views := make([]ruleView, 0, len(list))
	for _, r := range list {
		v := ruleView{ID: r.ID, EventType: string(r.EventType), EntityType: r.EntityType, Target: r.Target, Change: r.Change}
		if r.Group != nil {
			v.Group = *r.Group
		}
		views = append(views, v)
	}
	if format == "json" {
		return writeJSON(w, views)
	}
	for _, v := range views {
		if _, err := fmt.Fprintf(w, "%4d  %-20s %-10s %-8s %-11s %+d\n",
			v.ID, v.EventType, v.EntityType, v.Target, v.Group, v.Change); err != nil {
			return err
		}
	}
	return nil
}
