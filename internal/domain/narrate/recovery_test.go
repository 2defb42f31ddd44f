package narrate

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"fableturn/internal/domain/rng"
)

func recoveryInput(mode BoardMode) RecoveryInput {
	board := testBoard()
	board.Mode = mode
	return RecoveryInput{
		Reason:       "retry_budget_exhausted",
		Mode:         mode,
		Board:        board,
		Contract:     ContractConfig{MinNarrationWords: 20, MaxNarrationWords: 160, Board: board},
		Seed:         rng.DeriveSeed("camp-1", 3, "user-1", "salt"),
		ActionIntent: "explore",
	}
}

func TestSynthesize_TotalAcrossModes(t *testing.T) {
	for _, mode := range []BoardMode{ModeTown, ModeTravel, ModeDungeon, ModeCombat} {
		in := recoveryInput(mode)
		out, _ := Synthesize(in)
		if out.Narration == "" {
			t.Fatalf("%s: empty narration", mode)
		}
		if n := len(out.UIActions); n < 2 || n > 4 {
			t.Fatalf("%s: %d actions", mode, n)
		}
		if len(out.RuntimeDelta.DiscoveryLog) == 0 || out.RuntimeDelta.DiscoveryLog[0].Kind != "dm_recovery" {
			t.Fatalf("%s: missing dm_recovery entry: %+v", mode, out.RuntimeDelta.DiscoveryLog)
		}
		if out.RuntimeDelta.DiscoveryLog[0].Detail != "retry_budget_exhausted" {
			t.Fatalf("%s: recovery reason lost", mode)
		}
	}
}

func TestSynthesize_EmptyInputStillValid(t *testing.T) {
	out, _ := Synthesize(RecoveryInput{
		Contract: ContractConfig{MinNarrationWords: 20, MaxNarrationWords: 160},
	})
	if out.Narration == "" {
		t.Fatalf("empty input produced empty narration")
	}
	if n := len(out.UIActions); n < 2 || n > 4 {
		t.Fatalf("empty input produced %d actions", n)
	}
}

func TestSynthesize_OutputPassesValidator(t *testing.T) {
	for _, mode := range []BoardMode{ModeTown, ModeTravel, ModeDungeon, ModeCombat} {
		in := recoveryInput(mode)
		out, _ := Synthesize(in)
		// Round-trip the synthesized output through the validator the
		// generative path uses.
		raw := marshalOutput(t, out)
		if _, reasons := Validate(raw, in.Contract); len(reasons) != 0 {
			t.Fatalf("%s: recovery output failed contract: %v", mode, reasons)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	a, pa := Synthesize(recoveryInput(ModeTown))
	b, pb := Synthesize(recoveryInput(ModeTown))
	if a.Narration != b.Narration {
		t.Fatalf("narration differs across identical runs")
	}
	if !reflect.DeepEqual(a.UIActions, b.UIActions) {
		t.Fatalf("actions differ across identical runs")
	}
	if !reflect.DeepEqual(pa, pb) {
		t.Fatalf("presentation differs across identical runs")
	}
}

func TestSynthesize_AvoidsRepeatingPreviousTone(t *testing.T) {
	in := recoveryInput(ModeTown)
	first, _ := Synthesize(in)
	prevTone, _ := first.Scene["tone"].(string)
	if prevTone == "" {
		t.Fatalf("scene missing tone")
	}
	in.Presentation.LastTone = prevTone
	second, _ := Synthesize(in)
	if second.Scene["tone"] == prevTone {
		t.Fatalf("tone repeated immediately: %v", prevTone)
	}
}

func TestSynthesize_UnconsumedCombatEventsForceCombat(t *testing.T) {
	in := recoveryInput(ModeTown)
	in.Events = []CombatEvent{
		{ID: "e1", TurnIndex: 2, CreatedAt: 100, ActorID: "npc_warg", Kind: "hit", Detail: "The warg tears into the shield line."},
	}
	out, merged := Synthesize(in)
	if out.Scene["mode"] != string(ModeCombat) {
		t.Fatalf("pending events should force combat mode, got %v", out.Scene["mode"])
	}
	if !strings.Contains(out.Narration, "shield line") {
		t.Fatalf("event detail missing from narration: %q", out.Narration)
	}
	if merged.LastEventCursor.EventID != "e1" {
		t.Fatalf("cursor not advanced: %+v", merged.LastEventCursor)
	}
}

func TestSynthesize_SkipsConsumedAndDeadActorEvents(t *testing.T) {
	in := recoveryInput(ModeCombat)
	in.Presentation.LastEventCursor = EventCursor{TurnIndex: 2, EventID: "e1", CreatedAt: 100}
	in.DeadActors = map[string]bool{"npc_bandit": true}
	in.Events = []CombatEvent{
		{ID: "e1", TurnIndex: 2, CreatedAt: 100, Kind: "hit", Detail: "Old news from a consumed event."},
		{ID: "e2", TurnIndex: 3, CreatedAt: 200, ActorID: "npc_bandit", Kind: "hit", Detail: "A dead bandit swings a sword."},
		{ID: "e3", TurnIndex: 3, CreatedAt: 300, ActorID: "npc_bandit", Kind: "death", Detail: "The bandit collapses at last."},
	}
	out, _ := Synthesize(in)
	if strings.Contains(out.Narration, "Old news") {
		t.Fatalf("consumed event narrated: %q", out.Narration)
	}
	if strings.Contains(out.Narration, "swings a sword") {
		t.Fatalf("dead actor narrated acting: %q", out.Narration)
	}
	if !strings.Contains(out.Narration, "collapses at last") {
		t.Fatalf("death event should survive the filter: %q", out.Narration)
	}
}

func TestSynthesize_ScrubsInternalVocabulary(t *testing.T) {
	in := recoveryInput(ModeDungeon)
	in.Companion = &CompanionCheckin{Name: "Brynn", Line: "watch the tmpl_dark_03 corridor"}
	out, _ := Synthesize(in)
	if strings.Contains(out.Narration, "tmpl_") {
		t.Fatalf("template id leaked: %q", out.Narration)
	}
}

func TestSynthesize_RespectsWordBand(t *testing.T) {
	in := recoveryInput(ModeTravel)
	in.Contract.MinNarrationWords = 40
	in.Contract.MaxNarrationWords = 60
	out, _ := Synthesize(in)
	words := len(strings.Fields(out.Narration))
	if words < 40 || words > 60 {
		t.Fatalf("narration outside band: %d words", words)
	}
}

func marshalOutput(t *testing.T, out Output) []byte {
	t.Helper()
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal output: %v", err)
	}
	return raw
}
